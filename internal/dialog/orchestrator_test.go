package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nauhq/nau-assist-go/internal/catalog"
	domerrors "github.com/nauhq/nau-assist-go/internal/errors"
	"github.com/nauhq/nau-assist-go/internal/history"
	"github.com/nauhq/nau-assist-go/internal/knowledge"
	"github.com/nauhq/nau-assist-go/internal/logger"
	"github.com/nauhq/nau-assist-go/internal/metrics"
)

// stubKnowledge is a canned knowledge.Service for orchestrator tests.
type stubKnowledge struct {
	result *knowledge.Result
	err    error
	calls  int
}

func (s *stubKnowledge) Answer(_ context.Context, _ string) (*knowledge.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubKnowledge) IsEnabled() bool { return true }
func (s *stubKnowledge) Close() error    { return nil }

// flakyStore delegates to a real store but fails every Append after the
// first failAfter calls.
type flakyStore struct {
	history.Store
	failAfter int
	appends   int
}

func (s *flakyStore) Append(ctx context.Context, chatID string, turn history.Turn) error {
	s.appends++
	if s.appends > s.failAfter {
		return errors.New("disk full")
	}
	return s.Store.Append(ctx, chatID, turn)
}

func newTestOrchestrator(t *testing.T, svc knowledge.Service) (*Orchestrator, history.Store) {
	t.Helper()
	cat, err := catalog.New()
	if err != nil {
		t.Fatalf("catalog.New() returned error: %v", err)
	}
	store := history.NewMemoryStore()
	return New(cat, store, svc, nil, logger.New("error"), 5*time.Second), store
}

func TestHandleTurnEmptyQuery(t *testing.T) {
	orch, _ := newTestOrchestrator(t, nil)

	_, err := orch.HandleTurn(context.Background(), TurnRequest{ChatID: "s1"})
	if !errors.Is(err, domerrors.ErrInvalidInput) {
		t.Fatalf("HandleTurn(empty) error = %v, want ErrInvalidInput", err)
	}
}

func TestHandleTurnTuitionScenario(t *testing.T) {
	orch, store := newTestOrchestrator(t, nil)
	ctx := context.Background()

	result, err := orch.HandleTurn(ctx, TurnRequest{ChatID: "s1", Query: "tuition fees"})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}

	if !strings.Contains(result.Answer, "$1,125") {
		t.Errorf("answer missing tuition rate: %.80s", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "https://www.na.edu/admissions/tuition-and-fees/" {
		t.Errorf("sources = %v", result.Sources)
	}
	if result.FollowUp != "Are you planning to use on-campus housing as well?" {
		t.Errorf("follow-up prompt = %q", result.FollowUp)
	}
	if !strings.HasPrefix(result.FollowUpID, "followup_") {
		t.Errorf("follow-up id = %q, want followup_ prefix", result.FollowUpID)
	}
	if result.OriginalQuestion != "tuition fees" {
		t.Errorf("original question = %q", result.OriginalQuestion)
	}

	// History records user turn, answer turn, then the prompt turn.
	chat, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(chat.Turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(chat.Turns))
	}
	if chat.Turns[0].Role != history.RoleUser {
		t.Errorf("turn 0 role = %s, want user", chat.Turns[0].Role)
	}
	if chat.Turns[1].Role != history.RoleAssistant || chat.Turns[1].FollowUpPrompt {
		t.Errorf("turn 1 should be the plain answer turn")
	}
	if !chat.Turns[2].FollowUpPrompt || chat.Turns[2].FollowUpID != result.FollowUpID {
		t.Errorf("turn 2 should carry the follow-up marker %q", result.FollowUpID)
	}
}

func TestHandleTurnFollowUpReply(t *testing.T) {
	orch, _ := newTestOrchestrator(t, nil)
	ctx := context.Background()

	first, err := orch.HandleTurn(ctx, TurnRequest{ChatID: "s1", Query: "tuition fees"})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}

	second, err := orch.HandleTurn(ctx, TurnRequest{
		ChatID:     "s1",
		Query:      "yes",
		FollowUpTo: first.FollowUpID,
	})
	if err != nil {
		t.Fatalf("HandleTurn follow-up returned error: %v", err)
	}
	if !strings.Contains(second.Answer, "Housing Options") {
		t.Errorf("affirmative housing reply = %.80s", second.Answer)
	}
	if second.FollowUp != "" || second.FollowUpID != "" {
		t.Error("follow-up replies must not issue another prompt")
	}
}

// Stateless clients resolve the marker via the original_question field when
// the session holds no prompt turn.
func TestHandleTurnFollowUpStateless(t *testing.T) {
	orch, _ := newTestOrchestrator(t, nil)

	result, err := orch.HandleTurn(context.Background(), TurnRequest{
		ChatID:           "fresh-session",
		Query:            "no thanks",
		FollowUpTo:       "followup_unknown",
		OriginalQuestion: "tuition fees",
	})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}
	if !strings.Contains(result.Answer, "feel free to ask") {
		t.Errorf("negative housing reply = %.80s", result.Answer)
	}
}

// An unresolvable marker falls through to fresh matching instead of failing.
func TestHandleTurnUnresolvableMarker(t *testing.T) {
	orch, _ := newTestOrchestrator(t, nil)

	result, err := orch.HandleTurn(context.Background(), TurnRequest{
		ChatID:     "s1",
		Query:      "how do i apply",
		FollowUpTo: "followup_unknown",
	})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}
	if !strings.Contains(result.Answer, "STEP 1") {
		t.Errorf("expected fresh admission answer, got %.80s", result.Answer)
	}
}

func TestHandleTurnFallbackSuccess(t *testing.T) {
	svc := &stubKnowledge{result: &knowledge.Result{
		Answer:  "It is sunny in Stafford today.",
		Sources: []string{"https://weather.example.com"},
	}}
	orch, _ := newTestOrchestrator(t, svc)

	result, err := orch.HandleTurn(context.Background(), TurnRequest{ChatID: "s1", Query: "what is the weather today"})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}
	if svc.calls != 1 {
		t.Errorf("fallback called %d times, want 1", svc.calls)
	}
	if result.Answer != "It is sunny in Stafford today." {
		t.Errorf("answer = %q", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "https://weather.example.com" {
		t.Errorf("sources = %v", result.Sources)
	}
}

func TestHandleTurnFallbackFailure(t *testing.T) {
	svc := &stubKnowledge{err: errors.New("provider down")}
	orch, _ := newTestOrchestrator(t, svc)

	result, err := orch.HandleTurn(context.Background(), TurnRequest{ChatID: "s1", Query: "what is the weather today"})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}
	if result.Answer != apologyAnswer {
		t.Errorf("answer = %q, want apology", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "https://www.na.edu" {
		t.Errorf("sources = %v, want default source", result.Sources)
	}
}

func TestHandleTurnFallbackDisabled(t *testing.T) {
	orch, _ := newTestOrchestrator(t, nil)

	result, err := orch.HandleTurn(context.Background(), TurnRequest{ChatID: "s1", Query: "what is the weather today"})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}
	if result.Answer != apologyAnswer {
		t.Errorf("answer = %q, want apology", result.Answer)
	}
}

func TestHandleTurnDefaultChatID(t *testing.T) {
	orch, store := newTestOrchestrator(t, nil)
	ctx := context.Background()

	result, err := orch.HandleTurn(ctx, TurnRequest{Query: "how to reset my password"})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}
	if result.ChatID != DefaultChatID {
		t.Errorf("chat id = %q, want %q", result.ChatID, DefaultChatID)
	}
	if _, err := store.Get(ctx, DefaultChatID); err != nil {
		t.Errorf("default chat not stored: %v", err)
	}
}

// A store failure while recording the follow-up answer surfaces as an error
// the same way it does for a fresh catalog answer.
func TestHandleTurnFollowUpAppendFailure(t *testing.T) {
	cat, err := catalog.New()
	if err != nil {
		t.Fatalf("catalog.New() returned error: %v", err)
	}
	store := &flakyStore{Store: history.NewMemoryStore(), failAfter: 4}
	m := metrics.New(prometheus.NewRegistry())
	orch := New(cat, store, nil, m, logger.New("error"), 5*time.Second)
	ctx := context.Background()

	// First turn consumes three appends: user, answer, prompt.
	first, err := orch.HandleTurn(ctx, TurnRequest{ChatID: "s1", Query: "tuition fees"})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}

	// The reply's user turn is the fourth append; the answer turn fails.
	_, err = orch.HandleTurn(ctx, TurnRequest{
		ChatID:     "s1",
		Query:      "yes",
		FollowUpTo: first.FollowUpID,
	})
	if err == nil {
		t.Fatal("HandleTurn should fail when the follow-up answer cannot be stored")
	}
	if got := testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("follow_up", "error")); got != 1 {
		t.Errorf("follow_up error count = %v, want 1", got)
	}
}

// Failed turns increment the chat request counter under the error status.
func TestHandleTurnErrorStatus(t *testing.T) {
	cat, err := catalog.New()
	if err != nil {
		t.Fatalf("catalog.New() returned error: %v", err)
	}
	ctx := context.Background()

	t.Run("Answer append fails", func(t *testing.T) {
		store := &flakyStore{Store: history.NewMemoryStore(), failAfter: 1}
		m := metrics.New(prometheus.NewRegistry())
		orch := New(cat, store, nil, m, logger.New("error"), 5*time.Second)

		if _, err := orch.HandleTurn(ctx, TurnRequest{ChatID: "s1", Query: "tuition fees"}); err == nil {
			t.Fatal("HandleTurn should fail when the answer cannot be stored")
		}
		if got := testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("predefined", "error")); got != 1 {
			t.Errorf("predefined error count = %v, want 1", got)
		}
	})

	t.Run("User append fails", func(t *testing.T) {
		store := &flakyStore{Store: history.NewMemoryStore(), failAfter: 0}
		m := metrics.New(prometheus.NewRegistry())
		orch := New(cat, store, nil, m, logger.New("error"), 5*time.Second)

		if _, err := orch.HandleTurn(ctx, TurnRequest{ChatID: "s1", Query: "tuition fees"}); err == nil {
			t.Fatal("HandleTurn should fail when the user turn cannot be stored")
		}
		if got := testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("history", "error")); got != 1 {
			t.Errorf("history error count = %v, want 1", got)
		}
	})
}

// The password entry has no follow-up, so no prompt turn is appended.
func TestHandleTurnNoFollowUp(t *testing.T) {
	orch, store := newTestOrchestrator(t, nil)
	ctx := context.Background()

	result, err := orch.HandleTurn(ctx, TurnRequest{ChatID: "s1", Query: "forgot password"})
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}
	if result.FollowUp != "" || result.FollowUpID != "" {
		t.Errorf("password entry should carry no follow-up, got %q", result.FollowUp)
	}

	chat, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(chat.Turns) != 2 {
		t.Errorf("got %d turns, want 2", len(chat.Turns))
	}
}
