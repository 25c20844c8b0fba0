// Package dialog implements the dialogue orchestrator: it drives the
// normalizer to matcher (or follow-up resolver) pipeline for each incoming
// turn, appends the exchange to session history, and delegates unmatched
// queries to the knowledge fallback service.
package dialog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nauhq/nau-assist-go/internal/catalog"
	domerrors "github.com/nauhq/nau-assist-go/internal/errors"
	"github.com/nauhq/nau-assist-go/internal/history"
	"github.com/nauhq/nau-assist-go/internal/knowledge"
	"github.com/nauhq/nau-assist-go/internal/logger"
	"github.com/nauhq/nau-assist-go/internal/metrics"
	"github.com/nauhq/nau-assist-go/internal/stringutil"
)

// DefaultChatID is used when a client omits the session key. The shipped
// web frontend always sends this value.
const DefaultChatID = "default"

// apologyAnswer is returned when the fallback service is unavailable or
// every fallback attempt failed. Never surfaced as an error.
const apologyAnswer = "I apologize, but I'm having trouble processing your request at the moment. Please try again later or contact NAU directly for assistance."

// Answer source labels for metrics. sourceHistory marks turns that failed
// before an answer source was chosen.
const (
	sourcePredefined = "predefined"
	sourceFollowUp   = "follow_up"
	sourceFallback   = "fallback"
	sourceDegraded   = "degraded"
	sourceHistory    = "history"
)

// Status labels for the chat request counter.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// TurnRequest is one incoming user turn.
type TurnRequest struct {
	ChatID string
	Query  string

	// FollowUpTo marks the turn as a reply to a previously issued
	// follow-up prompt.
	FollowUpTo string

	// OriginalQuestion lets stateless clients carry the question that
	// produced the prompt; used only when the marker cannot be resolved
	// from history.
	OriginalQuestion string
}

// TurnResult is the composed outcome of one turn.
type TurnResult struct {
	ChatID  string
	Answer  string
	Sources []string

	// FollowUp carries the prompt text when the matched entry scripts a
	// follow-up question; FollowUpID is the marker the client echoes back.
	FollowUp   string
	FollowUpID string

	// OriginalQuestion is echoed so stateless clients can resolve the
	// follow-up without server-side history.
	OriginalQuestion string
}

// Orchestrator composes the catalog, the history store, and the knowledge
// fallback service.
type Orchestrator struct {
	catalog         *catalog.Catalog
	store           history.Store
	knowledge       knowledge.Service // nil when fallback is not configured
	metrics         *metrics.Metrics
	logger          *logger.Logger
	fallbackTimeout time.Duration
}

// New creates an orchestrator. knowledgeSvc may be nil, in which case
// unmatched queries receive the static apology.
func New(cat *catalog.Catalog, store history.Store, knowledgeSvc knowledge.Service, m *metrics.Metrics, log *logger.Logger, fallbackTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		catalog:         cat,
		store:           store,
		knowledge:       knowledgeSvc,
		metrics:         m,
		logger:          log.WithModule("dialog"),
		fallbackTimeout: fallbackTimeout,
	}
}

// HandleTurn processes one user turn. The only error it returns is
// ErrInvalidInput for an empty query (plus store failures); fallback
// failures are recovered locally with the apology answer.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	start := time.Now()

	if req.Query == "" {
		return nil, domerrors.NewWrapper("dialog", "handle_turn").
			Wrap(domerrors.ErrInvalidInput, "Query is required")
	}

	chatID := req.ChatID
	if chatID == "" {
		chatID = DefaultChatID
	}
	log := o.logger.WithChatID(chatID)

	if err := o.store.Append(ctx, chatID, history.Turn{
		Role:    history.RoleUser,
		Content: req.Query,
	}); err != nil {
		o.metrics.RecordChatRequest(sourceHistory, statusError)
		return nil, fmt.Errorf("append user turn: %w", err)
	}
	o.metrics.RecordTurnAppended(history.RoleUser)

	// A reply to a follow-up prompt takes priority over fresh matching.
	if req.FollowUpTo != "" {
		result, err := o.resolveFollowUp(ctx, chatID, req)
		if err != nil {
			o.metrics.RecordChatRequest(sourceFollowUp, statusError)
			return nil, err
		}
		if result != nil {
			o.metrics.RecordChatRequest(sourceFollowUp, statusSuccess)
			o.metrics.RecordChatDuration(sourceFollowUp, time.Since(start).Seconds())
			return result, nil
		}
		// Marker did not resolve to a scripted follow-up; treat the reply
		// as a fresh query.
		log.WithField("follow_up_to", req.FollowUpTo).Debug("Unresolvable follow-up marker, matching fresh")
	}

	normalized := stringutil.Normalize(req.Query)
	entry := o.catalog.Match(normalized)
	if entry != nil {
		result, err := o.answerFromEntry(ctx, chatID, req.Query, normalized, entry)
		if err != nil {
			o.metrics.RecordChatRequest(sourcePredefined, statusError)
			return nil, err
		}
		o.metrics.RecordChatRequest(sourcePredefined, statusSuccess)
		o.metrics.RecordChatDuration(sourcePredefined, time.Since(start).Seconds())
		return result, nil
	}

	result, source, err := o.answerFromFallback(ctx, chatID, req.Query, log)
	if err != nil {
		o.metrics.RecordChatRequest(source, statusError)
		return nil, err
	}
	o.metrics.RecordChatRequest(source, statusSuccess)
	o.metrics.RecordChatDuration(source, time.Since(start).Seconds())
	return result, nil
}

// resolveFollowUp locates the prompt turn for the supplied marker,
// re-resolves the originating question's catalog entry, and classifies the
// reply into a branch response. Returns a nil result when the marker cannot
// be tied to an entry with a follow-up spec.
func (o *Orchestrator) resolveFollowUp(ctx context.Context, chatID string, req TurnRequest) (*TurnResult, error) {
	originating := req.OriginalQuestion

	// The history record is authoritative; the request field is a
	// compatibility path for clients that keep no server-side session.
	if chat, err := o.store.Get(ctx, chatID); err == nil {
		if prompt := history.FindPromptTurn(chat, req.FollowUpTo); prompt != nil {
			originating = prompt.OriginatingQuestion
		}
	}
	if originating == "" {
		return nil, nil
	}

	entry := o.catalog.MatchRaw(originating)
	if entry == nil || entry.FollowUp == nil {
		return nil, nil
	}

	answer := stringutil.CleanResponse(catalog.Resolve(entry.FollowUp, req.Query))
	sources := entry.Sources
	if len(sources) == 0 {
		sources = []string{catalog.DefaultSource}
	}

	if err := o.store.Append(ctx, chatID, history.Turn{
		Role:    history.RoleAssistant,
		Content: answer,
		Sources: sources,
	}); err != nil {
		return nil, fmt.Errorf("append follow-up answer turn: %w", err)
	}
	o.metrics.RecordTurnAppended(history.RoleAssistant)

	return &TurnResult{
		ChatID:  chatID,
		Answer:  answer,
		Sources: sources,
	}, nil
}

// answerFromEntry composes the response for a matched catalog entry,
// attaching the follow-up prompt when the entry scripts one. The prompt
// turn is appended strictly after the answer turn.
func (o *Orchestrator) answerFromEntry(ctx context.Context, chatID, rawQuery, normalized string, entry *catalog.Entry) (*TurnResult, error) {
	answer := stringutil.CleanResponse(entry.Answer)
	sources := entry.Sources
	if len(sources) == 0 {
		sources = []string{catalog.DefaultSource}
	}

	result := &TurnResult{
		ChatID:  chatID,
		Answer:  answer,
		Sources: sources,
	}

	if err := o.store.Append(ctx, chatID, history.Turn{
		Role:    history.RoleAssistant,
		Content: answer,
		Sources: sources,
	}); err != nil {
		return nil, fmt.Errorf("append answer turn: %w", err)
	}
	o.metrics.RecordTurnAppended(history.RoleAssistant)

	if entry.FollowUp != nil {
		result.FollowUp = entry.FollowUp.Prompt
		result.FollowUpID = newFollowUpID()
		result.OriginalQuestion = rawQuery

		if err := o.store.Append(ctx, chatID, history.Turn{
			Role:                history.RoleAssistant,
			Content:             entry.FollowUp.Prompt,
			FollowUpPrompt:      true,
			FollowUpID:          result.FollowUpID,
			OriginatingQuestion: normalized,
		}); err != nil {
			return nil, fmt.Errorf("append follow-up prompt turn: %w", err)
		}
		o.metrics.RecordTurnAppended(history.RoleAssistant)
	}

	return result, nil
}

// answerFromFallback delegates to the knowledge service. Failures and a
// missing service both degrade to the static apology; the session lock is
// never held across the call since the store serializes appends internally.
func (o *Orchestrator) answerFromFallback(ctx context.Context, chatID, query string, log *logger.Logger) (*TurnResult, string, error) {
	answer := apologyAnswer
	sources := []string{catalog.DefaultSource}
	source := sourceDegraded

	if o.knowledge != nil && o.knowledge.IsEnabled() {
		callCtx, cancel := context.WithTimeout(ctx, o.fallbackTimeout)
		r, err := o.knowledge.Answer(callCtx, query)
		cancel()

		if err != nil {
			log.WithError(err).Warn("Knowledge fallback failed, using degraded answer")
		} else {
			answer = stringutil.CleanResponse(r.Answer)
			if len(r.Sources) > 0 {
				sources = r.Sources
			}
			source = sourceFallback
		}
	} else {
		log.Debug("Knowledge fallback not configured, using degraded answer")
	}

	if err := o.store.Append(ctx, chatID, history.Turn{
		Role:    history.RoleAssistant,
		Content: answer,
		Sources: sources,
	}); err != nil {
		return nil, source, fmt.Errorf("append fallback answer turn: %w", err)
	}
	o.metrics.RecordTurnAppended(history.RoleAssistant)

	return &TurnResult{
		ChatID:  chatID,
		Answer:  answer,
		Sources: sources,
	}, source, nil
}

// newFollowUpID generates a marker for a freshly issued follow-up prompt.
func newFollowUpID() string {
	return "followup_" + uuid.NewString()
}
