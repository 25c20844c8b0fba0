package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New() returned nil")
	}

	// Verify all metric fields are initialized
	if m.ChatRequestsTotal == nil {
		t.Error("ChatRequestsTotal is nil")
	}
	if m.ChatDurationSeconds == nil {
		t.Error("ChatDurationSeconds is nil")
	}
	if m.FallbackRequestsTotal == nil {
		t.Error("FallbackRequestsTotal is nil")
	}
	if m.FallbackDurationSeconds == nil {
		t.Error("FallbackDurationSeconds is nil")
	}
	if m.HTTPErrorsTotal == nil {
		t.Error("HTTPErrorsTotal is nil")
	}
	if m.ActiveChats == nil {
		t.Error("ActiveChats is nil")
	}
	if m.ChatsPruned == nil {
		t.Error("ChatsPruned is nil")
	}
	if m.TurnsAppended == nil {
		t.Error("TurnsAppended is nil")
	}
	if m.FallbackDedupTotal == nil {
		t.Error("FallbackDedupTotal is nil")
	}
}

func TestRecordHelpers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordChatRequest("predefined", "success")
	m.RecordChatRequest("predefined", "success")
	m.RecordChatDuration("predefined", 0.05)
	m.RecordFallback("gpt-4o", "error", 1.2)
	m.RecordHTTPError("bad_request", "/api/chat")
	m.RecordTurnAppended("user")
	m.RecordFallbackDedup()
	m.SetActiveChats(7)
	m.AddChatsPruned(3)

	if got := testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("predefined", "success")); got != 2 {
		t.Errorf("chat requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FallbackRequestsTotal.WithLabelValues("gpt-4o", "error")); got != 1 {
		t.Errorf("fallback requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPErrorsTotal.WithLabelValues("bad_request", "/api/chat")); got != 1 {
		t.Errorf("http errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActiveChats); got != 7 {
		t.Errorf("active chats = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.ChatsPruned); got != 3 {
		t.Errorf("chats pruned = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.FallbackDedupTotal); got != 1 {
		t.Errorf("fallback dedup = %v, want 1", got)
	}
}

// All helpers must be safe on a nil receiver so metrics stay optional in
// tests and tools.
func TestNilReceiverSafety(t *testing.T) {
	var m *Metrics

	m.RecordChatRequest("predefined", "success")
	m.RecordChatDuration("predefined", 0.1)
	m.RecordFallback("gpt-4o", "success", 0.1)
	m.RecordHTTPError("internal", "/api/chat")
	m.RecordTurnAppended("assistant")
	m.RecordFallbackDedup()
	m.SetActiveChats(1)
	m.AddChatsPruned(1)
}
