package graph

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customsagent/internal/llm"
	"customsagent/internal/store"
)

type fakeStore struct {
	pingErr     error
	exists      bool
	existsErr   error
	searchCalls int
	failures    int
	failErr     error
	result      *store.Result
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) IndexExists(ctx context.Context, name string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeStore) Search(ctx context.Context, index, body string, size int) (*store.Result, error) {
	f.searchCalls++
	if f.searchCalls <= f.failures {
		return nil, f.failErr
	}
	return f.result, nil
}

type fakeLLM struct {
	invokeCalls int
	response    any
	err         error
}

func (f *fakeLLM) Invoke(ctx context.Context, messages []llm.Message) (any, error) {
	f.invokeCalls++
	return f.response, f.err
}

func (f *fakeLLM) Ping(ctx context.Context) error { return nil }

func testLogger() *log.Logger { return log.New(io.Discard) }

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newTestWorkflow(st *fakeStore, model *fakeLLM) *Workflow {
	logger := testLogger()
	retriever := NewRetriever(st, "customs_declarations", 10, fastPolicy(), logger)
	analyzer := NewAnalyzer(model, logger)
	return NewWorkflow(retriever, analyzer, logger)
}

func engineHit() store.Hit {
	return store.Hit{
		Score: 1.7,
		Source: map[string]any{
			"product_description": "Car engine part",
			"declaration_number":  "123",
			"invoice_value":       500.0,
			"origin_country":      "DE",
		},
	}
}

func TestWorkflowEmptyQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{"empty", ""},
		{"whitespace", "   \t "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStore{exists: true, result: &store.Result{}}
			model := &fakeLLM{response: "ok"}
			w := newTestWorkflow(st, model)

			state := w.Run(context.Background(), tt.question)

			assert.Equal(t, StatusFailed, state.Status)
			assert.ErrorIs(t, state.Err, ErrValidation)
			assert.Empty(t, state.Response)
			assert.Zero(t, st.searchCalls, "store must not be called")
			assert.Zero(t, model.invokeCalls, "model must not be called")
		})
	}
}

func TestWorkflowNoMatchingDocuments(t *testing.T) {
	st := &fakeStore{exists: true, result: &store.Result{}}
	model := &fakeLLM{response: "should never be used"}
	w := newTestWorkflow(st, model)

	state := w.Run(context.Background(), "imported bananas")

	assert.Equal(t, StatusDone, state.Status)
	assert.Equal(t, NoMatchesResponse, state.Response)
	assert.NoError(t, state.Err)
	assert.Empty(t, state.Documents)
	assert.Zero(t, model.invokeCalls, "model must not be invoked with nothing to analyze")
}

func TestWorkflowEndToEnd(t *testing.T) {
	st := &fakeStore{exists: true, result: &store.Result{Hits: []store.Hit{engineHit()}, Total: 1}}
	model := &fakeLLM{response: llm.Message{Role: llm.RoleAssistant, Content: "Декларація 123, вартість 500."}}
	w := newTestWorkflow(st, model)

	state := w.Run(context.Background(), "engine part price")

	require.NoError(t, state.Err)
	assert.Equal(t, StatusDone, state.Status)
	assert.NotEmpty(t, state.Response)
	assert.Contains(t, state.Context, "123")
	assert.Contains(t, state.Context, "500")
	assert.Equal(t, 1, model.invokeCalls)
}

func TestWorkflowRetrievalFailure(t *testing.T) {
	st := &fakeStore{exists: true, failures: 100, failErr: errors.New("connection refused")}
	model := &fakeLLM{response: "unused"}
	w := newTestWorkflow(st, model)

	state := w.Run(context.Background(), "engine part price")

	assert.Equal(t, StatusFailed, state.Status)
	assert.ErrorIs(t, state.Err, ErrStoreUnavailable)
	assert.Empty(t, state.Response)
	assert.Zero(t, model.invokeCalls)
}

func TestWorkflowUnrecognizedModelResponse(t *testing.T) {
	st := &fakeStore{exists: true, result: &store.Result{Hits: []store.Hit{engineHit()}, Total: 1}}
	model := &fakeLLM{response: 42}
	w := newTestWorkflow(st, model)

	state := w.Run(context.Background(), "engine part price")

	assert.Equal(t, StatusFailed, state.Status)
	assert.ErrorIs(t, state.Err, ErrAnalysis)
	assert.Empty(t, state.Response)
}

// Exactly one of Response and Err must be set at completion, whatever the
// path taken.
func TestWorkflowExactlyOneOutcome(t *testing.T) {
	tests := []struct {
		name  string
		st    *fakeStore
		model *fakeLLM
	}{
		{"success", &fakeStore{exists: true, result: &store.Result{Hits: []store.Hit{engineHit()}}}, &fakeLLM{response: "відповідь"}},
		{"no hits", &fakeStore{exists: true, result: &store.Result{}}, &fakeLLM{response: "unused"}},
		{"store down", &fakeStore{exists: true, failures: 100, failErr: errors.New("dial tcp: refused")}, &fakeLLM{response: "unused"}},
		{"model failure", &fakeStore{exists: true, result: &store.Result{Hits: []store.Hit{engineHit()}}}, &fakeLLM{err: errors.New("model exploded")}},
		{"bad shape", &fakeStore{exists: true, result: &store.Result{Hits: []store.Hit{engineHit()}}}, &fakeLLM{response: []byte("raw")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newTestWorkflow(tt.st, tt.model).Run(context.Background(), "питання")

			responseSet := state.Response != ""
			errSet := state.Err != nil
			assert.True(t, responseSet != errSet, "want exactly one of response/err, got response=%q err=%v", state.Response, state.Err)
		})
	}
}

func TestWorkflowErrorNotOverwritten(t *testing.T) {
	s := &State{}
	first := errors.New("first")
	s.fail(first)
	s.fail(errors.New("second"))
	assert.Same(t, first, s.Err)
	assert.Equal(t, StatusFailed, s.Status)
}
