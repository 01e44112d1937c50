package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// NoMatchesResponse is returned when retrieval succeeds with zero hits.
// The model is never invoked in that case.
const NoMatchesResponse = "За вашим запитом не знайдено жодної митної декларації."

// Workflow is the retrieve→analyze state machine. Stages run strictly
// sequentially; the first error short-circuits to Failed and is returned as
// data on the State, never raised across the workflow boundary.
type Workflow struct {
	retriever *Retriever
	analyzer  *Analyzer
	log       *log.Logger
}

func NewWorkflow(retriever *Retriever, analyzer *Analyzer, logger *log.Logger) *Workflow {
	return &Workflow{
		retriever: retriever,
		analyzer:  analyzer,
		log:       logger.With("component", "workflow"),
	}
}

// Run executes the workflow for one question. At return exactly one of
// State.Response and State.Err is set.
func (w *Workflow) Run(ctx context.Context, question string) *State {
	started := time.Now()
	s := &State{Question: question, Status: StatusStart}

	if strings.TrimSpace(question) == "" {
		s.fail(ErrValidation)
		return s
	}

	s.Status = StatusRetrieving
	docs, err := w.runRetrieve(ctx, s.Question)
	if err != nil {
		s.fail(err)
		w.log.Error("retrieval failed", "err", err)
		return s
	}
	s.Documents = docs

	if len(docs) == 0 {
		s.Response = NoMatchesResponse
		s.Status = StatusDone
		w.log.Info("no matching documents", "elapsed", time.Since(started))
		return s
	}
	s.Context = BuildContext(docs)

	s.Status = StatusAnalyzing
	answer, err := w.runAnalyze(ctx, s.Question, s.Context)
	if err != nil {
		s.fail(err)
		w.log.Error("analysis failed", "err", err)
		return s
	}

	s.Response = answer
	s.Status = StatusDone
	w.log.Info("workflow finished", "documents", len(docs), "elapsed", time.Since(started))
	return s
}

// runRetrieve wraps the retrieve stage so an unexpected panic becomes a
// generic stage error instead of crashing the orchestrator.
func (w *Workflow) runRetrieve(ctx context.Context, question string) (docs []Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("retrieve stage panicked", "panic", r)
			docs, err = nil, fmt.Errorf("retrieve stage failed unexpectedly: %v", r)
		}
	}()
	return w.retriever.Retrieve(ctx, Query{Question: question})
}

func (w *Workflow) runAnalyze(ctx context.Context, question, contextBlock string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("analyze stage panicked", "panic", r)
			answer, err = "", fmt.Errorf("analyze stage failed unexpectedly: %v", r)
		}
	}()
	return w.analyzer.Analyze(ctx, question, contextBlock)
}
