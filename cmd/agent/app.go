package main

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"customsagent/internal/cache"
	"customsagent/internal/config"
	"customsagent/internal/graph"
	"customsagent/internal/history"
	"customsagent/internal/llm"
	"customsagent/internal/store"
)

// app bundles the workflow with its optional collaborators. It is built
// once per command invocation; question runs share it read-only.
type app struct {
	cfg      *config.Config
	log      *log.Logger
	store    *store.OpenSearch
	workflow *graph.Workflow
	cache    *cache.Cache
	history  *history.Store
}

// buildApp constructs and readiness-checks every component. A store that is
// unreachable or an index that is missing fails here, before any question
// is processed.
func buildApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	osClient, err := store.NewOpenSearch(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	retriever := graph.NewRetriever(osClient, cfg.Store.Index, cfg.PageSize, graph.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}, logger)
	if err := retriever.CheckReady(ctx); err != nil {
		return nil, err
	}

	model := llm.NewOllama(cfg.Ollama, logger)
	if err := model.Ping(ctx); err != nil {
		logger.Warn("ollama unreachable, analysis will fail until it is up", "err", err)
	}
	analyzer := graph.NewAnalyzer(model, logger)

	a := &app{
		cfg:      cfg,
		log:      logger,
		store:    osClient,
		workflow: graph.NewWorkflow(retriever, analyzer, logger),
	}

	if cfg.RedisAddr != "" {
		a.cache = cache.New(cfg.RedisAddr, cfg.CacheTTL, logger)
		if err := a.cache.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, caching disabled", "err", err)
			a.cache.Close()
			a.cache = nil
		}
	}
	if cfg.DatabaseURL != "" {
		h, err := history.Open(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Warn("history database unreachable, logging disabled", "err", err)
		} else {
			a.history = h
		}
	}
	return a, nil
}

// ask runs one question through the cache, the workflow and the history
// log.
func (a *app) ask(ctx context.Context, question string) *graph.State {
	started := time.Now()

	if a.cache != nil {
		if answer, ok := a.cache.Get(ctx, question); ok {
			a.log.Debug("cache hit", "question", question)
			return &graph.State{Question: question, Response: answer, Status: graph.StatusDone}
		}
	}

	state := a.workflow.Run(ctx, question)

	if a.cache != nil && state.Status == graph.StatusDone {
		a.cache.Set(ctx, question, state.Response)
	}
	if a.history != nil {
		entry := history.Entry{
			Question: question,
			Answer:   state.Response,
			Status:   state.Status.String(),
			Duration: time.Since(started),
		}
		if state.Err != nil {
			entry.Error = state.Err.Error()
		}
		a.history.Record(ctx, entry)
	}
	return state
}

// health reports whether the document store is reachable.
func (a *app) health(ctx context.Context) error {
	return a.store.Ping(ctx)
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.history != nil {
		a.history.Close()
	}
}
