package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sethvargo/go-retry"

	"customsagent/internal/store"
)

// RetryPolicy bounds retries of transient store failures: exponential
// backoff starting at BaseDelay, each wait capped at MaxDelay, at most
// MaxAttempts calls in total.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.BaseDelay)
	b = retry.WithCappedDuration(p.MaxDelay, b)
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// Retriever executes lexical queries against the document store and
// normalizes hits into Documents.
type Retriever struct {
	client   store.Client
	index    string
	pageSize int
	policy   RetryPolicy
	log      *log.Logger
}

func NewRetriever(client store.Client, index string, pageSize int, policy RetryPolicy, logger *log.Logger) *Retriever {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 4 * time.Second
	}
	return &Retriever{
		client:   client,
		index:    index,
		pageSize: pageSize,
		policy:   policy,
		log:      logger.With("component", "retriever"),
	}
}

// CheckReady verifies the store is reachable and the index exists. Both
// failures are initialization-fatal for callers.
func (r *Retriever) CheckReady(ctx context.Context) error {
	if err := r.client.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	exists, err := r.client.IndexExists(ctx, r.index)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, r.index)
	}
	return nil
}

// Retrieve runs the query and returns at most pageSize Documents in rank
// order. Zero documents is a valid outcome, not an error. Transient store
// failures are retried per the policy; malformed queries surface
// immediately as ErrQuery.
func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]Document, error) {
	body, err := buildQueryBody(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	var result *store.Result
	attempts := 0
	err = retry.Do(ctx, r.policy.backoff(), func(ctx context.Context) error {
		attempts++
		var callErr error
		result, callErr = r.client.Search(ctx, r.index, body, r.pageSize)
		if callErr != nil {
			if errors.Is(callErr, store.ErrBadQuery) {
				return callErr
			}
			r.log.Warn("search attempt failed", "attempt", attempts, "err", callErr)
			return retry.RetryableError(callErr)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrBadQuery) {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		return nil, fmt.Errorf("%w: after %d attempts: %v", ErrStoreUnavailable, attempts, err)
	}

	docs := make([]Document, 0, len(result.Hits))
	for _, hit := range result.Hits {
		docs = append(docs, documentFromHit(hit))
	}
	r.log.Debug("retrieval finished", "documents", len(docs), "total", result.Total, "attempts", attempts)
	return docs, nil
}

// buildQueryBody renders the lexical query: an OR match over the product
// description (boosted) and the customs office, with optional structured
// filters, sorted by relevance then recency.
func buildQueryBody(q Query) (string, error) {
	should := []map[string]any{
		{"match": map[string]any{"product_description": map[string]any{"query": q.Question, "boost": 2.0}}},
		{"match": map[string]any{"customs_office": map[string]any{"query": q.Question}}},
	}

	boolQuery := map[string]any{
		"should":               should,
		"minimum_should_match": 1,
	}

	var filters []map[string]any
	if q.Office != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"customs_office.raw": q.Office}})
	}
	if q.Year > 0 {
		filters = append(filters, map[string]any{"range": map[string]any{"processing_date": map[string]any{
			"gte": fmt.Sprintf("%d-01-01", q.Year),
			"lte": fmt.Sprintf("%d-12-31", q.Year),
		}}})
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	body := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"sort": []any{
			map[string]any{"_score": map[string]any{"order": "desc"}},
			map[string]any{"processing_date": map[string]any{"order": "desc", "unmapped_type": "date"}},
		},
	}

	out, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// documentFromHit normalizes one raw hit. The description becomes the
// document content; every metadata key is present, defaulting to Unknown.
func documentFromHit(hit store.Hit) Document {
	content := metaString(hit.Source["product_description"])
	if content == Unknown {
		content = ""
	}

	meta := make(map[string]string, len(MetadataKeys))
	for _, key := range MetadataKeys {
		meta[key] = metaString(hit.Source[key])
	}

	score := hit.Score
	if score < 0 {
		score = 0
	}
	return Document{Content: content, Metadata: meta, Score: score}
}

func metaString(v any) string {
	switch t := v.(type) {
	case nil:
		return Unknown
	case string:
		if t == "" {
			return Unknown
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
