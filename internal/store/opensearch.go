package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"customsagent/internal/config"
)

// OpenSearch implements Client against an OpenSearch cluster.
type OpenSearch struct {
	client  *opensearch.Client
	timeout time.Duration
	log     *log.Logger
}

func NewOpenSearch(cfg config.StoreConfig, logger *log.Logger) (*OpenSearch, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating opensearch client: %w", err)
	}
	return &OpenSearch{
		client:  client,
		timeout: cfg.Timeout,
		log:     logger.With("component", "store"),
	}, nil
}

func (s *OpenSearch) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Ping verifies the cluster is reachable.
func (s *OpenSearch) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("could not connect to opensearch: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("opensearch ping returned status %d", resp.StatusCode)
	}
	return nil
}

// IndexExists reports whether the named index exists.
func (s *OpenSearch) IndexExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Indices.Exists([]string{name}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("checking index %q: %w", name, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("checking index %q: status %d", name, resp.StatusCode)
	}
}

// Search executes the query body against the index, bounded by size.
// A 4xx response surfaces as ErrBadQuery; other failures are treated as
// transient by callers.
func (s *OpenSearch) Search(ctx context.Context, index, body string, size int) (*Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(strings.NewReader(body)),
		s.client.Search.WithSize(size),
		s.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", index, err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		detail := readErrorBody(resp)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("%w: status %d: %s", ErrBadQuery, resp.StatusCode, detail)
		}
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, detail)
	}

	result, err := decodeSearchResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	s.log.Debug("search finished", "index", index, "hits", len(result.Hits), "total", result.Total)
	return result, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64        `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeSearchResult(r io.Reader) (*Result, error) {
	var body searchResponse
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, err
	}
	out := &Result{Total: body.Hits.Total.Value}
	for _, h := range body.Hits.Hits {
		out.Hits = append(out.Hits, Hit{Source: h.Source, Score: h.Score})
	}
	return out, nil
}

func readErrorBody(resp *opensearchapi.Response) string {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return strings.TrimSpace(string(msg))
}
