package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// indexMapping is the fixed schema for customs declarations. The ingestion
// pipeline writes exactly these fields; the retriever searches
// product_description and customs_office.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "declaration_number":  {"type": "keyword"},
      "processing_date":     {"type": "date", "format": "yyyy-MM-dd"},
      "customs_office":      {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "product_code":        {"type": "keyword"},
      "product_description": {"type": "text"},
      "net_weight":          {"type": "float"},
      "gross_weight":        {"type": "float"},
      "quantity":            {"type": "float"},
      "unit":                {"type": "keyword"},
      "invoice_value":       {"type": "float"},
      "origin_country":      {"type": "keyword"},
      "trade_mark":          {"type": "keyword"}
    }
  }
}`

// expectedFieldTypes is the mapping drift baseline, derived from indexMapping.
var expectedFieldTypes = map[string]string{
	"declaration_number":  "keyword",
	"processing_date":     "date",
	"customs_office":      "text",
	"product_code":        "keyword",
	"product_description": "text",
	"net_weight":          "float",
	"gross_weight":        "float",
	"quantity":            "float",
	"unit":                "keyword",
	"invoice_value":       "float",
	"origin_country":      "keyword",
	"trade_mark":          "keyword",
}

// EnsureIndex creates the index with the fixed mapping when it is absent.
// It reports whether the index was created.
func (s *OpenSearch) EnsureIndex(ctx context.Context, name string) (bool, error) {
	exists, err := s.IndexExists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.client.Indices.Create(
		name,
		s.client.Indices.Create.WithContext(cctx),
		s.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return false, fmt.Errorf("creating index %q: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return false, fmt.Errorf("creating index %q: status %d: %s", name, resp.StatusCode, readErrorBody(resp))
	}
	s.log.Info("index created", "index", name)
	return true, nil
}

// RecreateIndex drops the index if present and creates it fresh. All
// documents are lost; callers re-ingest afterwards.
func (s *OpenSearch) RecreateIndex(ctx context.Context, name string) error {
	exists, err := s.IndexExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		cctx, cancel := s.withTimeout(ctx)
		resp, err := s.client.Indices.Delete([]string{name}, s.client.Indices.Delete.WithContext(cctx))
		cancel()
		if err != nil {
			return fmt.Errorf("deleting index %q: %w", name, err)
		}
		resp.Body.Close()
		if resp.IsError() {
			return fmt.Errorf("deleting index %q: status %d", name, resp.StatusCode)
		}
		s.log.Info("index deleted", "index", name)
	}
	if _, err := s.EnsureIndex(ctx, name); err != nil {
		return err
	}
	return nil
}

// MappingDrift compares the live mapping with the expected schema and
// returns one human-readable line per divergence. An empty slice means the
// index matches.
func (s *OpenSearch) MappingDrift(ctx context.Context, name string) ([]string, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Indices.GetMapping(
		s.client.Indices.GetMapping.WithContext(cctx),
		s.client.Indices.GetMapping.WithIndex(name),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching mapping for %q: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("fetching mapping for %q: status %d", name, resp.StatusCode)
	}

	var raw map[string]struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding mapping response: %w", err)
	}

	live := map[string]string{}
	for _, idx := range raw {
		for field, prop := range idx.Mappings.Properties {
			live[field] = prop.Type
		}
	}
	return driftBetween(expectedFieldTypes, live), nil
}

func driftBetween(want, got map[string]string) []string {
	var drift []string
	for field, typ := range want {
		liveType, ok := got[field]
		switch {
		case !ok:
			drift = append(drift, fmt.Sprintf("missing field %q (want %s)", field, typ))
		case liveType != typ:
			drift = append(drift, fmt.Sprintf("field %q has type %s, want %s", field, liveType, typ))
		}
	}
	for field, typ := range got {
		if _, ok := want[field]; !ok {
			drift = append(drift, fmt.Sprintf("unexpected field %q of type %s", field, typ))
		}
	}
	sort.Strings(drift)
	return drift
}
