package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkIndex writes the documents into the index in one bulk request and
// returns the number of documents accepted. Per-document failures are
// logged and skipped; a failed request as a whole is an error.
func (s *OpenSearch) BulkIndex(ctx context.Context, index string, docs []map[string]any) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		buf.WriteString(`{"index":{}}` + "\n")
		line, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("encoding document: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.client.Bulk(
		&buf,
		s.client.Bulk.WithContext(cctx),
		s.client.Bulk.WithIndex(index),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk indexing into %q: %w", index, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return 0, fmt.Errorf("bulk request returned status %d: %s", resp.StatusCode, readErrorBody(resp))
	}

	var body bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding bulk response: %w", err)
	}

	indexed := len(docs)
	if body.Errors {
		for _, item := range body.Items {
			for _, op := range item {
				if op.Error != nil {
					indexed--
					s.log.Warn("document rejected", "status", op.Status, "type", op.Error.Type, "reason", op.Error.Reason)
				}
			}
		}
	}

	if err := s.refresh(ctx, index); err != nil {
		s.log.Warn("index refresh failed", "index", index, "err", err)
	}
	return indexed, nil
}

func (s *OpenSearch) refresh(ctx context.Context, index string) error {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.client.Indices.Refresh(
		s.client.Indices.Refresh.WithContext(cctx),
		s.client.Indices.Refresh.WithIndex(index),
	)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
