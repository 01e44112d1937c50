package ingestion

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"customsagent/internal/store"
)

// Loader bulk-loads parsed declarations into the index.
type Loader struct {
	store *store.OpenSearch
	index string
	log   *log.Logger
}

func NewLoader(s *store.OpenSearch, index string, logger *log.Logger) *Loader {
	return &Loader{
		store: s,
		index: index,
		log:   logger.With("component", "ingestion"),
	}
}

// Load parses each file and appends its records to the index. A file that
// fails to parse is skipped; the run fails only when every file failed.
func (l *Loader) Load(ctx context.Context, paths []string) (int, error) {
	if _, err := l.store.EnsureIndex(ctx, l.index); err != nil {
		return 0, err
	}

	total := 0
	failed := 0
	for _, path := range paths {
		records, err := ParseFile(path)
		if err != nil {
			l.log.Warn("skipping file", "path", path, "err", err)
			failed++
			continue
		}

		docs := make([]map[string]any, len(records))
		for i, rec := range records {
			docs[i] = map[string]any(rec)
		}
		indexed, err := l.store.BulkIndex(ctx, l.index, docs)
		if err != nil {
			l.log.Warn("bulk load failed", "path", path, "err", err)
			failed++
			continue
		}
		l.log.Info("file loaded", "path", path, "records", indexed)
		total += indexed
	}

	if failed == len(paths) && len(paths) > 0 {
		return 0, fmt.Errorf("all %d input files failed to load", len(paths))
	}
	return total, nil
}
