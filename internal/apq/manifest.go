package apq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/tinnou/router/internal/core/ports"
)

// ManifestFormat is the format marker of an Apollo persisted query manifest.
const ManifestFormat = "apollo-persisted-query-manifest"

// ManifestOperation is one entry of a persisted query manifest.
type ManifestOperation struct {
	Hash  string `json:"id"`
	Query string `json:"body"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

// Manifest is an Apollo persisted query manifest.
type Manifest struct {
	Format     string              `json:"format"`
	Version    int                 `json:"version"`
	Operations []ManifestOperation `json:"operations"`
}

// ManifestStats reports what LoadManifest did.
type ManifestStats struct {
	Loaded  int
	Skipped int
}

// LoadManifest registers every manifest operation whose id is the hash of its
// body. Entries failing verification are skipped and logged, never stored.
func LoadManifest(ctx context.Context, r io.Reader, store ports.QueryStore, logger *slog.Logger) (ManifestStats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return ManifestStats{}, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Format != "" && m.Format != ManifestFormat {
		return ManifestStats{}, fmt.Errorf("unsupported manifest format %q", m.Format)
	}
	if m.Version != 0 && m.Version != 1 {
		return ManifestStats{}, fmt.Errorf("unsupported manifest version %d", m.Version)
	}

	var stats ManifestStats
	for _, op := range m.Operations {
		if op.Query == "" || !Verify(op.Query, op.Hash) {
			stats.Skipped++
			logger.Warn("skipping manifest operation with mismatched hash",
				slog.String("id", op.Hash),
				slog.String("name", op.Name))
			continue
		}

		if err := store.Put(ctx, op.Hash, op.Query); err != nil {
			return stats, fmt.Errorf("store manifest operation %s: %w", op.Hash, err)
		}
		stats.Loaded++
	}

	return stats, nil
}
