package store

import (
	"context"
	"strings"
)

// New creates a postgres-backed store when a database URL is configured,
// otherwise a local flat-file store rooted at dataDir.
func New(ctx context.Context, databaseURL, dataDir string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewLocalStore(dataDir)
	}
	return NewPostgresStore(ctx, databaseURL)
}
