package store

import (
	"context"

	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
)

// SnapshotStore caches the evaluation view of a flag (the engine.Flag
// with its active rule set) per tenant. Evaluation reads through it;
// the flag service invalidates entries whenever a flag or its current
// version changes.
type SnapshotStore interface {
	Get(ctx context.Context, tenantID int64, flagKey string) (*engine.Flag, bool, error)
	Set(ctx context.Context, tenantID int64, flagKey string, flag *engine.Flag) error
	Invalidate(ctx context.Context, tenantID int64, flagKey string) error
}
