package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
)

var (
	ErrFlagNotFound   = errors.New("flag_not_found")
	ErrInvalidFlagKey = errors.New("invalid_flag_key")
	ErrTenantRequired = errors.New("tenant_required")
	ErrNoFlagKeys     = errors.New("no_flag_keys")
)

// ContextRequest is the wire shape of an evaluation context. Attribute
// values arrive as arbitrary JSON; coercion into engine values happens
// in the engine, and unsupported shapes are treated as absent.
type ContextRequest struct {
	IdentityKey string         `json:"identity_key"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

type EvaluateRequest struct {
	FlagKey string         `json:"flag_key"`
	Context ContextRequest `json:"context"`
}

type BulkEvaluateRequest struct {
	FlagKeys []string       `json:"flag_keys" binding:"required"`
	Context  ContextRequest `json:"context"`
}

type Service interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (*engine.Result, error)
	BulkEvaluate(ctx context.Context, req BulkEvaluateRequest) ([]engine.Result, error)
}
