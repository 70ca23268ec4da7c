package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
)

var (
	ErrFlagNotFound    = errors.New("flag_not_found")
	ErrFlagKeyExists   = errors.New("flag_key_exists")
	ErrFlagArchived    = errors.New("flag_archived")
	ErrVersionNotFound = errors.New("version_not_found")
	ErrInvalidFlagKey  = errors.New("invalid_flag_key")
	ErrInvalidRules    = errors.New("invalid_rules")
	ErrTenantRequired  = errors.New("tenant_required")
	ErrNothingToUpdate = errors.New("nothing_to_update")
)

type CreateFlagRequest struct {
	Key         string         `json:"key" binding:"required"`
	Name        string         `json:"name" binding:"required"`
	Description *string        `json:"description,omitempty"`
	Enabled     bool           `json:"enabled"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type UpdateFlagRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type PublishVersionRequest struct {
	Rules     []engine.TargetingRule `json:"rules"`
	CreatedBy *string                `json:"created_by,omitempty"`
}

type ListFlagsRequest struct {
	Key      string `form:"key"`
	Enabled  *bool  `form:"enabled"`
	Archived *bool  `form:"archived"`
	SortBy   string `form:"sort_by,default=created_at"`
	OrderBy  string `form:"order_by,default=desc"`
	PageSize int    `form:"page_size"`
}

type Service interface {
	Create(ctx context.Context, req CreateFlagRequest) (*FeatureFlag, error)
	List(ctx context.Context, req ListFlagsRequest) ([]FeatureFlag, error)
	Get(ctx context.Context, key string) (*FeatureFlag, error)
	Update(ctx context.Context, key string, req UpdateFlagRequest) (*FeatureFlag, error)
	Archive(ctx context.Context, key string) (*FeatureFlag, error)

	PublishVersion(ctx context.Context, key string, req PublishVersionRequest) (*FlagVersion, error)
	ListVersions(ctx context.Context, key string) ([]FlagVersion, error)
	GetVersion(ctx context.Context, key string, number int) (*FlagVersion, error)
}
