package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	Key      string
	Enabled  *bool
	Archived *bool
	SortBy   string
	OrderBy  string
	Limit    int
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, flag *FeatureFlag) error
	FindByKey(ctx context.Context, db *gorm.DB, tenantID int64, key string) (*FeatureFlag, error)
	List(ctx context.Context, db *gorm.DB, tenantID int64, filter ListFilter) ([]FeatureFlag, error)
	Update(ctx context.Context, db *gorm.DB, flag *FeatureFlag) error

	InsertVersion(ctx context.Context, db *gorm.DB, version *FlagVersion) error
	ListVersions(ctx context.Context, db *gorm.DB, tenantID, flagID int64) ([]FlagVersion, error)
	FindVersion(ctx context.Context, db *gorm.DB, tenantID, flagID int64, number int) (*FlagVersion, error)
	MaxVersion(ctx context.Context, db *gorm.DB, tenantID, flagID int64) (int, error)
}
