package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/flaghub/internal/flag/domain"
	"github.com/smallbiznis/flaghub/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, flag *domain.FeatureFlag) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO feature_flags (
			id, tenant_id, flag_key, name, description, enabled, archived, current_version_id, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		flag.ID,
		flag.TenantID,
		flag.Key,
		flag.Name,
		flag.Description,
		flag.Enabled,
		flag.Archived,
		flag.CurrentVersionID,
		flag.Metadata,
		flag.CreatedAt,
		flag.UpdatedAt,
	).Error
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, tenantID int64, key string) (*domain.FeatureFlag, error) {
	var f domain.FeatureFlag
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, flag_key, name, description, enabled, archived, current_version_id, metadata, created_at, updated_at
		 FROM feature_flags WHERE tenant_id = ? AND flag_key = ?`,
		tenantID,
		key,
	).Scan(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, nil
	}
	return &f, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID int64, filter domain.ListFilter) ([]domain.FeatureFlag, error) {
	var items []domain.FeatureFlag
	stmt := db.WithContext(ctx).
		Model(&domain.FeatureFlag{}).
		Where("tenant_id = ?", tenantID)

	if filter.Key != "" {
		stmt = stmt.Where("flag_key = ?", filter.Key)
	}
	if filter.Enabled != nil {
		stmt = stmt.Where("enabled = ?", *filter.Enabled)
	}
	if filter.Archived != nil {
		stmt = stmt.Where("archived = ?", *filter.Archived)
	}

	// Callers sort by the API field name "key"; the column is flag_key.
	sortColumn := filter.SortBy
	if sortColumn == "key" {
		sortColumn = "flag_key"
	}
	stmt = option.WithSortBy(option.WithQuerySortBy(sortColumn, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"flag_key":   true,
		"name":       true,
	})).Apply(stmt)

	if filter.Limit > 0 {
		stmt = option.WithLimit(filter.Limit).Apply(stmt)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, flag *domain.FeatureFlag) error {
	if flag == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE feature_flags
		 SET name = ?, description = ?, enabled = ?, archived = ?, current_version_id = ?, metadata = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		flag.Name,
		flag.Description,
		flag.Enabled,
		flag.Archived,
		flag.CurrentVersionID,
		flag.Metadata,
		flag.UpdatedAt,
		flag.TenantID,
		flag.ID,
	).Error
}

func (r *repo) InsertVersion(ctx context.Context, db *gorm.DB, version *domain.FlagVersion) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO flag_versions (
			id, tenant_id, flag_id, version, rules, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		version.ID,
		version.TenantID,
		version.FlagID,
		version.Version,
		version.Rules,
		version.CreatedBy,
		version.CreatedAt,
	).Error
}

func (r *repo) ListVersions(ctx context.Context, db *gorm.DB, tenantID, flagID int64) ([]domain.FlagVersion, error) {
	var items []domain.FlagVersion
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, flag_id, version, rules, created_by, created_at
		 FROM flag_versions WHERE tenant_id = ? AND flag_id = ?
		 ORDER BY version DESC`,
		tenantID,
		flagID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindVersion(ctx context.Context, db *gorm.DB, tenantID, flagID int64, number int) (*domain.FlagVersion, error) {
	var v domain.FlagVersion
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, flag_id, version, rules, created_by, created_at
		 FROM flag_versions WHERE tenant_id = ? AND flag_id = ? AND version = ?`,
		tenantID,
		flagID,
		number,
	).Scan(&v).Error
	if err != nil {
		return nil, err
	}
	if v.ID == 0 {
		return nil, nil
	}
	return &v, nil
}

func (r *repo) MaxVersion(ctx context.Context, db *gorm.DB, tenantID, flagID int64) (int, error) {
	var highest *int
	err := db.WithContext(ctx).Raw(
		`SELECT MAX(version) FROM flag_versions WHERE tenant_id = ? AND flag_id = ?`,
		tenantID,
		flagID,
	).Scan(&highest).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if highest == nil {
		return 0, nil
	}
	return *highest, nil
}
