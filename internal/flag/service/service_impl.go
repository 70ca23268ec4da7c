package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
	"github.com/smallbiznis/flaghub/internal/evaluation/store"
	"github.com/smallbiznis/flaghub/internal/flag/domain"
	"github.com/smallbiznis/flaghub/pkg/db"
	"github.com/smallbiznis/flaghub/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Flag keys end up in URLs, SDK calls and bucketing inputs, so the
// charset is deliberately narrow.
var flagKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,127}$`)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Snapshots store.SnapshotStore
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	genID     *snowflake.Node
	snapshots store.SnapshotStore
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("flag.service"),
		repo:      p.Repo,
		genID:     p.GenID,
		snapshots: p.Snapshots,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateFlagRequest) (*domain.FeatureFlag, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}

	key := strings.TrimSpace(req.Key)
	if !flagKeyPattern.MatchString(key) {
		return nil, domain.ErrInvalidFlagKey
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = key
	}

	description := strings.TrimSpace(ptrToString(req.Description))
	var descriptionPtr *string
	if description != "" {
		descriptionPtr = &description
	}

	now := time.Now().UTC()
	record := &domain.FeatureFlag{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		Key:         key,
		Name:        name,
		Description: descriptionPtr,
		Enabled:     req.Enabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Metadata != nil {
		record.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Create(ctx, s.db, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrFlagKeyExists
		}
		return nil, err
	}

	s.log.Info("flag created",
		zap.String("flag_id", record.ID.String()),
		zap.String("key", record.Key),
		zap.Bool("enabled", record.Enabled),
	)
	return record, nil
}

func (s *Service) List(ctx context.Context, req domain.ListFlagsRequest) ([]domain.FeatureFlag, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}

	pageSize := req.PageSize
	if pageSize < 0 {
		pageSize = 0
	}
	if pageSize > 250 {
		pageSize = 250
	}

	filter := domain.ListFilter{
		Key:      strings.TrimSpace(req.Key),
		Enabled:  req.Enabled,
		Archived: req.Archived,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
		Limit:    pageSize,
	}
	return s.repo.List(ctx, s.db, tenantID.Int64(), filter)
}

func (s *Service) Get(ctx context.Context, key string) (*domain.FeatureFlag, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}
	return s.findFlag(ctx, tenantID, key)
}

func (s *Service) Update(ctx context.Context, key string, req domain.UpdateFlagRequest) (*domain.FeatureFlag, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}

	item, err := s.findFlag(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	if item.Archived {
		return nil, domain.ErrFlagArchived
	}

	if req.Name == nil && req.Description == nil && req.Enabled == nil && req.Metadata == nil {
		return nil, domain.ErrNothingToUpdate
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidFlagKey
		}
		item.Name = name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			item.Description = nil
		} else {
			item.Description = &description
		}
	}
	if req.Enabled != nil {
		item.Enabled = *req.Enabled
	}
	if req.Metadata != nil {
		item.Metadata = datatypes.JSONMap(req.Metadata)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, tenantID, item.Key)
	return item, nil
}

func (s *Service) Archive(ctx context.Context, key string) (*domain.FeatureFlag, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}

	item, err := s.findFlag(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	if item.Archived {
		return item, nil
	}

	item.Archived = true
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, tenantID, item.Key)
	s.log.Info("flag archived", zap.String("flag_id", item.ID.String()), zap.String("key", item.Key))
	return item, nil
}

// PublishVersion validates the submitted rule set, stores it as the next
// immutable version and repoints current_version_id at it. Invalid rules
// are rejected here so evaluation never has to deal with them.
func (s *Service) PublishVersion(ctx context.Context, key string, req domain.PublishVersionRequest) (*domain.FlagVersion, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}

	item, err := s.findFlag(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	if item.Archived {
		return nil, domain.ErrFlagArchived
	}

	rules := req.Rules
	if rules == nil {
		rules = []engine.TargetingRule{}
	}
	seen := make(map[string]bool, len(rules))
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = s.genID.Generate().String()
		}
		if seen[rules[i].ID] {
			return nil, domain.ErrInvalidRules
		}
		seen[rules[i].ID] = true
		if err := rules[i].Validate(); err != nil {
			return nil, domain.ErrInvalidRules
		}
	}

	encoded, err := domain.EncodeRules(rules)
	if err != nil {
		return nil, domain.ErrInvalidRules
	}

	var version *domain.FlagVersion
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.MaxVersion(ctx, tx, tenantID.Int64(), item.ID.Int64())
		if err != nil {
			return err
		}

		version = &domain.FlagVersion{
			ID:        s.genID.Generate(),
			TenantID:  tenantID,
			FlagID:    item.ID,
			Version:   current + 1,
			Rules:     encoded,
			CreatedBy: req.CreatedBy,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.InsertVersion(ctx, tx, version); err != nil {
			return err
		}

		item.CurrentVersionID = &version.ID
		item.UpdatedAt = version.CreatedAt
		return s.repo.Update(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, tenantID, item.Key)
	s.log.Info("flag version published",
		zap.String("flag_id", item.ID.String()),
		zap.String("key", item.Key),
		zap.Int("version", version.Version),
		zap.Int("rules", len(rules)),
	)
	return version, nil
}

func (s *Service) ListVersions(ctx context.Context, key string) ([]domain.FlagVersion, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}

	item, err := s.findFlag(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, s.db, tenantID.Int64(), item.ID.Int64())
}

func (s *Service) GetVersion(ctx context.Context, key string, number int) (*domain.FlagVersion, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}

	item, err := s.findFlag(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}

	version, err := s.repo.FindVersion(ctx, s.db, tenantID.Int64(), item.ID.Int64(), number)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, domain.ErrVersionNotFound
	}
	return version, nil
}

func (s *Service) findFlag(ctx context.Context, tenantID snowflake.ID, key string) (*domain.FeatureFlag, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrInvalidFlagKey
	}

	item, err := s.repo.FindByKey(ctx, s.db, tenantID.Int64(), key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrFlagNotFound
	}
	return item, nil
}

func (s *Service) invalidateSnapshot(ctx context.Context, tenantID snowflake.ID, key string) {
	if err := s.snapshots.Invalidate(ctx, tenantID.Int64(), key); err != nil {
		s.log.Warn("snapshot invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
