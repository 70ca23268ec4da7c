package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/flaghub/internal/evaluation/domain"
	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
	"github.com/smallbiznis/flaghub/internal/evaluation/store"
	flagdomain "github.com/smallbiznis/flaghub/internal/flag/domain"
	"github.com/smallbiznis/flaghub/pkg/telemetry"
	"github.com/smallbiznis/flaghub/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Flags     flagdomain.Repository
	Snapshots store.SnapshotStore
	Metrics   *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	flags     flagdomain.Repository
	snapshots store.SnapshotStore
	metrics   *telemetry.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("evaluation.service"),
		flags:     p.Flags,
		snapshots: p.Snapshots,
		metrics:   p.Metrics,
	}
}

func (s *Service) Evaluate(ctx context.Context, req domain.EvaluateRequest) (*engine.Result, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}

	flagKey := strings.TrimSpace(req.FlagKey)
	if flagKey == "" {
		return nil, domain.ErrInvalidFlagKey
	}

	flag, err := s.loadFlag(ctx, tenantID.Int64(), flagKey)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ec := engine.NewContext(req.Context.IdentityKey, req.Context.Attributes)
	result := engine.Evaluate(*flag, ec)
	s.observe(tenantID.String(), flagKey, result, time.Since(start))

	return &result, nil
}

// BulkEvaluate evaluates several flags against one context. Unknown
// flags are skipped rather than failing the whole batch; SDK boot
// screens ask for everything they know about, stale keys included.
func (s *Service) BulkEvaluate(ctx context.Context, req domain.BulkEvaluateRequest) ([]engine.Result, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrTenantRequired
	}
	if len(req.FlagKeys) == 0 {
		return nil, domain.ErrNoFlagKeys
	}

	ec := engine.NewContext(req.Context.IdentityKey, req.Context.Attributes)

	results := make([]engine.Result, 0, len(req.FlagKeys))
	for _, key := range req.FlagKeys {
		flagKey := strings.TrimSpace(key)
		if flagKey == "" {
			continue
		}

		flag, err := s.loadFlag(ctx, tenantID.Int64(), flagKey)
		if err != nil {
			if errors.Is(err, domain.ErrFlagNotFound) {
				continue
			}
			return nil, err
		}

		start := time.Now()
		result := engine.Evaluate(*flag, ec)
		s.observe(tenantID.String(), flagKey, result, time.Since(start))
		results = append(results, result)
	}

	return results, nil
}

// loadFlag reads through the snapshot store to the database. Archived
// flags are invisible to evaluation.
func (s *Service) loadFlag(ctx context.Context, tenantID int64, flagKey string) (*engine.Flag, error) {
	cached, hit, err := s.snapshots.Get(ctx, tenantID, flagKey)
	if err != nil {
		s.log.Warn("snapshot read failed", zap.String("flag_key", flagKey), zap.Error(err))
	}
	s.metrics.ObserveSnapshotLookup(hit)
	if hit {
		return cached, nil
	}

	record, err := s.flags.FindByKey(ctx, s.db, tenantID, flagKey)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Archived {
		return nil, domain.ErrFlagNotFound
	}

	versions, err := s.flags.ListVersions(ctx, s.db, tenantID, record.ID.Int64())
	if err != nil {
		return nil, err
	}

	flag := &engine.Flag{
		Key:     record.Key,
		Enabled: record.Enabled,
	}
	if record.CurrentVersionID != nil {
		flag.CurrentVersionID = record.CurrentVersionID.String()
	}
	for _, v := range versions {
		rules, err := v.TargetingRules()
		if err != nil {
			return nil, err
		}
		flag.Versions = append(flag.Versions, engine.Version{
			ID:     v.ID.String(),
			Number: v.Version,
			Rules:  rules,
		})
	}

	if err := s.snapshots.Set(ctx, tenantID, flagKey, flag); err != nil {
		s.log.Warn("snapshot write failed", zap.String("flag_key", flagKey), zap.Error(err))
	}
	return flag, nil
}

func (s *Service) observe(tenant, flagKey string, result engine.Result, elapsed time.Duration) {
	decision := "false"
	if result.Decision {
		decision = "true"
	}
	s.metrics.ObserveEvaluation(string(result.Reason), decision, tenant, elapsed)

	if result.VersionFallback {
		s.metrics.ObserveVersionFallback(tenant, flagKey)
		s.log.Warn("current version missing, fell back to highest version",
			zap.String("flag_key", flagKey),
			zap.Int("resolved_version", result.FlagVersion),
		)
	}
}
