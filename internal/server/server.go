package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/flaghub/internal/audit"
	auditdomain "github.com/smallbiznis/flaghub/internal/audit/domain"
	"github.com/smallbiznis/flaghub/internal/config"
	"github.com/smallbiznis/flaghub/internal/evaluation"
	evaldomain "github.com/smallbiznis/flaghub/internal/evaluation/domain"
	"github.com/smallbiznis/flaghub/internal/flag"
	flagdomain "github.com/smallbiznis/flaghub/internal/flag/domain"
	"github.com/smallbiznis/flaghub/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	flag.Module,
	evaluation.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, metrics *telemetry.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationMiddleware())
	r.Use(TracingMiddleware())
	r.Use(MetricsMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, metrics *telemetry.Metrics) *gin.Engine {
	return NewEngine(cfg, metrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	db       *gorm.DB
	genID    *snowflake.Node
	flagSvc  flagdomain.Service
	evalSvc  evaldomain.Service
	auditSvc auditdomain.Service
	metrics  *telemetry.Metrics
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	DB       *gorm.DB
	GenID    *snowflake.Node
	FlagSvc  flagdomain.Service
	EvalSvc  evaldomain.Service
	AuditSvc auditdomain.Service
	Metrics  *telemetry.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		db:       p.DB,
		genID:    p.GenID,
		flagSvc:  p.FlagSvc,
		evalSvc:  p.EvalSvc,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", s.TenantContext())

	// -------- Flags --------
	api.GET("/flags", s.ListFlags)
	api.POST("/flags", s.CreateFlag)
	api.GET("/flags/:key", s.GetFlag)
	api.PATCH("/flags/:key", s.UpdateFlag)
	api.POST("/flags/:key/archive", s.ArchiveFlag)

	// -------- Versions --------
	api.POST("/flags/:key/versions", s.PublishFlagVersion)
	api.GET("/flags/:key/versions", s.ListFlagVersions)
	api.GET("/flags/:key/versions/:version", s.GetFlagVersion)

	// -------- Evaluation --------
	api.POST("/flags/:key/evaluate", s.EvaluateFlag)
	api.POST("/evaluate", s.EvaluateFlag)
	api.POST("/evaluate/bulk", s.BulkEvaluateFlags)

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)
}
