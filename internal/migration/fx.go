package migration

import (
	auditdomain "github.com/smallbiznis/flaghub/internal/audit/domain"
	"github.com/smallbiznis/flaghub/internal/config"
	flagdomain "github.com/smallbiznis/flaghub/internal/flag/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// The versioned migrations target PostgreSQL. MySQL and SQLite
		// deployments get the schema via AutoMigrate instead.
		return conn.AutoMigrate(
			&flagdomain.FeatureFlag{},
			&flagdomain.FlagVersion{},
			&auditdomain.AuditLog{},
		)
	}),
)
