package migration

import (
	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		if conn.Dialector.Name() != "postgres" {
			// Non-postgres deployments (sqlite dev mode) fall back to
			// schema sync; the SQL migrations are postgres-dialect.
			return conn.AutoMigrate(
				&ledgerdomain.UserLedger{},
				&ledgerdomain.ChargeEvent{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
