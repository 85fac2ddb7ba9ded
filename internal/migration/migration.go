package migration

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	bookingdomain "github.com/hostfolio/payouts/internal/booking/domain"
	"github.com/hostfolio/payouts/internal/config"
	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	notificationdomain "github.com/hostfolio/payouts/internal/notification/domain"
	scheduledomain "github.com/hostfolio/payouts/internal/schedule/domain"
	statementdomain "github.com/hostfolio/payouts/internal/statement/domain"
)

//go:embed sql/*.sql
var migrations embed.FS

// Run applies schema migrations. Postgres goes through versioned SQL files;
// sqlite, used for local development and tests, relies on AutoMigrate since
// the migration files carry postgres-only DDL.
func Run(cfg config.Config, conn *gorm.DB, log *zap.Logger) error {
	if cfg.DBType != "postgres" {
		return autoMigrate(conn)
	}

	src, err := iofs.New(migrations, "sql")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(cfg.DBUser),
		url.QueryEscape(cfg.DBPassword),
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info("migration.applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&listingdomain.Listing{},
		&listingdomain.ListingGroup{},
		&bookingdomain.Reservation{},
		&bookingdomain.Expense{},
		&scheduledomain.Schedule{},
		&statementdomain.Statement{},
		&notificationdomain.Notification{},
	)
}
