package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	customerdomain "github.com/smallbiznis/servicebay/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/servicebay/internal/invoice/domain"
	jobpartdomain "github.com/smallbiznis/servicebay/internal/jobpart/domain"
	mechanicdomain "github.com/smallbiznis/servicebay/internal/mechanic/domain"
	servicejobdomain "github.com/smallbiznis/servicebay/internal/servicejob/domain"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
	vehicledomain "github.com/smallbiznis/servicebay/internal/vehicle/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	src, err := Source()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Source exposes the embedded migration files to golang-migrate.
func Source() (source.Driver, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	driver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return driver, nil
}

// Models lists every persisted table model in dependency order.
func Models() []any {
	return []any{
		&customerdomain.Customer{},
		&vehicledomain.Vehicle{},
		&mechanicdomain.Mechanic{},
		&sparepartdomain.SparePart{},
		&servicejobdomain.ServiceJob{},
		&jobpartdomain.JobPart{},
		&invoicedomain.Invoice{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate creates the schema from the models. Used for sqlite and mysql.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
