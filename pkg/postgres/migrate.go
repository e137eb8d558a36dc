package postgres

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

// RunMigrations applies all pending migrations from the given filesystem
// against the database identified by dsn. Already-applied migrations are a
// no-op, so this is safe to run on every startup.
func RunMigrations(migrations fs.FS, dsn string) error {
	const op = "postgres.RunMigrations"

	src, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("%s: failed to read migrations: %w", op, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return nil
}
