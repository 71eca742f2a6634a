// SPDX-License-Identifier: Apache-2.0

package migrator

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	pgmigrations "github.com/xataio/samplekit/migrations/postgres"
)

type Migrator struct {
	migrate   *migrate.Migrate
	tableName string
	count     uint
}

type MigrationStatus struct {
	TableName              string
	Version                uint
	Dirty                  bool
	ExpectedMigrationCount uint
}

const migrationsTable = "schema_migrations"

var (
	ErrNoChange    = errors.New("no change")
	ErrNoMigration = errors.New("no migration found")
)

// NewPGMigrator returns a migrator for the sink schema migrations. The
// migrations table lives in the schema on input, which must already exist.
func NewPGMigrator(pgURL, schema string) (*Migrator, error) {
	return newPGMigrator(pgURL, schema, pgmigrations.FS)
}

func newPGMigrator(pgURL, schema string, migrations fs.FS) (*Migrator, error) {
	count, err := countMigrations(migrations)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrationsURL(pgURL, schema))
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}

	return &Migrator{
		migrate:   m,
		tableName: schema + "." + migrationsTable,
		count:     count,
	}, nil
}

// Up applies all the pending migrations.
func (m *Migrator) Up() error {
	return mapError(m.migrate.Up())
}

// Down reverts all the applied migrations.
func (m *Migrator) Down() error {
	return mapError(m.migrate.Down())
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

func (m *Migrator) Status() (*MigrationStatus, error) {
	status := &MigrationStatus{
		TableName:              m.tableName,
		ExpectedMigrationCount: m.count,
	}

	version, dirty, err := m.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return status, nil
		}
		return nil, fmt.Errorf("getting migration version: %w", mapError(err))
	}

	status.Version = version
	status.Dirty = dirty
	return status, nil
}

// migrationsURL points the migrations table to the schema on input, quoted so
// that it doesn't depend on the search path.
func migrationsURL(pgURL, schema string) string {
	sep := "?"
	if strings.Contains(pgURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf(`%s%sx-migrations-table=%%22%s%%22.%%22%s%%22&x-migrations-table-quoted=1`, pgURL, sep, schema, migrationsTable)
}

func countMigrations(migrations fs.FS) (uint, error) {
	ups, err := fs.Glob(migrations, "*.up.sql")
	if err != nil {
		return 0, fmt.Errorf("listing migrations: %w", err)
	}
	return uint(len(ups)), nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, migrate.ErrNilVersion):
		return ErrNoMigration
	case errors.Is(err, migrate.ErrNoChange):
		return ErrNoChange
	default:
		return err
	}
}
