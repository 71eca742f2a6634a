// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	migratorlib "github.com/xataio/samplekit/internal/migrator"
	pglib "github.com/xataio/samplekit/internal/postgres"
)

// InitStatus describes the state of the catalog schema in the database.
type InitStatus struct {
	SchemaExists     bool             `json:"schema_exists"`
	VocabularyExists bool             `json:"vocabulary_exists"`
	TopologyExists   bool             `json:"topology_exists"`
	Migration        *MigrationStatus `json:"migration,omitempty"`
	Errors           []string         `json:"errors,omitempty"`
}

type MigrationStatus struct {
	Version  uint `json:"version"`
	Expected uint `json:"expected"`
	Dirty    bool `json:"dirty"`
}

var ErrMissingPostgresURL = errors.New("postgres URL is required")

// Init creates the samplekit schema and applies the catalog migrations. It is
// a noop when the database is up to date.
func Init(ctx context.Context, pgURL string) error {
	if pgURL == "" {
		return ErrMissingPostgresURL
	}

	conn, err := pglib.NewConnPool(ctx, pgURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	// the migrations table is created under the schema
	if err := createSchema(ctx, conn); err != nil {
		return err
	}

	migrator, err := migratorlib.NewPGMigrator(pgURL, schemaName)
	if err != nil {
		return fmt.Errorf("error creating postgres migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migratorlib.ErrNoChange) {
		return fmt.Errorf("failed to run samplekit migrations: %w", err)
	}

	return nil
}

// Destroy reverts the catalog migrations and drops the samplekit schema,
// along with any stored catalog.
func Destroy(ctx context.Context, pgURL string) error {
	if pgURL == "" {
		return ErrMissingPostgresURL
	}

	conn, err := pglib.NewConnPool(ctx, pgURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	exists, err := schemaExists(ctx, conn)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	migrator, err := migratorlib.NewPGMigrator(pgURL, schemaName)
	if err != nil {
		return fmt.Errorf("error creating postgres migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Down(); err != nil && !errors.Is(err, migratorlib.ErrNoChange) && !errors.Is(err, migratorlib.ErrNoMigration) {
		return fmt.Errorf("failed to revert samplekit migrations: %w", err)
	}

	return dropSchema(ctx, conn)
}

// Status reports whether the catalog schema is initialised. Problems found are
// listed in the status errors, only connection failures are returned.
func Status(ctx context.Context, pgURL string) (*InitStatus, error) {
	if pgURL == "" {
		return nil, ErrMissingPostgresURL
	}

	conn, err := pglib.NewConnPool(ctx, pgURL)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	return initStatus(ctx, conn, func() (*migratorlib.MigrationStatus, error) {
		migrator, err := migratorlib.NewPGMigrator(pgURL, schemaName)
		if err != nil {
			return nil, err
		}
		defer migrator.Close()
		return migrator.Status()
	})
}

func initStatus(ctx context.Context, conn pglib.Querier, migrationStatus func() (*migratorlib.MigrationStatus, error)) (*InitStatus, error) {
	status := &InitStatus{}

	var err error
	status.SchemaExists, err = schemaExists(ctx, conn)
	if err != nil {
		return nil, err
	}
	if !status.SchemaExists {
		status.Errors = append(status.Errors, fmt.Sprintf("schema %s does not exist", schemaName))
		return status, nil
	}

	if status.VocabularyExists, err = tableExists(ctx, conn, vocabularyTable); err != nil {
		return nil, err
	}
	if !status.VocabularyExists {
		status.Errors = append(status.Errors, fmt.Sprintf("table %s.%s does not exist", schemaName, vocabularyTable))
	}

	if status.TopologyExists, err = tableExists(ctx, conn, topologyTable); err != nil {
		return nil, err
	}
	if !status.TopologyExists {
		status.Errors = append(status.Errors, fmt.Sprintf("table %s.%s does not exist", schemaName, topologyTable))
	}

	ms, err := migrationStatus()
	if err != nil {
		status.Errors = append(status.Errors, fmt.Sprintf("migration status: %v", err))
		return status, nil
	}
	status.Migration = &MigrationStatus{
		Version:  ms.Version,
		Expected: ms.ExpectedMigrationCount,
		Dirty:    ms.Dirty,
	}
	if ms.Dirty {
		status.Errors = append(status.Errors, fmt.Sprintf("migration version %d is dirty", ms.Version))
	}
	if ms.Version != ms.ExpectedMigrationCount {
		status.Errors = append(status.Errors, fmt.Sprintf("migration version %d, expected %d", ms.Version, ms.ExpectedMigrationCount))
	}

	return status, nil
}

func (s *InitStatus) IsInitialised() bool {
	return s != nil && len(s.Errors) == 0
}

func (s *InitStatus) PrettyPrint() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Schema %s exists: %t\n", schemaName, s.SchemaExists)
	fmt.Fprintf(&b, "Vocabulary table exists: %t\n", s.VocabularyExists)
	fmt.Fprintf(&b, "Topology table exists: %t\n", s.TopologyExists)
	if s.Migration != nil {
		fmt.Fprintf(&b, "Migration version: %d/%d (dirty: %t)\n", s.Migration.Version, s.Migration.Expected, s.Migration.Dirty)
	}
	if len(s.Errors) > 0 {
		fmt.Fprintf(&b, "Errors: %s", strings.Join(s.Errors, "; "))
	} else {
		b.WriteString("Errors: none")
	}
	return b.String()
}

func createSchema(ctx context.Context, conn pglib.Querier) error {
	if _, err := conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pglib.QuoteIdentifier(schemaName))); err != nil {
		return fmt.Errorf("failed to create samplekit schema: %w", err)
	}
	return nil
}

func dropSchema(ctx context.Context, conn pglib.Querier) error {
	if _, err := conn.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pglib.QuoteIdentifier(schemaName))); err != nil {
		return fmt.Errorf("failed to drop samplekit schema: %w", err)
	}
	return nil
}

func schemaExists(ctx context.Context, conn pglib.Querier) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, []any{&exists}, "SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)", schemaName)
	if err != nil {
		return false, fmt.Errorf("checking samplekit schema: %w", err)
	}
	return exists, nil
}

func tableExists(ctx context.Context, conn pglib.Querier, table string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, []any{&exists},
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)", schemaName, table)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return exists, nil
}
