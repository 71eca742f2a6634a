// SPDX-License-Identifier: Apache-2.0

package migrator

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/require"

	pgmigrations "github.com/xataio/samplekit/migrations/postgres"
)

func TestMigrationsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string

		want string
	}{
		{
			name: "no query parameters",
			url:  "postgres://localhost:5432/samples",
			want: `postgres://localhost:5432/samples?x-migrations-table=%22samplekit%22.%22schema_migrations%22&x-migrations-table-quoted=1`,
		},
		{
			name: "with query parameters",
			url:  "postgres://localhost:5432/samples?sslmode=disable",
			want: `postgres://localhost:5432/samples?sslmode=disable&x-migrations-table=%22samplekit%22.%22schema_migrations%22&x-migrations-table-quoted=1`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, migrationsURL(tc.url, "samplekit"))
		})
	}
}

func TestCountMigrations(t *testing.T) {
	t.Parallel()

	count, err := countMigrations(fstest.MapFS{
		"1_a.up.sql":   {},
		"1_a.down.sql": {},
		"2_b.up.sql":   {},
		"2_b.down.sql": {},
		"embed.go":     {},
	})
	require.NoError(t, err)
	require.Equal(t, uint(2), count)

	count, err = countMigrations(pgmigrations.FS)
	require.NoError(t, err)
	require.Equal(t, uint(2), count)
}

func TestMapError(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")
	require.NoError(t, mapError(nil))
	require.ErrorIs(t, mapError(migrate.ErrNoChange), ErrNoChange)
	require.ErrorIs(t, mapError(migrate.ErrNilVersion), ErrNoMigration)
	require.ErrorIs(t, mapError(errTest), errTest)
}
