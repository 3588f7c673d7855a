package database

import (
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"tutor-server/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ApplyMigrations применяет встроенные миграции схемы.
func ApplyMigrations(pool *pgxpool.Pool) error {
	return migration.NewMigrator(migration.Config{
		MigrationsFS:   migrationsFS,
		MigrationsPath: "migrations",
	}, pool).Up()
}
