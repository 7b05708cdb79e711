// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vkarpins/stashkeeper/internal/dbx"
	"github.com/vkarpins/stashkeeper/internal/server/migrations"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/contents"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/folders"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/refreshtokens"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/tags"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/users"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/verificationtokens"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

// VerificationTokens returns a verificationtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) VerificationTokens(db dbx.DBTX) verificationtokens.Repository {
	return verificationtokens.NewPostgresRepository(db)
}

// Folders returns a folders.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Folders(db dbx.DBTX) folders.Repository {
	return folders.NewPostgresRepository(db)
}

// Contents returns a contents.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Contents(db dbx.DBTX) contents.Repository {
	return contents.NewPostgresRepository(db)
}

// Tags returns a tags.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Tags(db dbx.DBTX) tags.Repository {
	return tags.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing RunMigrations.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations points goose at the embedded migrations and applies them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
