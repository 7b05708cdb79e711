package repomanager

import (
	"context"
	"database/sql"

	"github.com/vkarpins/stashkeeper/internal/dbx"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/contents"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/folders"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/refreshtokens"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/tags"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/users"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/verificationtokens"
)

// RepositoryManager vends repositories bound to an arbitrary DBTX, so a
// service can run the same code against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	VerificationTokens(db dbx.DBTX) verificationtokens.Repository
	Folders(db dbx.DBTX) folders.Repository
	Contents(db dbx.DBTX) contents.Repository
	Tags(db dbx.DBTX) tags.Repository
}
