package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/otpmail/internal/dbx"
	"github.com/dmitrijs2005/otpmail/internal/server/repositories/counters"
	"github.com/dmitrijs2005/otpmail/internal/server/repositories/messages"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Messages(db dbx.DBTX) messages.Repository
	Counters(db dbx.DBTX) counters.Repository
}
