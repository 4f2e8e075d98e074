package postgres

import (
	"context"
	"database/sql"

	"github.com/bagdasarian/ctf-team-engine/internal/repository"
)

type transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *transactor {
	return &transactor{db: db}
}

// WithinTx выполняет fn в одной транзакции; при ошибке или отмене контекста изменения откатываются
func (t *transactor) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, NewTeamRepositoryWithTx(tx), NewUserRepositoryWithTx(tx)); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return tx.Commit()
}
