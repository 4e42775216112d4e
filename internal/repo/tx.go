package repo

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// Tx scopes one unit of work. Every write of an operation runs inside a
// single RunInTx call and is rolled back when fn fails.
type Tx struct {
	db *bun.DB
}

func NewTx(db *bun.DB) *Tx {
	return &Tx{db: db}
}

func (t *Tx) RunInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	return t.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
