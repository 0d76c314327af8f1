package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

type TxContextKey string

const txKey = TxContextKey("tx-context-key")

// Tx is the subset of sqlx.Tx the repositories depend on, with
// context-aware Commit/Rollback.
type Tx interface {
	IsOpen() bool
	Commit(ctx context.Context) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	Rebind(query string) string
	Rollback(ctx context.Context) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Transaction wraps sqlx.Tx with context-scoped ownership. The call that opens
// the transaction owns it; nested GetTx callers get a non-owning view whose
// Commit/Rollback are no-ops, so only the opener can close the transaction.
type Transaction struct {
	*sqlx.Tx
	logger ectologger.Logger
	owned  bool
	closed *bool
}

func NewTx(tx *sqlx.Tx, logger ectologger.Logger) Tx {
	return &Transaction{
		Tx:     tx,
		logger: logger,
		owned:  true,
		closed: new(bool),
	}
}

// GetTx returns the transaction bound to ctx if one is open, otherwise it
// begins a new one and binds it. Callers must always pair the returned Tx with
// a deferred Rollback and a Commit on success; on joined transactions both are
// no-ops.
func GetTx(ctx context.Context, logger ectologger.Logger, db DB, opts *sql.TxOptions) (context.Context, Tx, error) {
	if existing, ok := ctx.Value(txKey).(*Transaction); ok && existing.IsOpen() {
		joined := *existing
		joined.owned = false
		return ctx, &joined, nil
	}

	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Errorf("error while beginning transaction")
		return ctx, nil, fmt.Errorf("error while beginning transaction")
	}

	newTx := &Transaction{
		Tx:     tx,
		logger: logger,
		owned:  true,
		closed: new(bool),
	}

	ctx = context.WithValue(ctx, txKey, newTx)
	return ctx, newTx, nil
}

func (t *Transaction) IsOpen() bool {
	return !*t.closed
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if *t.closed || !t.owned {
		return nil
	}

	err := t.Tx.Rollback()
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Errorf("error while rolling back transaction")
		return fmt.Errorf("error while rolling back transaction")
	}

	*t.closed = true
	return nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if *t.closed || !t.owned {
		return nil
	}

	err := t.Tx.Commit()
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Errorf("error while committing transaction")
		return fmt.Errorf("error while committing transaction")
	}

	*t.closed = true
	return nil
}
