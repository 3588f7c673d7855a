package interfaces

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX - общее подмножество pgxpool.Pool и pgx.Tx.
// Репозитории принимают его, чтобы работать и вне, и внутри транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Transactor выполняет fn в одной транзакции.
// Ошибка fn откатывает транзакцию и возвращается как есть.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx DBTX) error) error
}
