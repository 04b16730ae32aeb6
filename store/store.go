// Package store implements the persistence layer on top of pgx. Every query
// that touches a playlist is scoped by the owning user id; a row that exists
// but belongs to someone else is indistinguishable from a missing row.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ErrNotFound is returned when a row does not exist or is not visible to the
// requesting user.
var ErrNotFound = errors.New("not found")

// Querier is the subset of pgx used by the stores. Both the connection pool
// and an open transaction satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Tx is an open transaction.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is the database handle the stores are built on.
type DB interface {
	Querier
	BeginTx(ctx context.Context) (Tx, error)
}

// Pool adapts a pgxpool.Pool to the DB interface.
type Pool struct {
	*pgxpool.Pool
}

// NewPool wraps a pgx connection pool.
func NewPool(pool *pgxpool.Pool) Pool {
	return Pool{Pool: pool}
}

// BeginTx starts a transaction on a connection taken from the pool.
func (p Pool) BeginTx(ctx context.Context) (Tx, error) {
	return p.Pool.Begin(ctx)
}
