// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package postgres provides a PostgreSQL-backed entity store. Repositories
// read straight from the pool and stage writes; Commit replays the staged
// statements inside one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/petnova/petnova/internal/entity"
)

// poolIface is the subset of pgxpool.Pool used here. pgxmock satisfies it.
type poolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Table maps an entity type onto a PostgreSQL table.
type Table[T entity.Entity[ID], ID comparable] struct {
	Name string

	// Columns lists the mapped columns. Columns[0] is the primary key.
	Columns []string

	// Scan reads one row selected in Columns order.
	Scan func(row pgx.Row) (T, error)

	// Values returns the column values of e in Columns order.
	Values func(e T) []any

	// Key converts an id into a query argument. Nil passes the id unchanged.
	Key func(id ID) any
}

// DB opens units of work against a pool.
type DB struct {
	pool poolIface
}

// NewDB creates a DB over pool.
func NewDB(pool poolIface) *DB {
	return &DB{pool: pool}
}

// Begin opens a unit of work. No connection is held until Commit.
func (db *DB) Begin() *UnitOfWork {
	return &UnitOfWork{pool: db.pool}
}

type statement struct {
	op    string
	table string
	sql   string
	args  []any
	// mustAffect marks statements that fail with ErrNotFound when no row matches.
	mustAffect bool
}

// UnitOfWork buffers statements and executes them in one transaction.
type UnitOfWork struct {
	pool  poolIface
	mu    sync.Mutex
	stmts []statement
}

var _ entity.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) stage(s statement) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stmts = append(u.stmts, s)
}

// Rollback discards staged statements.
func (u *UnitOfWork) Rollback() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stmts = nil
}

// Commit executes all staged statements in a single transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	stmts := u.stmts
	u.stmts = nil
	u.mu.Unlock()

	if len(stmts) == 0 {
		return nil
	}

	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return persistenceError("begin", "", err)
	}

	for _, s := range stmts {
		tag, err := tx.Exec(ctx, s.sql, s.args...)
		if err != nil {
			_ = tx.Rollback(ctx) //nolint:errcheck // exec error takes precedence
			return classify(s, err)
		}
		if s.mustAffect && tag.RowsAffected() == 0 {
			_ = tx.Rollback(ctx) //nolint:errcheck // not-found takes precedence
			return oops.Code("ENTITY_NOT_FOUND").
				With("table", s.table).
				With("operation", s.op).
				With("id", s.args[0]).
				Wrap(entity.ErrNotFound)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return persistenceError("commit", "", err)
	}
	return nil
}

func classify(s statement, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return oops.Code("ENTITY_CONFLICT").
			With("table", s.table).
			With("operation", s.op).
			With("constraint", pgErr.ConstraintName).
			Wrap(errors.Join(entity.ErrConflict, err))
	}
	return persistenceError(s.op, s.table, err)
}

func persistenceError(op, table string, err error) error {
	b := oops.Code("ENTITY_PERSISTENCE").With("operation", op)
	if table != "" {
		b = b.With("table", table)
	}
	return b.Wrap(errors.Join(entity.ErrPersistence, err))
}

type repository[T entity.Entity[ID], ID comparable] struct {
	pool  poolIface
	uow   *UnitOfWork
	table Table[T, ID]

	selectSQL string
	listSQL   string
	insertSQL string
	updateSQL string
	deleteSQL string
}

// Repo returns a repository for table. Reads use the pool directly;
// writes stage into uow.
func Repo[T entity.Entity[ID], ID comparable](uow *UnitOfWork, table Table[T, ID]) entity.Repository[T, ID] {
	name := pgx.Identifier{table.Name}.Sanitize()
	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}
	colList := strings.Join(cols, ", ")
	pk := cols[0]

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sets := make([]string, 0, len(cols)-1)
	for i, c := range cols[1:] {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+2))
	}

	return &repository[T, ID]{
		pool:      uow.pool,
		uow:       uow,
		table:     table,
		selectSQL: fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", colList, name, pk),
		listSQL:   fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", colList, name, pk),
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", name, colList, strings.Join(placeholders, ", ")),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1", name, strings.Join(sets, ", "), pk),
		deleteSQL: fmt.Sprintf("DELETE FROM %s WHERE %s = $1", name, pk),
	}
}

// Source returns an entity.Source opening a fresh unit of work on db per call.
func Source[T entity.Entity[ID], ID comparable](db *DB, table Table[T, ID]) entity.Source[T, ID] {
	return entity.SourceFunc[T, ID](func(_ context.Context) (entity.Repository[T, ID], entity.UnitOfWork, error) {
		uow := db.Begin()
		return Repo(uow, table), uow, nil
	})
}

func (r *repository[T, ID]) key(id ID) any {
	if r.table.Key == nil {
		return id
	}
	return r.table.Key(id)
}

func (r *repository[T, ID]) Add(_ context.Context, e T) error {
	r.uow.stage(statement{op: "insert", table: r.table.Name, sql: r.insertSQL, args: r.table.Values(e)})
	return nil
}

func (r *repository[T, ID]) Update(_ context.Context, e T) error {
	r.uow.stage(statement{op: "update", table: r.table.Name, sql: r.updateSQL, args: r.table.Values(e), mustAffect: true})
	return nil
}

func (r *repository[T, ID]) Remove(_ context.Context, e T) error {
	r.uow.stage(statement{
		op:         "delete",
		table:      r.table.Name,
		sql:        r.deleteSQL,
		args:       []any{r.key(e.EntityID())},
		mustAffect: true,
	})
	return nil
}

func (r *repository[T, ID]) FindByID(ctx context.Context, id ID) (T, bool, error) {
	var zero T
	e, err := r.table.Scan(r.pool.QueryRow(ctx, r.selectSQL, r.key(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, oops.Code("ENTITY_QUERY_FAILED").
			With("table", r.table.Name).
			With("id", r.key(id)).
			Wrap(err)
	}
	return e, true, nil
}

func (r *repository[T, ID]) List(ctx context.Context) ([]T, error) {
	rows, err := r.pool.Query(ctx, r.listSQL)
	if err != nil {
		return nil, oops.Code("ENTITY_QUERY_FAILED").With("table", r.table.Name).Wrap(err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		e, err := r.table.Scan(rows)
		if err != nil {
			return nil, oops.Code("ENTITY_SCAN_FAILED").With("table", r.table.Name).Wrap(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ENTITY_QUERY_FAILED").With("table", r.table.Name).Wrap(err)
	}
	return out, nil
}
