// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package memory provides an arena-backed entity store. Each table is a map
// keyed by entity id; commits are applied to a copy of the touched tables and
// swapped in only when every staged operation and uniqueness check passes.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/samber/oops"

	"github.com/petnova/petnova/internal/entity"
)

// Table describes how one entity type is stored.
type Table[T entity.Entity[ID], ID comparable] struct {
	// Name identifies the table inside a DB. Two tables with the same name
	// share rows, so the name must be unique per entity type.
	Name string

	// Unique maps a constraint name to a key function. Committed rows must
	// have distinct keys for every constraint.
	Unique map[string]func(T) string

	// Clone copies an entity on its way in and out of the arena so callers
	// never hold a reference to stored state. Nil stores values as given.
	Clone func(T) T
}

type row struct {
	value any
	seq   uint64
}

type rows map[any]row

// DB is an in-memory arena shared by all units of work opened on it.
type DB struct {
	mu     sync.RWMutex
	tables map[string]rows
	seq    uint64
}

// NewDB creates an empty arena.
func NewDB() *DB {
	return &DB{tables: make(map[string]rows)}
}

// Begin opens a unit of work against db.
func (db *DB) Begin() *UnitOfWork {
	return &UnitOfWork{db: db}
}

type opKind int

const (
	opAdd opKind = iota
	opUpdate
	opRemove
)

func (k opKind) String() string {
	switch k {
	case opAdd:
		return "add"
	case opUpdate:
		return "update"
	default:
		return "remove"
	}
}

type op struct {
	kind   opKind
	table  string
	id     any
	value  any
	unique map[string]func(any) string
}

// UnitOfWork stages operations for a later atomic Commit.
type UnitOfWork struct {
	db  *DB
	mu  sync.Mutex
	ops []op
}

var _ entity.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) stage(o op) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ops = append(u.ops, o)
}

// Rollback discards staged operations.
func (u *UnitOfWork) Rollback() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ops = nil
}

// Commit applies every staged operation or none of them.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	ops := u.ops
	u.ops = nil
	u.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return oops.Code("ENTITY_PERSISTENCE").
			With("operation", "commit").
			Wrap(errors.Join(entity.ErrPersistence, err))
	}

	db := u.db
	db.mu.Lock()
	defer db.mu.Unlock()

	next := make(map[string]rows)
	checks := make(map[string]map[string]func(any) string)
	seq := db.seq

	for _, o := range ops {
		tbl, ok := next[o.table]
		if !ok {
			tbl = make(rows, len(db.tables[o.table])+1)
			for id, r := range db.tables[o.table] {
				tbl[id] = r
			}
			next[o.table] = tbl
		}
		if len(o.unique) > 0 {
			checks[o.table] = o.unique
		}

		existing, exists := tbl[o.id]
		switch o.kind {
		case opAdd:
			if exists {
				return oops.Code("ENTITY_CONFLICT").
					With("table", o.table).
					With("constraint", "primary_key").
					With("id", o.id).
					Wrap(entity.ErrConflict)
			}
			seq++
			tbl[o.id] = row{value: o.value, seq: seq}
		case opUpdate:
			if !exists {
				return notFound(o)
			}
			tbl[o.id] = row{value: o.value, seq: existing.seq}
		case opRemove:
			if !exists {
				return notFound(o)
			}
			delete(tbl, o.id)
		}
	}

	for name, constraints := range checks {
		if err := checkUnique(name, next[name], constraints); err != nil {
			return err
		}
	}

	for name, tbl := range next {
		db.tables[name] = tbl
	}
	db.seq = seq
	return nil
}

func notFound(o op) error {
	return oops.Code("ENTITY_NOT_FOUND").
		With("table", o.table).
		With("operation", o.kind.String()).
		With("id", o.id).
		Wrap(entity.ErrNotFound)
}

func checkUnique(table string, tbl rows, constraints map[string]func(any) string) error {
	for constraint, key := range constraints {
		seen := make(map[string]struct{}, len(tbl))
		for _, r := range tbl {
			k := key(r.value)
			if _, dup := seen[k]; dup {
				return oops.Code("ENTITY_CONFLICT").
					With("table", table).
					With("constraint", constraint).
					Wrap(entity.ErrConflict)
			}
			seen[k] = struct{}{}
		}
	}
	return nil
}

type repository[T entity.Entity[ID], ID comparable] struct {
	uow    *UnitOfWork
	table  Table[T, ID]
	unique map[string]func(any) string
}

// Repo returns a repository for table whose mutations stage into uow.
func Repo[T entity.Entity[ID], ID comparable](uow *UnitOfWork, table Table[T, ID]) entity.Repository[T, ID] {
	var unique map[string]func(any) string
	if len(table.Unique) > 0 {
		unique = make(map[string]func(any) string, len(table.Unique))
		for name, key := range table.Unique {
			unique[name] = func(v any) string {
				t, _ := v.(T) //nolint:errcheck // rows in a table all hold T
				return key(t)
			}
		}
	}
	return &repository[T, ID]{uow: uow, table: table, unique: unique}
}

// Source returns an entity.Source opening a fresh unit of work on db per call.
func Source[T entity.Entity[ID], ID comparable](db *DB, table Table[T, ID]) entity.Source[T, ID] {
	return entity.SourceFunc[T, ID](func(_ context.Context) (entity.Repository[T, ID], entity.UnitOfWork, error) {
		uow := db.Begin()
		return Repo(uow, table), uow, nil
	})
}

func (r *repository[T, ID]) clone(e T) T {
	if r.table.Clone == nil {
		return e
	}
	return r.table.Clone(e)
}

func (r *repository[T, ID]) Add(_ context.Context, e T) error {
	r.uow.stage(op{kind: opAdd, table: r.table.Name, id: e.EntityID(), value: r.clone(e), unique: r.unique})
	return nil
}

func (r *repository[T, ID]) Update(_ context.Context, e T) error {
	r.uow.stage(op{kind: opUpdate, table: r.table.Name, id: e.EntityID(), value: r.clone(e), unique: r.unique})
	return nil
}

func (r *repository[T, ID]) Remove(_ context.Context, e T) error {
	r.uow.stage(op{kind: opRemove, table: r.table.Name, id: e.EntityID(), unique: r.unique})
	return nil
}

func (r *repository[T, ID]) FindByID(_ context.Context, id ID) (T, bool, error) {
	var zero T

	db := r.uow.db
	db.mu.RLock()
	stored, ok := db.tables[r.table.Name][id]
	db.mu.RUnlock()
	if !ok {
		return zero, false, nil
	}

	e, err := r.cast(stored.value)
	if err != nil {
		return zero, false, err
	}
	return r.clone(e), true, nil
}

func (r *repository[T, ID]) List(_ context.Context) ([]T, error) {
	db := r.uow.db
	db.mu.RLock()
	stored := make([]row, 0, len(db.tables[r.table.Name]))
	for _, v := range db.tables[r.table.Name] {
		stored = append(stored, v)
	}
	db.mu.RUnlock()

	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })

	out := make([]T, 0, len(stored))
	for _, s := range stored {
		e, err := r.cast(s.value)
		if err != nil {
			return nil, err
		}
		out = append(out, r.clone(e))
	}
	return out, nil
}

func (r *repository[T, ID]) cast(v any) (T, error) {
	e, ok := v.(T)
	if !ok {
		var zero T
		return zero, oops.Code("ENTITY_TYPE_MISMATCH").
			With("table", r.table.Name).
			Errorf("stored value has type %T", v)
	}
	return e, nil
}
