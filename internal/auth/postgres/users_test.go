// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petnova/petnova/internal/auth"
	authpg "github.com/petnova/petnova/internal/auth/postgres"
	"github.com/petnova/petnova/internal/entity"
	entitypg "github.com/petnova/petnova/internal/entity/postgres"
	"github.com/petnova/petnova/pkg/errutil"
)

var userColumns = []string{"id", "username", "email", "password_hash", "role", "created_at"}

const (
	selectUser = `SELECT "id", "username", "email", "password_hash", "role", "created_at" FROM "users" WHERE "id" = $1`
	listUsers  = `SELECT "id", "username", "email", "password_hash", "role", "created_at" FROM "users" ORDER BY "id"`
	insertUser = `INSERT INTO "users" ("id", "username", "email", "password_hash", "role", "created_at") VALUES ($1, $2, $3, $4, $5, $6)`
)

func q(sql string) string { return regexp.QuoteMeta(sql) }

func TestUsers_FindByID(t *testing.T) {
	id := ulid.Make()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(q(selectUser)).
		WithArgs(id.String()).
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow(id.String(), "alice", "alice@example.com", "$argon2id$...", "User", created))

	repo, _, err := authpg.NewUserSource(entitypg.NewDB(mock)).Open(context.Background())
	require.NoError(t, err)

	u, ok, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "User", u.Role)
	assert.Equal(t, created, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_ListRejectsCorruptID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(q(listUsers)).
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow("not-a-ulid", "bob", "bob@example.com", "h", "User", time.Now()))

	repo, _, err := authpg.NewUserSource(entitypg.NewDB(mock)).Open(context.Background())
	require.NoError(t, err)

	_, err = repo.List(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "USER_INVALID_ID")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_DuplicateEmailAtCommitIsConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	u, err := auth.NewUser("alice", "alice@example.com", "hash", "")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(q(insertUser)).
		WithArgs(u.ID.String(), u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	repo, uow, err := authpg.NewUserSource(entitypg.NewDB(mock)).Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Add(context.Background(), u))

	err = uow.Commit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrConflict))
	errutil.AssertErrorContext(t, err, "constraint", "users_email_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}
