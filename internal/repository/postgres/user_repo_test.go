package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/pantrylab/pantry/internal/errs"
	"github.com/pantrylab/pantry/internal/model"
)

func testModelUser() *model.User {
	return &model.User{
		ID:          uuid.Must(uuid.NewV4()),
		Username:    "alice",
		PwdHash:     []byte("hash"),
		SaltAuth:    []byte("salt"),
		HouseholdID: uuid.Must(uuid.NewV4()),
	}
}

func TestUserRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	u := testModelUser()

	mock.ExpectExec(`INSERT INTO users \(id, username, pwd_hash, salt_auth, household_id\)`).
		WithArgs(u.ID, u.Username, u.PwdHash, u.SaltAuth, u.HouseholdID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Create(context.Background(), u))
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	u := testModelUser()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Username, u.PwdHash, u.SaltAuth, u.HouseholdID).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	require.ErrorIs(t, r.Create(context.Background(), u), errs.ErrAlreadyExists)
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	u := testModelUser()

	cols := []string{"id", "username", "pwd_hash", "salt_auth", "household_id", "created_at"}
	mock.ExpectQuery(`SELECT .+ FROM users WHERE username=\$1`).
		WithArgs(u.Username).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(u.ID, u.Username, u.PwdHash, u.SaltAuth, u.HouseholdID, time.Now().UTC()))

	got, err := r.GetByUsername(context.Background(), u.Username)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, u.HouseholdID, got.HouseholdID)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username=\$1`).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByUsername(context.Background(), "nobody")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	u := testModelUser()

	cols := []string{"id", "username", "pwd_hash", "salt_auth", "household_id", "created_at"}
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\$1`).
		WithArgs(u.ID.String()).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(u.ID, u.Username, u.PwdHash, u.SaltAuth, u.HouseholdID, time.Now().UTC()))

	got, err := r.GetByID(context.Background(), u.ID.String())
	require.NoError(t, err)
	require.Equal(t, u.Username, got.Username)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\$1`).
		WithArgs(u.ID.String()).
		WillReturnError(errors.New("weird"))
	_, err = r.GetByID(context.Background(), u.ID.String())
	require.Error(t, err)
}
