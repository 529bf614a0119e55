package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	db := new(mockDB)
	repo := NewUserRepository(db)

	expect := User{
		UserID:       uuidFromByte(1),
		Email:        pgtype.Text{String: "user@example.com", Valid: true},
		PasswordHash: pgtype.Text{String: "hashed", Valid: true},
		DisplayName:  "Ace",
		AuthProvider: "password",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	db.On("QueryRow", createUser, "user@example.com", expect.PasswordHash, "Ace", "password").Return(userRow(expect))

	got, err := repo.Create(context.Background(), CreateUserParams{
		Email:        "user@example.com",
		PasswordHash: expect.PasswordHash,
		DisplayName:  "Ace",
		AuthProvider: "password",
	})

	require.NoError(t, err)
	assert.Equal(t, expect, got)
	assert.Equal(t, byte(1), got.ID()[15])
	db.AssertExpectations(t)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := new(mockDB)
	repo := NewUserRepository(db)

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errRow(&pgconn.PgError{Code: uniqueViolation}))

	_, err := repo.Create(context.Background(), CreateUserParams{Email: "dup@example.com", DisplayName: "Dup", AuthProvider: "password"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db := new(mockDB)
	repo := NewUserRepository(db)

	expect := User{UserID: uuidFromByte(2), DisplayName: "Ace", AuthProvider: "google"}
	db.On("QueryRow", getUserByEmail, "user@example.com").Return(userRow(expect)).Once()
	db.On("QueryRow", getUserByEmail, "missing@example.com").Return(errRow(pgx.ErrNoRows)).Once()

	got, err := repo.GetByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, expect, got)

	_, err = repo.GetByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	db.AssertExpectations(t)
}

func TestUserRepository_GetByIDAndUpdateLogin(t *testing.T) {
	db := new(mockDB)
	repo := NewUserRepository(db)

	id := uuidFromByte(3)
	expect := User{UserID: id, DisplayName: "Ace", AuthProvider: "password"}
	db.On("QueryRow", getUserByID, id).Return(userRow(expect))
	db.On("Exec", updateUserLogin, id).Return("UPDATE 1", nil)

	got, err := repo.GetByID(context.Background(), expect.ID())
	require.NoError(t, err)
	assert.Equal(t, "Ace", got.DisplayName)

	require.NoError(t, repo.UpdateLogin(context.Background(), expect.ID()))
	db.AssertExpectations(t)
}
