package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// User mirrors a row of the users table.
type User struct {
	UserID       pgtype.UUID
	Email        pgtype.Text
	PasswordHash pgtype.Text
	DisplayName  string
	AuthProvider string
	CreatedAt    time.Time
	LastLoginAt  pgtype.Timestamptz
}

// ID converts the row key to a uuid.UUID.
func (u User) ID() uuid.UUID {
	return uuid.UUID(u.UserID.Bytes)
}

type CreateUserParams struct {
	Email        string
	PasswordHash pgtype.Text
	DisplayName  string
	AuthProvider string
}

const userColumns = `user_id, email, password_hash, display_name, auth_provider, created_at, last_login_at`

const createUser = `INSERT INTO users (email, password_hash, display_name, auth_provider)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

const updateUserLogin = `UPDATE users SET last_login_at = now() WHERE user_id = $1`

// UserRepository exposes typed DB operations required by auth flows.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts an account. A duplicate email yields ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	row := r.db.QueryRow(ctx, createUser, params.Email, params.PasswordHash, params.DisplayName, params.AuthProvider)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetByEmail matches case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, getUserByEmail, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	return r.getOne(ctx, getUserByID, pgtype.UUID{Bytes: id, Valid: true})
}

// UpdateLogin records the last login timestamp.
func (r *UserRepository) UpdateLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, updateUserLogin, pgtype.UUID{Bytes: id, Valid: true})
	return err
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.AuthProvider, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}
