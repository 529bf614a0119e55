package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/mock"
)

func uuidFromByte(b byte) pgtype.UUID {
	var arr [16]byte
	arr[15] = b
	return pgtype.UUID{Bytes: arr, Valid: true}
}

type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	a := m.Called(append([]any{sql}, args...)...)
	return pgconn.NewCommandTag(a.String(0)), a.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	a := m.Called(append([]any{sql}, args...)...)
	return a.Get(0).(pgx.Row)
}

// rowFunc adapts a closure to pgx.Row.
type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

func userRow(u User) pgx.Row {
	return rowFunc(func(dest ...any) error {
		*dest[0].(*pgtype.UUID) = u.UserID
		*dest[1].(*pgtype.Text) = u.Email
		*dest[2].(*pgtype.Text) = u.PasswordHash
		*dest[3].(*string) = u.DisplayName
		*dest[4].(*string) = u.AuthProvider
		*dest[5].(*time.Time) = u.CreatedAt
		*dest[6].(*pgtype.Timestamptz) = u.LastLoginAt
		return nil
	})
}

func errRow(err error) pgx.Row {
	return rowFunc(func(...any) error { return err })
}
