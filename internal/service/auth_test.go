package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var profileRowColumns = []string{"id", "email", "full_name", "role", "password_hash", "created_at"}

func TestUsers_Create(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUserService(db, quietLog)

	mock.ExpectQuery(`INSERT INTO profiles`).
		WithArgs("ana@shop.test", "Ana", "cashier", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(profileRowColumns).AddRow("u1", "ana@shop.test", "Ana", "cashier", []byte("h"), time.Now()))

	user, err := svc.Create(context.Background(), NewUser{Email: " Ana@Shop.test ", FullName: "Ana", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "cashier", user.Role)
}

func TestUsers_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUserService(db, quietLog)

	mock.ExpectQuery(`INSERT INTO profiles`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := svc.Create(context.Background(), NewUser{Email: "ana@shop.test", Password: "secret1", Role: RoleAdmin})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUsers_CreateValidation(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewUserService(db, quietLog)

	cases := []NewUser{
		{Email: "not-an-email", Password: "secret1"},
		{Email: "ana@shop.test", Password: "123"},
		{Email: "ana@shop.test", Password: "secret1", Role: "owner"},
	}
	for _, in := range cases {
		_, err := svc.Create(context.Background(), in)
		assert.True(t, IsValidation(err), "%+v", in)
	}
}

func TestUsers_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		noRows   bool
		wantErr  error
	}{
		{name: "valid", password: "secret1"},
		{name: "wrong password", password: "nope", wantErr: ErrInvalidCredential},
		{name: "unknown email", password: "secret1", noRows: true, wantErr: ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			svc := NewUserService(db, quietLog)

			q := mock.ExpectQuery(`FROM profiles WHERE email = \$1`).WithArgs("ana@shop.test")
			if tt.noRows {
				q.WillReturnError(sql.ErrNoRows)
			} else {
				q.WillReturnRows(sqlmock.NewRows(profileRowColumns).
					AddRow("u1", "ana@shop.test", "Ana", "admin", hash, time.Now()))
			}

			user, err := svc.Authenticate(context.Background(), "ANA@shop.test", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin", user.Role)
		})
	}
}

func TestUsers_UpdateRole(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUserService(db, quietLog)

	mock.ExpectExec(`UPDATE profiles SET role = \$1 WHERE id = \$2`).
		WithArgs("kitchen", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.UpdateRole(context.Background(), "u2", RoleKitchen)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.UpdateRole(context.Background(), "u2", "chef")
	assert.True(t, IsValidation(err))
}

func TestUsers_DeleteSelfRefused(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUserService(db, quietLog)

	err := svc.Delete(context.Background(), "u1", "u1")
	assert.True(t, IsValidation(err))

	mock.ExpectExec(`DELETE FROM profiles WHERE id = \$1`).
		WithArgs("u2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.Delete(context.Background(), "u1", "u2"))
}
