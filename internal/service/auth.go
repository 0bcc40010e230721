package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"foodpos/internal/model"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
	RoleKitchen Role = "kitchen"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleKitchen:
		return true
	}
	return false
}

const minPasswordLen = 6

const profileColumns = `id, email, full_name, role, password_hash, created_at`

type UserService struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

func NewUserService(db *sqlx.DB, log logrus.FieldLogger) *UserService {
	return &UserService{db: db, log: log}
}

type NewUser struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (u *NewUser) normalize() error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FullName = strings.TrimSpace(u.FullName)
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return newValidationError("invalid email")
	}
	if len(u.Password) < minPasswordLen {
		return newValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if u.Role == "" {
		u.Role = RoleCashier
	}
	if !u.Role.Valid() {
		return newValidationError(fmt.Sprintf("unknown role %q", u.Role))
	}
	return nil
}

func (s *UserService) Create(ctx context.Context, in NewUser) (*model.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user model.User
	err = s.db.GetContext(ctx, &user, `
		INSERT INTO profiles (email, full_name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+profileColumns, in.Email, in.FullName, string(in.Role), hash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user created")
	return &user, nil
}

// Authenticate checks the credentials and returns the matching profile.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user model.User
	err := s.db.GetContext(ctx, &user, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := s.db.SelectContext(ctx, &users, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	return users, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id string, role Role) error {
	if !role.Valid() {
		return newValidationError(fmt.Sprintf("unknown role %q", role))
	}

	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET role = $1 WHERE id = $2`, string(role), id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": id, "role": role}).Info("role changed")
	return nil
}

// Delete removes a profile. An admin cannot remove their own account.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return newValidationError("cannot delete your own account")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}
