package userservice

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrNotFound          = errors.New("user not found")
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, constraint)
	}

	return false
}

func (m *DBModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, username, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING role, created_at, updated_at, version`

	err := m.db.QueryRowContext(ctx, query, u.ID, u.Username, u.Email, u.Password.hash).Scan(&u.Role, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		case uniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) getUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, username, email, password, role, profile_picture, bio, twitter, github, linkedin, website, created_at, updated_at, version
		FROM users
		WHERE email = $1`

	var u User
	err := m.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Username, &u.Email, &u.Password.hash, &u.Role, &u.ProfilePicture, &u.Bio, &u.SocialLinks.Twitter, &u.SocialLinks.GitHub, &u.SocialLinks.LinkedIn, &u.SocialLinks.Website, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) getUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, username, email, password, role, profile_picture, bio, twitter, github, linkedin, website, created_at, updated_at, version
		FROM users
		WHERE id = $1`

	var u User
	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.Password.hash, &u.Role, &u.ProfilePicture, &u.Bio, &u.SocialLinks.Twitter, &u.SocialLinks.GitHub, &u.SocialLinks.LinkedIn, &u.SocialLinks.Website, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) updateProfile(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET username = $1, bio = $2, twitter = $3, github = $4, linkedin = $5, website = $6, profile_picture = $7, updated_at = now(), version = version + 1
		WHERE id = $8 AND version = $9
		RETURNING updated_at, version`

	args := []any{
		u.Username,
		u.Bio,
		u.SocialLinks.Twitter,
		u.SocialLinks.GitHub,
		u.SocialLinks.LinkedIn,
		u.SocialLinks.Website,
		u.ProfilePicture,
		u.ID,
		u.Version,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrNotFound
		case uniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) updateUserPassword(ctx context.Context, pwd Password, id uuid.UUID) error {
	query := `
		UPDATE users
		SET password = $1, updated_at = now(), version = version + 1
		WHERE id = $2`

	res, err := m.db.ExecContext(ctx, query, pwd.hash, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
