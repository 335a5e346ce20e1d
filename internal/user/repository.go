package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"gymtrack/internal/apperr"
	"gymtrack/internal/auth"
	"gymtrack/internal/db"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

const userColumns = `id, name, email, password_hash, role, mobile_no, address, birthdate, created_at, updated_at`

func (r *repository) Create(ctx context.Context, name, email, passwordHash string, role auth.Role, mobileNo, address *string, birthdate *time.Time) (*User, error) {
	u := &User{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, mobile_no, address, birthdate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns+`
	`, name, email, passwordHash, role, mobileNo, address, birthdate).StructScan(u)
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{}
	err := r.db.GetContext(ctx, u, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user with email %s not found", email)
	}
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	u := &User{}
	err := r.db.GetContext(ctx, u, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *repository) ListMembers(ctx context.Context, search string) ([]User, error) {
	users := []User{}

	if search == "" {
		err := r.db.SelectContext(ctx, &users, `
			SELECT `+userColumns+`
			FROM users
			WHERE role = 'member'
			ORDER BY created_at DESC
		`)
		return users, err
	}

	err := r.db.SelectContext(ctx, &users, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = 'member'
		  AND (name ILIKE '%' || $1 || '%'
		    OR email ILIKE '%' || $1 || '%'
		    OR mobile_no ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
	`, search)
	return users, err
}

func (r *repository) CountMembers(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE role = 'member'`)
	return count, err
}
