package storage

import (
	"context"
	"fmt"
)

const userColumns = "id, email, password_hash, full_name, role, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new account. Returns ErrDuplicate when the email is
// already registered.
func (d *DB) CreateUser(ctx context.Context, email, passwordHash, fullName, role string) (*User, error) {
	row := d.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		email, passwordHash, fullName, role)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", email, ErrDuplicate)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	d.logger.Debug("user created", "id", u.ID, "role", u.Role)
	return u, nil
}

// UserByEmail fetches an account by email address.
func (d *DB) UserByEmail(ctx context.Context, email string) (*User, error) {
	row := d.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email)

	u, err := scanUser(row)
	if err != nil {
		return nil, mapRowErr(err, "user by email")
	}
	return u, nil
}

// UserByID fetches an account by ID.
func (d *DB) UserByID(ctx context.Context, id int64) (*User, error) {
	row := d.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)

	u, err := scanUser(row)
	if err != nil {
		return nil, mapRowErr(err, "user by id")
	}
	return u, nil
}

// SetUserRole updates an account's role.
func (d *DB) SetUserRole(ctx context.Context, id int64, role string) error {
	tag, err := d.pool.Exec(ctx,
		"UPDATE users SET role = $1, updated_at = now() WHERE id = $2", role, id)
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountUsers returns the total number of accounts.
func (d *DB) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := d.pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// HasUsers reports whether any account exists. Used by seeding to stay
// idempotent.
func (d *DB) HasUsers(ctx context.Context) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users)").Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking for users: %w", err)
	}
	return exists, nil
}
