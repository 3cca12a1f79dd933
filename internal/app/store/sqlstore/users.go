package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"duochat/internal/app/store"
	"duochat/internal/app/user"
)

const userColumns = "id, full_name, email, password_hash, avatar_url, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := s.rebind(`INSERT INTO users (id, full_name, email, password_hash, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, u.ID, u.FullName, u.Email, u.PasswordHash, u.AvatarURL, u.CreatedAt, u.UpdatedAt)
	return err
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE email = ?")
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLStore) ListUsersExcept(ctx context.Context, selfID string) ([]user.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE id <> ? ORDER BY full_name")
	return s.queryUsers(ctx, query, selfID)
}

// SearchUsersExcept performs a case-insensitive substring match over display
// name and email, across all known users except selfID.
func (s *SQLStore) SearchUsersExcept(ctx context.Context, selfID, search string) ([]user.User, error) {
	pattern := "%" + strings.ToLower(search) + "%"
	query := s.rebind("SELECT " + userColumns + ` FROM users
		WHERE id <> ? AND (LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?)
		ORDER BY full_name`)
	return s.queryUsers(ctx, query, selfID, pattern, pattern)
}

func (s *SQLStore) UpdateUserProfile(ctx context.Context, id, fullName, avatarURL string) (*user.User, error) {
	query := s.rebind("UPDATE users SET full_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, fullName, avatarURL, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *SQLStore) queryUsers(ctx context.Context, query string, args ...any) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
