package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/etsusei/NeteaseCloudMusicApi2/models"
)

// UserStore provides CRUD over the users table.
type UserStore struct {
	db DB
}

// NewUserStore creates a UserStore on the given database handle.
func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

// GetByID returns a user by primary key.
func (s *UserStore) GetByID(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, password, is_admin, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// GetByUsername returns a user by unique username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, password, is_admin, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user and returns its id. The password must already be
// hashed by the caller.
func (s *UserStore) Create(ctx context.Context, username, passwordHash string, isAdmin bool) (int, error) {
	var id int
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (username, password, is_admin) VALUES ($1, $2, $3) RETURNING id`,
		username, passwordHash, isAdmin,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// List returns all users ordered by id.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, username, is_admin, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return users, nil
}

// UpdateUsername changes a user's username.
func (s *UserStore) UpdateUsername(ctx context.Context, id int, username string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET username = $1 WHERE id = $2`, username, id)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces a user's password hash.
func (s *UserStore) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UsernameTaken reports whether another user already holds the given username.
func (s *UserStore) UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	var id int
	err := s.db.QueryRow(ctx,
		`SELECT id FROM users WHERE username = $1 AND id != $2`,
		username, excludeID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return true, nil
}
