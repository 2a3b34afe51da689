package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/renovation-mindmap/internal/models"
)

// UserStore serves the 'users' table.
type UserStore struct {
	DB *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{DB: db}
}

// Create inserts a user and fills in its ID and CreatedAt.
// A taken username yields ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, is_premium) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.IsPremium)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}

	created, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*user = *created
	return nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, `SELECT id, username, password_hash, is_premium, created_at FROM users WHERE username = ?`, username)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getOne(ctx, `SELECT id, username, password_hash, is_premium, created_at FROM users WHERE id = ?`, id)
}

// SetPremium flips the premium flag of a user.
func (s *UserStore) SetPremium(ctx context.Context, username string, premium bool) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET is_premium = ? WHERE username = ?`, premium, username)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		// MySQL reports 0 when the value is unchanged, so check the user exists.
		if _, err := s.GetByUsername(ctx, username); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsPremium, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
