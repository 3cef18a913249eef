package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

var _ ports.AuthRepository = (*AuthRepository)(nil)

// AuthRepository stores users and their role grants.
type AuthRepository struct {
	db *sqlx.DB
}

func NewAuthRepository(db *sqlx.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

type dbUser struct {
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

func (r *AuthRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u dbUser
	err := r.db.GetContext(ctx, &u, `SELECT username, password_hash, created_at FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	var roles []string
	if err := r.db.SelectContext(ctx, &roles, `SELECT role FROM user_roles WHERE username = ? ORDER BY role`, username); err != nil {
		return nil, fmt.Errorf("find user roles: %w", err)
	}

	return &domain.User{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Roles:        roles,
		CreatedAt:    time.Unix(u.CreatedAt, 0).UTC(),
	}, nil
}

func (r *AuthRepository) Create(ctx context.Context, user *domain.User) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?) ON CONFLICT(username) DO NOTHING`,
			user.Username, user.PasswordHash, user.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrUserExists
		}
		for _, role := range user.Roles {
			if err := grant(ctx, tx, user.Username, role); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *AuthRepository) Delete(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", username, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *AuthRepository) AddRole(ctx context.Context, username, role string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := userExists(ctx, tx, username); err != nil {
			return err
		}
		return grant(ctx, tx, username, role)
	})
}

func (r *AuthRepository) RemoveRole(ctx context.Context, username, role string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := userExists(ctx, tx, username); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE username = ? AND role = ?`, username, role); err != nil {
			return fmt.Errorf("revoke role: %w", err)
		}
		return nil
	})
}

func userExists(ctx context.Context, tx *sqlx.Tx, username string) error {
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE username = ?`, username); err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func grant(ctx context.Context, tx *sqlx.Tx, username, role string) error {
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM roles WHERE name = ?`, role); err != nil {
		return fmt.Errorf("find role: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", domain.ErrRoleNotFound, role)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO user_roles (username, role) VALUES (?, ?)`, username, role); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}
