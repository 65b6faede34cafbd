package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fadebook/fadebook/internal/domain/user"
	"github.com/fadebook/fadebook/internal/observability"
	"github.com/fadebook/fadebook/internal/security"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type CreateUserParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string // plaintext; hashed exactly once, here
	Role      string
}

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

// NormalizeEmail is the single place emails are canonicalized; lookups and
// writes both go through it, so matching is case-insensitive by
// construction.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create hashes the password and inserts the user. A duplicate email
// surfaces as ErrEmailTaken.
func (r *UsersRepo) Create(ctx context.Context, p CreateUserParams) (user.User, error) {
	hash, err := security.HashPassword(p.Password)

	if err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()

	u := user.User{
		ID: uuid.NewString(),
		FullName: user.FullName{
			FirstName: strings.TrimSpace(p.FirstName),
			LastName:  strings.TrimSpace(p.LastName),
		},
		Email:        NormalizeEmail(p.Email),
		PasswordHash: hash,
		Role:         p.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = r.prom.ObserveDB("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, first_name, last_name, email, password_hash, role, is_active, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			u.ID, u.FullName.FirstName, u.FullName.LastName, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, ErrEmailTaken
		}

		return user.User{}, err
	}

	u.PasswordHash = ""

	return u, nil
}

// GetByID is the default sanitized read: no password hash, no refresh hash.
func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, first_name, last_name, email, role, is_active, created_at, updated_at
			 FROM users
			 WHERE id = $1`,
			id,
		).Scan(
			&u.ID,
			&u.FullName.FirstName,
			&u.FullName.LastName,
			&u.Email,
			&u.Role,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// GetByEmailWithPassword is the explicit credential-check read.
func (r *UsersRepo) GetByEmailWithPassword(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, first_name, last_name, email, password_hash, role, is_active, created_at, updated_at
			 FROM users
			 WHERE email = $1`,
			NormalizeEmail(email),
		).Scan(
			&u.ID,
			&u.FullName.FirstName,
			&u.FullName.LastName,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// GetByIDWithRefreshToken is used only by the refresh branch of the session
// middleware; it includes the stored refresh-token hash but not the
// password hash.
func (r *UsersRepo) GetByIDWithRefreshToken(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var refreshHash *string

	err := r.prom.ObserveDB("users.get_by_id_with_refresh", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, first_name, last_name, email, refresh_token_hash, role, is_active, created_at, updated_at
			 FROM users
			 WHERE id = $1`,
			id,
		).Scan(
			&u.ID,
			&u.FullName.FirstName,
			&u.FullName.LastName,
			&u.Email,
			&refreshHash,
			&u.Role,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	if refreshHash != nil {
		u.RefreshTokenHash = *refreshHash
	}

	return u, nil
}

// SetRefreshToken overwrites the stored hash: one live refresh token per
// user, the previous session's token becomes unusable.
func (r *UsersRepo) SetRefreshToken(ctx context.Context, id, tokenHash string) error {
	return r.prom.ObserveDB("users.set_refresh_token", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users
			 SET refresh_token_hash = $2, updated_at = NOW()
			 WHERE id = $1`,
			id, tokenHash,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

func (r *UsersRepo) ClearRefreshToken(ctx context.Context, id string) error {
	return r.prom.ObserveDB("users.clear_refresh_token", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE users
			 SET refresh_token_hash = NULL, updated_at = NOW()
			 WHERE id = $1`,
			id,
		)

		return err
	})
}
