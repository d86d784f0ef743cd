package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbase/internal/common"
	"tourbase/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error)
	GetByIDWithPassword(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type userRepo struct {
	db DB
}

func NewUserRepo(db DB) UserRepository {
	return &userRepo{db: db}
}

// Every read filters on active so soft-deleted accounts behave as absent.
const userColumns = `id, name, email, photo, role, password_changed_at, password_reset_expires, active, created_at, updated_at`

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, photo, role, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Name, user.Email, user.Photo, user.Role, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepo) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Photo, &user.Role,
		&user.PasswordChangedAt, &user.PasswordResetExpires, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepo) scanUserWithPassword(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Photo, &user.Role, &user.PasswordHash,
		&user.PasswordChangedAt, &user.PasswordResetExpires, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND active`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND active`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepo) GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, photo, role, password_hash, password_changed_at, password_reset_expires, active, created_at, updated_at
		FROM users WHERE email = $1 AND active
	`
	return r.scanUserWithPassword(r.db.QueryRow(ctx, query, email))
}

func (r *userRepo) GetByIDWithPassword(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, name, email, photo, role, password_hash, password_changed_at, password_reset_expires, active, created_at, updated_at
		FROM users WHERE id = $1 AND active
	`
	return r.scanUserWithPassword(r.db.QueryRow(ctx, query, id))
}

// GetByResetTokenHash resolves a user by the hashed reset secret, honoring the
// expiry window in the query itself so an expired secret behaves as absent.
func (r *userRepo) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE password_reset_token = $1 AND password_reset_expires > $2 AND active
	`
	return r.scanUser(r.db.QueryRow(ctx, query, tokenHash, now))
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, photo = $3, role = $4, updated_at = NOW()
		WHERE id = $5 AND active
	`
	tag, err := r.db.Exec(ctx, query, user.Name, user.Email, user.Photo, user.Role, user.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// UpdatePassword stores a new hash, stamps the rotation time and clears any
// outstanding reset token so the secret is single-use.
func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $1, password_changed_at = $2,
		    password_reset_token = NULL, password_reset_expires = NULL,
		    updated_at = NOW()
		WHERE id = $3 AND active
	`
	tag, err := r.db.Exec(ctx, query, passwordHash, changedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $1, password_reset_expires = $2, updated_at = NOW()
		WHERE id = $3 AND active
	`
	tag, err := r.db.Exec(ctx, query, tokenHash, expires, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *userRepo) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *userRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE active
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Photo, &user.Role,
			&user.PasswordChangedAt, &user.PasswordResetExpires, &user.Active, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepo) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires = NULL
		WHERE password_reset_expires IS NOT NULL AND password_reset_expires <= $1
	`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
