package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// UsersRepository handles user persistence.
type UsersRepository struct {
	q Querier
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(q Querier) *UsersRepository {
	return &UsersRepository{q: q}
}

const userColumns = `id, name, email, password_hash, contact_code, contact_number, verified, created_at, updated_at`

// Create creates a new user.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Contact.CountryCode, user.Contact.Number,
		user.Verified, user.CreatedAt, user.UpdatedAt,
	)
	return mapWriteError(err, domain.ErrUserAlreadyExists)
}

// GetByID retrieves a user by ID.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.q.QueryRowContext(ctx, query, email))
}

// ExistsByEmail checks if a user exists by email.
func (r *UsersRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`
	var exists bool
	err := r.q.QueryRowContext(ctx, query, email).Scan(&exists)
	return exists, err
}

// MarkVerified sets the verified flag.
func (r *UsersRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET verified = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrUserNotFound)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Contact.CountryCode, &user.Contact.Number,
		&user.Verified, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
