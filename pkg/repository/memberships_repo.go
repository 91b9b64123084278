package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// MembershipsRepository handles membership data persistence.
type MembershipsRepository struct {
	q Querier
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(q Querier) *MembershipsRepository {
	return &MembershipsRepository{q: q}
}

const membershipColumns = `tenant_id, user_id, name, role, status, invited_by, joined_at, accepted_at, created_at, updated_at`

// Create creates a new membership.
func (r *MembershipsRepository) Create(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.ExecContext(ctx, query,
		m.TenantID,
		m.UserID,
		m.Name,
		m.Role,
		m.Status,
		m.InvitedBy,
		m.JoinedAt,
		m.AcceptedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return mapWriteError(err, domain.ErrAlreadyMember)
}

// Get retrieves the membership of a user in a tenant.
func (r *MembershipsRepository) Get(ctx context.Context, tenantID, userID uuid.UUID) (*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE tenant_id = $1 AND user_id = $2
	`

	var m domain.Membership
	err := scanMembership(r.q.QueryRowContext(ctx, query, tenantID, userID), &m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}

	return &m, nil
}

// ListByTenant retrieves all members of a tenant in the order they joined.
func (r *MembershipsRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, tenantID)
}

// ListByUser retrieves all memberships of a user.
func (r *MembershipsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, userID)
}

func (r *MembershipsRepository) list(ctx context.Context, query string, arg uuid.UUID) ([]*domain.Membership, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := scanMembership(rows, &m); err != nil {
			return nil, err
		}
		memberships = append(memberships, &m)
	}

	return memberships, rows.Err()
}

// Update writes role, status and timestamps of a membership.
func (r *MembershipsRepository) Update(ctx context.Context, m *domain.Membership) error {
	query := `
		UPDATE memberships
		SET role = $1, status = $2, joined_at = $3, accepted_at = $4, updated_at = $5
		WHERE tenant_id = $6 AND user_id = $7
	`
	result, err := r.q.ExecContext(ctx, query,
		m.Role,
		m.Status,
		m.JoinedAt,
		m.AcceptedAt,
		m.UpdatedAt,
		m.TenantID,
		m.UserID,
	)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrMembershipNotFound)
}

// Delete removes a membership.
func (r *MembershipsRepository) Delete(ctx context.Context, tenantID, userID uuid.UUID) error {
	query := `DELETE FROM memberships WHERE tenant_id = $1 AND user_id = $2`
	result, err := r.q.ExecContext(ctx, query, tenantID, userID)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrMembershipNotFound)
}

// DeleteByTenant removes every membership of a tenant.
func (r *MembershipsRepository) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM memberships WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner, m *domain.Membership) error {
	return row.Scan(
		&m.TenantID,
		&m.UserID,
		&m.Name,
		&m.Role,
		&m.Status,
		&m.InvitedBy,
		&m.JoinedAt,
		&m.AcceptedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}
