package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// TenantsRepository handles tenant data persistence.
type TenantsRepository struct {
	q Querier
}

// NewTenantsRepository creates a new tenants repository.
func NewTenantsRepository(q Querier) *TenantsRepository {
	return &TenantsRepository{q: q}
}

// Create creates a new tenant.
func (r *TenantsRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.CreatedBy,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	return mapWriteError(err, domain.ErrConflict)
}

// GetByID retrieves a tenant by ID.
func (r *TenantsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `
		SELECT id, name, created_by, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	var tenant domain.Tenant
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.CreatedBy,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}

	return &tenant, nil
}

// Update updates a tenant's name.
func (r *TenantsRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.q.ExecContext(ctx, query,
		tenant.Name,
		tenant.UpdatedAt,
		tenant.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrTenantNotFound)
}

// Delete removes a tenant row. Dependent rows must be removed first.
func (r *TenantsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrTenantNotFound)
}
