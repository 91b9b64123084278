package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// Store runs functions inside store transactions.
//
// Update commits when fn returns nil and rolls back otherwise; the
// transaction is released on every path. View runs fn against a read-only
// snapshot.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
}

// Tx gives access to the entity repositories bound to one transaction.
type Tx interface {
	Users() UserStore
	Tenants() TenantStore
	Memberships() MembershipStore
	Databases() DatabaseStore
	Records() RecordStore
}

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

// TenantStore persists tenants.
type TenantStore interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MembershipStore persists the tenant/user relationship.
// Memberships are keyed by (tenant, user) and indexed both ways.
type MembershipStore interface {
	Create(ctx context.Context, m *domain.Membership) error
	Get(ctx context.Context, tenantID, userID uuid.UUID) (*domain.Membership, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error)
	Update(ctx context.Context, m *domain.Membership) error
	Delete(ctx context.Context, tenantID, userID uuid.UUID) error
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// DatabaseStore persists isolated databases.
type DatabaseStore interface {
	Create(ctx context.Context, db *domain.IsolatedDatabase) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.IsolatedDatabase, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, page Page) ([]*domain.IsolatedDatabase, error)
	Update(ctx context.Context, db *domain.IsolatedDatabase) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecordStore persists records.
type RecordStore interface {
	Create(ctx context.Context, record *domain.Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error)
	ListByDatabase(ctx context.Context, databaseID uuid.UUID, page Page) ([]*domain.Record, error)
	Update(ctx context.Context, record *domain.Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDatabase(ctx context.Context, databaseID uuid.UUID) (int, error)
}
