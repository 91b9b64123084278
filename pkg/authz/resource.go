package authz

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// ResourceKind names an owned resource type.
type ResourceKind int

const (
	ResourceTenant ResourceKind = iota + 1
	ResourceDatabase
	ResourceRecord
)

var resourceNames = map[ResourceKind]string{
	ResourceTenant:   "tenant",
	ResourceDatabase: "isolated_database",
	ResourceRecord:   "record",
}

// request body keys that carry each resource id
var resourceIDKeys = map[ResourceKind]string{
	ResourceTenant:   "tenant_id",
	ResourceDatabase: "isolated_db_id",
	ResourceRecord:   "record_id",
}

func (k ResourceKind) String() string {
	if name, ok := resourceNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid returns true if k is a known kind.
func (k ResourceKind) Valid() bool {
	_, ok := resourceNames[k]
	return ok
}

// IDKey returns the request field that names a resource of this kind.
func (k ResourceKind) IDKey() string {
	return resourceIDKeys[k]
}

// ResourceKinds lists every kind.
func ResourceKinds() []ResourceKind {
	return []ResourceKind{ResourceTenant, ResourceDatabase, ResourceRecord}
}

type ownerInfo struct {
	tenantID  uuid.UUID
	createdBy uuid.UUID
}

// load returns the owning tenant and creator of a resource.
func (k ResourceKind) load(ctx context.Context, tx repository.Tx, id uuid.UUID) (ownerInfo, error) {
	switch k {
	case ResourceTenant:
		t, err := tx.Tenants().GetByID(ctx, id)
		if err != nil {
			return ownerInfo{}, err
		}
		return ownerInfo{tenantID: t.ID, createdBy: t.CreatedBy}, nil

	case ResourceDatabase:
		db, err := tx.Databases().GetByID(ctx, id)
		if err != nil {
			return ownerInfo{}, err
		}
		return ownerInfo{tenantID: db.TenantID, createdBy: db.CreatedBy}, nil

	default:
		rec, err := tx.Records().GetByID(ctx, id)
		if err != nil {
			return ownerInfo{}, err
		}
		db, err := tx.Databases().GetByID(ctx, rec.DatabaseID)
		if err != nil {
			return ownerInfo{}, err
		}
		return ownerInfo{tenantID: db.TenantID, createdBy: rec.CreatedBy}, nil
	}
}
