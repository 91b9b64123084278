package memory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// Table names, also memdb schema names.
const (
	usersTable       = "users"
	tenantsTable     = "tenants"
	membershipsTable = "memberships"
	databasesTable   = "isolated_databases"
	recordsTable     = "records"
)

// Index names.
const (
	pk         = "id"
	byEmail    = "email"
	byTenant   = "by_tenant"
	byUser     = "by_user"
	byDatabase = "by_database"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			usersTable: {
				Name: usersTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:    pk,
						Unique:  true,
						Indexer: uuidField(func(o any) uuid.UUID { return o.(*domain.User).ID }),
					},
					byEmail: {
						Name:   byEmail,
						Unique: true,
						Indexer: &memdb.StringFieldIndex{
							Field:     "Email",
							Lowercase: true,
						},
					},
				},
			},
			tenantsTable: {
				Name: tenantsTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:    pk,
						Unique:  true,
						Indexer: uuidField(func(o any) uuid.UUID { return o.(*domain.Tenant).ID }),
					},
				},
			},
			membershipsTable: {
				Name: membershipsTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:   pk,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								uuidField(func(o any) uuid.UUID { return o.(*domain.Membership).TenantID }),
								uuidField(func(o any) uuid.UUID { return o.(*domain.Membership).UserID }),
							},
						},
					},
					byTenant: {
						Name:    byTenant,
						Indexer: uuidField(func(o any) uuid.UUID { return o.(*domain.Membership).TenantID }),
					},
					byUser: {
						Name:    byUser,
						Indexer: uuidField(func(o any) uuid.UUID { return o.(*domain.Membership).UserID }),
					},
				},
			},
			databasesTable: {
				Name: databasesTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:    pk,
						Unique:  true,
						Indexer: uuidField(func(o any) uuid.UUID { return o.(*domain.IsolatedDatabase).ID }),
					},
					byTenant: {
						Name:    byTenant,
						Indexer: uuidField(func(o any) uuid.UUID { return o.(*domain.IsolatedDatabase).TenantID }),
					},
				},
			},
			recordsTable: {
				Name: recordsTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: {
						Name:    pk,
						Unique:  true,
						Indexer: uuidField(func(o any) uuid.UUID { return o.(*domain.Record).ID }),
					},
					byDatabase: {
						Name:    byDatabase,
						Indexer: uuidField(func(o any) uuid.UUID { return o.(*domain.Record).DatabaseID }),
					},
				},
			},
		},
	}
}

// uuidFieldIndex indexes a uuid.UUID value extracted from a stored object.
// memdb.UUIDFieldIndex expects string fields, so the binary form is used here.
type uuidFieldIndex struct {
	field func(obj any) uuid.UUID
}

func uuidField(field func(obj any) uuid.UUID) *uuidFieldIndex {
	return &uuidFieldIndex{field: field}
}

func (u *uuidFieldIndex) FromObject(obj any) (bool, []byte, error) {
	id := u.field(obj)
	if id == uuid.Nil {
		return false, nil, nil
	}
	buf := make([]byte, len(id))
	copy(buf, id[:])
	return true, buf, nil
}

func (u *uuidFieldIndex) FromArgs(args ...any) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("must provide only a single argument")
	}
	id, ok := args[0].(uuid.UUID)
	if !ok {
		return nil, fmt.Errorf("argument must be a uuid.UUID: %#v", args[0])
	}
	buf := make([]byte, len(id))
	copy(buf, id[:])
	return buf, nil
}
