package memory

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// Stored objects are never mutated in place: every write inserts a copy and
// every read returns one.

func first[T any](txn *memdb.Txn, table, index string, args ...any) (*T, error) {
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*T), nil
}

func list[T any](txn *memdb.Txn, table, index string, args ...any) ([]*T, error) {
	it, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, err
	}
	var out []*T
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*T))
	}
	return out, nil
}

func byCreated[T any](created func(*T) time.Time, id func(*T) uuid.UUID) func(a, b *T) int {
	return func(a, b *T) int {
		if c := created(a).Compare(created(b)); c != 0 {
			return c
		}
		return strings.Compare(id(a).String(), id(b).String())
	}
}

func window[T any](items []*T, page repository.Page) []*T {
	start, end := page.Apply(len(items))
	return items[start:end]
}

type usersRepo struct {
	txn *memdb.Txn
}

func (r *usersRepo) Create(_ context.Context, user *domain.User) error {
	existing, err := first[domain.User](r.txn, usersTable, byEmail, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrUserAlreadyExists
	}
	u := *user
	return r.txn.Insert(usersTable, &u)
}

func (r *usersRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := first[domain.User](r.txn, usersTable, pk, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *usersRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, err := first[domain.User](r.txn, usersTable, byEmail, strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *usersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := first[domain.User](r.txn, usersTable, byEmail, strings.ToLower(email))
	return u != nil, err
}

func (r *usersRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.Verified = true
	u.UpdatedAt = time.Now()
	return r.txn.Insert(usersTable, u)
}

type tenantsRepo struct {
	txn *memdb.Txn
}

func (r *tenantsRepo) Create(_ context.Context, tenant *domain.Tenant) error {
	existing, err := first[domain.Tenant](r.txn, tenantsTable, pk, tenant.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrConflict
	}
	t := *tenant
	return r.txn.Insert(tenantsTable, &t)
}

func (r *tenantsRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, err := first[domain.Tenant](r.txn, tenantsTable, pk, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrTenantNotFound
	}
	c := *t
	return &c, nil
}

func (r *tenantsRepo) Update(ctx context.Context, tenant *domain.Tenant) error {
	stored, err := r.GetByID(ctx, tenant.ID)
	if err != nil {
		return err
	}
	stored.Name = tenant.Name
	stored.UpdatedAt = tenant.UpdatedAt
	return r.txn.Insert(tenantsTable, stored)
}

func (r *tenantsRepo) Delete(_ context.Context, id uuid.UUID) error {
	t, err := first[domain.Tenant](r.txn, tenantsTable, pk, id)
	if err != nil {
		return err
	}
	if t == nil {
		return domain.ErrTenantNotFound
	}
	return r.txn.Delete(tenantsTable, t)
}

type membershipsRepo struct {
	txn *memdb.Txn
}

func copyMembership(m *domain.Membership) *domain.Membership {
	c := *m
	if m.AcceptedAt != nil {
		at := *m.AcceptedAt
		c.AcceptedAt = &at
	}
	return &c
}

func (r *membershipsRepo) Create(_ context.Context, m *domain.Membership) error {
	existing, err := first[domain.Membership](r.txn, membershipsTable, pk, m.TenantID, m.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrAlreadyMember
	}
	return r.txn.Insert(membershipsTable, copyMembership(m))
}

func (r *membershipsRepo) Get(_ context.Context, tenantID, userID uuid.UUID) (*domain.Membership, error) {
	m, err := first[domain.Membership](r.txn, membershipsTable, pk, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrMembershipNotFound
	}
	return copyMembership(m), nil
}

func (r *membershipsRepo) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	return r.list(byTenant, tenantID)
}

func (r *membershipsRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Membership, error) {
	return r.list(byUser, userID)
}

func (r *membershipsRepo) list(index string, id uuid.UUID) ([]*domain.Membership, error) {
	stored, err := list[domain.Membership](r.txn, membershipsTable, index, id)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Membership, 0, len(stored))
	for _, m := range stored {
		out = append(out, copyMembership(m))
	}
	slices.SortStableFunc(out, func(a, b *domain.Membership) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if c := strings.Compare(a.TenantID.String(), b.TenantID.String()); c != 0 {
			return c
		}
		return strings.Compare(a.UserID.String(), b.UserID.String())
	})
	return out, nil
}

func (r *membershipsRepo) Update(ctx context.Context, m *domain.Membership) error {
	stored, err := r.Get(ctx, m.TenantID, m.UserID)
	if err != nil {
		return err
	}
	stored.Role = m.Role
	stored.Status = m.Status
	stored.JoinedAt = m.JoinedAt
	stored.AcceptedAt = m.AcceptedAt
	stored.UpdatedAt = m.UpdatedAt
	return r.txn.Insert(membershipsTable, copyMembership(stored))
}

func (r *membershipsRepo) Delete(_ context.Context, tenantID, userID uuid.UUID) error {
	m, err := first[domain.Membership](r.txn, membershipsTable, pk, tenantID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return domain.ErrMembershipNotFound
	}
	return r.txn.Delete(membershipsTable, m)
}

func (r *membershipsRepo) DeleteByTenant(_ context.Context, tenantID uuid.UUID) (int, error) {
	return r.txn.DeleteAll(membershipsTable, byTenant, tenantID)
}

type databasesRepo struct {
	txn *memdb.Txn
}

func copyDatabase(db *domain.IsolatedDatabase) *domain.IsolatedDatabase {
	c := *db
	if db.Fields != nil {
		c.Fields = make([]domain.FieldDefinition, len(db.Fields))
		for i, f := range db.Fields {
			c.Fields[i] = f
			c.Fields[i].Options = slices.Clone(f.Options)
			if f.RefID != nil {
				ref := *f.RefID
				c.Fields[i].RefID = &ref
			}
		}
	}
	return &c
}

func (r *databasesRepo) Create(_ context.Context, db *domain.IsolatedDatabase) error {
	existing, err := first[domain.IsolatedDatabase](r.txn, databasesTable, pk, db.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrConflict
	}
	return r.txn.Insert(databasesTable, copyDatabase(db))
}

func (r *databasesRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.IsolatedDatabase, error) {
	db, err := first[domain.IsolatedDatabase](r.txn, databasesTable, pk, id)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, domain.ErrIsolatedDatabaseNotFound
	}
	return copyDatabase(db), nil
}

func (r *databasesRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, page repository.Page) ([]*domain.IsolatedDatabase, error) {
	stored, err := list[domain.IsolatedDatabase](r.txn, databasesTable, byTenant, tenantID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(stored, byCreated(
		func(d *domain.IsolatedDatabase) time.Time { return d.CreatedAt },
		func(d *domain.IsolatedDatabase) uuid.UUID { return d.ID },
	))
	stored = window(stored, page)

	out := make([]*domain.IsolatedDatabase, 0, len(stored))
	for _, db := range stored {
		out = append(out, copyDatabase(db))
	}
	return out, nil
}

func (r *databasesRepo) Update(ctx context.Context, db *domain.IsolatedDatabase) error {
	stored, err := r.GetByID(ctx, db.ID)
	if err != nil {
		return err
	}
	next := copyDatabase(db)
	next.TenantID = stored.TenantID
	next.CreatedBy = stored.CreatedBy
	next.CreatedAt = stored.CreatedAt
	return r.txn.Insert(databasesTable, next)
}

func (r *databasesRepo) Delete(_ context.Context, id uuid.UUID) error {
	db, err := first[domain.IsolatedDatabase](r.txn, databasesTable, pk, id)
	if err != nil {
		return err
	}
	if db == nil {
		return domain.ErrIsolatedDatabaseNotFound
	}
	return r.txn.Delete(databasesTable, db)
}

type recordsRepo struct {
	txn *memdb.Txn
}

func copyRecord(rec *domain.Record) *domain.Record {
	c := *rec
	if rec.Values != nil {
		c.Values = make([]domain.FieldValue, len(rec.Values))
		for i, v := range rec.Values {
			c.Values[i] = v
			c.Values[i].Value = json.RawMessage(slices.Clone([]byte(v.Value)))
		}
	}
	return &c
}

func (r *recordsRepo) Create(_ context.Context, rec *domain.Record) error {
	existing, err := first[domain.Record](r.txn, recordsTable, pk, rec.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrConflict
	}
	parent, err := first[domain.IsolatedDatabase](r.txn, databasesTable, pk, rec.DatabaseID)
	if err != nil {
		return err
	}
	if parent == nil {
		return domain.ErrIsolatedDatabaseNotFound
	}
	return r.txn.Insert(recordsTable, copyRecord(rec))
}

func (r *recordsRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Record, error) {
	rec, err := first[domain.Record](r.txn, recordsTable, pk, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrRecordNotFound
	}
	return copyRecord(rec), nil
}

func (r *recordsRepo) ListByDatabase(_ context.Context, databaseID uuid.UUID, page repository.Page) ([]*domain.Record, error) {
	stored, err := list[domain.Record](r.txn, recordsTable, byDatabase, databaseID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(stored, byCreated(
		func(rec *domain.Record) time.Time { return rec.CreatedAt },
		func(rec *domain.Record) uuid.UUID { return rec.ID },
	))
	stored = window(stored, page)

	out := make([]*domain.Record, 0, len(stored))
	for _, rec := range stored {
		out = append(out, copyRecord(rec))
	}
	return out, nil
}

func (r *recordsRepo) Update(ctx context.Context, rec *domain.Record) error {
	stored, err := r.GetByID(ctx, rec.ID)
	if err != nil {
		return err
	}
	next := copyRecord(rec)
	next.DatabaseID = stored.DatabaseID
	next.CreatedBy = stored.CreatedBy
	next.CreatedAt = stored.CreatedAt
	return r.txn.Insert(recordsTable, next)
}

func (r *recordsRepo) Delete(_ context.Context, id uuid.UUID) error {
	rec, err := first[domain.Record](r.txn, recordsTable, pk, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrRecordNotFound
	}
	return r.txn.Delete(recordsTable, rec)
}

func (r *recordsRepo) DeleteByDatabase(_ context.Context, databaseID uuid.UUID) (int, error) {
	return r.txn.DeleteAll(recordsTable, byDatabase, databaseID)
}
