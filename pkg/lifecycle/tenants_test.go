package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

func TestCreateTenant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")

	tenant, err := h.manager.CreateTenant(ctx, alice.ID, "  Acme  ")
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	if tenant.Name != "Acme" {
		t.Errorf("Name = %q, want Acme", tenant.Name)
	}
	if tenant.CreatedBy != alice.ID {
		t.Errorf("CreatedBy = %v, want %v", tenant.CreatedBy, alice.ID)
	}

	members, refs := h.membershipViews(t, tenant.ID, alice.ID)
	if len(members) != 1 {
		t.Fatalf("len(members) = %d, want 1", len(members))
	}
	if members[0].UserID != alice.ID || members[0].Role != domain.RoleAdmin || members[0].Status != domain.MemberStatusActive {
		t.Errorf("creator member = %+v, want ACTIVE ADMIN alice", members[0])
	}
	ref, ok := findRef(refs, tenant.ID)
	if !ok || ref.Role != domain.RoleAdmin {
		t.Errorf("creator ref = %+v, %v, want ADMIN ref", ref, ok)
	}
}

func TestCreateTenant_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")

	if _, err := h.manager.CreateTenant(ctx, alice.ID, "   "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty name error = %v, want ErrValidation", err)
	}

	_, err := h.manager.CreateTenant(ctx, uuid.New(), "Ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("unknown creator error = %v, want ErrUserNotFound", err)
	}
	if !errors.Is(err, domain.ErrTransactionAborted) {
		t.Errorf("unknown creator error = %v, want ErrTransactionAborted", err)
	}
}

func TestGetTenantInfo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")

	tenant, err := h.manager.CreateTenant(ctx, alice.ID, "Acme")
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	ac := h.as(t, alice, tenant.ID)
	for _, name := range []string{"One", "Two", "Three"} {
		if _, err := h.manager.CreateIsolatedDatabase(ctx, ac, DatabaseInput{Name: name, Fields: []domain.FieldDefinition{}}); err != nil {
			t.Fatalf("CreateIsolatedDatabase failed: %v", err)
		}
	}

	info, err := h.manager.GetTenantInfo(ctx, ac, repository.NewPage(2, 2))
	if err != nil {
		t.Fatalf("GetTenantInfo failed: %v", err)
	}
	if info.ID != tenant.ID {
		t.Errorf("ID = %v, want %v", info.ID, tenant.ID)
	}
	if len(info.Members) != 1 {
		t.Errorf("len(Members) = %d, want 1", len(info.Members))
	}
	if len(info.Databases) != 1 || info.Databases[0].Name != "Three" {
		t.Errorf("page 2 databases = %v, want [Three]", info.Databases)
	}

	claims, err := h.tokens.Verify(info.Token)
	if err != nil {
		t.Fatalf("Verify(info token) failed: %v", err)
	}
	if got, ok := claims.ActiveTenantID(); !ok || got != tenant.ID {
		t.Errorf("token tenant = %v, want %v", got, tenant.ID)
	}
	if claims.Role != domain.RoleAdmin {
		t.Errorf("token role = %v, want ADMIN", claims.Role)
	}

	raw, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var shape map[string]any
	_ = json.Unmarshal(raw, &shape)
	for _, key := range []string{"id", "tenant_name", "users", "databases"} {
		if _, ok := shape[key]; !ok {
			t.Errorf("tenant info JSON missing %q", key)
		}
	}
}

func TestUpdateTenant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	tenant, _ := h.manager.CreateTenant(ctx, alice.ID, "Acme")

	updated, err := h.manager.UpdateTenant(ctx, tenant.ID, "Acme Corp")
	if err != nil {
		t.Fatalf("UpdateTenant failed: %v", err)
	}
	if updated.Name != "Acme Corp" {
		t.Errorf("Name = %q, want Acme Corp", updated.Name)
	}

	if _, err := h.manager.UpdateTenant(ctx, uuid.New(), "x"); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("unknown tenant error = %v, want ErrTenantNotFound", err)
	}
}

func TestRemoveTenant_Cascade(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, bob := h.user(t, "alice"), h.user(t, "bob")

	tenant, _ := h.manager.CreateTenant(ctx, alice.ID, "Acme")
	other, _ := h.manager.CreateTenant(ctx, alice.ID, "Globex")
	ac := h.as(t, alice, tenant.ID)

	if _, err := h.manager.InviteContributor(ctx, ac, InviteInput{InviteeEmail: bob.Email}); err != nil {
		t.Fatalf("InviteContributor failed: %v", err)
	}
	if _, err := h.manager.AcceptInvitation(ctx, tenant.ID, bob.ID); err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}

	var dbIDs, recordIDs []uuid.UUID
	for _, name := range []string{"Tasks", "Notes"} {
		db := createTasksDatabase(t, h, ac, name)
		dbIDs = append(dbIDs, db.ID)
		rec, err := h.manager.CreateRecord(ctx, ac, RecordInput{
			DatabaseID: db.ID,
			Values:     []domain.FieldValue{{FieldID: db.Fields[0].FieldID, Value: json.RawMessage(`"x"`)}},
		})
		if err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
		recordIDs = append(recordIDs, rec.ID)
	}
	kept := createTasksDatabase(t, h, h.as(t, alice, other.ID), "Kept")

	if err := h.manager.RemoveTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("RemoveTenant failed: %v", err)
	}

	err := h.store.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.Tenants().GetByID(ctx, tenant.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("tenant lookup error = %v, want not found", err)
		}
		for _, id := range dbIDs {
			if _, err := tx.Databases().GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("database %v lookup error = %v, want not found", id, err)
			}
		}
		for _, id := range recordIDs {
			if _, err := tx.Records().GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("record %v lookup error = %v, want not found", id, err)
			}
		}
		if _, err := tx.Databases().GetByID(ctx, kept.ID); err != nil {
			t.Errorf("database of another tenant was removed: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	for _, u := range []*domain.User{alice, bob} {
		members, refs := h.membershipViews(t, tenant.ID, u.ID)
		if len(members) != 0 {
			t.Errorf("members after removal = %v, want none", members)
		}
		if _, ok := findRef(refs, tenant.ID); ok {
			t.Errorf("user %s still references removed tenant", u.Name)
		}
	}
	if _, refs := h.membershipViews(t, other.ID, alice.ID); len(refs) != 1 {
		t.Errorf("alice refs = %v, want only Globex", refs)
	}
}

func TestRemoveTenant_Twice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	tenant, _ := h.manager.CreateTenant(ctx, alice.ID, "Acme")

	if err := h.manager.RemoveTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("first RemoveTenant failed: %v", err)
	}
	err := h.manager.RemoveTenant(ctx, tenant.ID)
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("second RemoveTenant error = %v, want ErrTenantNotFound", err)
	}
}

// faultyStore fails the nth database delete of any write transaction.
type faultyStore struct {
	repository.Store
	failAt  int32
	deletes atomic.Int32
}

var errInjected = errors.New("injected failure")

func (s *faultyStore) Update(ctx context.Context, fn func(repository.Tx) error) error {
	return s.Store.Update(ctx, func(tx repository.Tx) error {
		return fn(&faultyTx{Tx: tx, store: s})
	})
}

type faultyTx struct {
	repository.Tx
	store *faultyStore
}

func (t *faultyTx) Databases() repository.DatabaseStore {
	return &faultyDatabases{DatabaseStore: t.Tx.Databases(), store: t.store}
}

type faultyDatabases struct {
	repository.DatabaseStore
	store *faultyStore
}

func (d *faultyDatabases) Delete(ctx context.Context, id uuid.UUID) error {
	if d.store.deletes.Add(1) == d.store.failAt {
		return errInjected
	}
	return d.DatabaseStore.Delete(ctx, id)
}

func TestRemoveTenant_FailureLeavesEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	tenant, _ := h.manager.CreateTenant(ctx, alice.ID, "Acme")
	ac := h.as(t, alice, tenant.ID)

	var dbs []*domain.IsolatedDatabase
	var records []*domain.Record
	for i := 0; i < 4; i++ {
		db := createTasksDatabase(t, h, ac, "db")
		dbs = append(dbs, db)
		rec, err := h.manager.CreateRecord(ctx, ac, RecordInput{
			DatabaseID: db.ID,
			Values:     []domain.FieldValue{{FieldID: db.Fields[0].FieldID, Value: json.RawMessage(`1`)}},
		})
		if err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
		records = append(records, rec)
	}

	faulty := &faultyStore{Store: h.store, failAt: 3}
	fh := newHarnessWithStore(t, faulty)

	err := fh.manager.RemoveTenant(ctx, tenant.ID)
	if !errors.Is(err, errInjected) {
		t.Fatalf("RemoveTenant error = %v, want injected failure", err)
	}
	if !errors.Is(err, domain.ErrTransactionAborted) {
		t.Errorf("RemoveTenant error = %v, want ErrTransactionAborted", err)
	}

	err = h.store.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.Tenants().GetByID(ctx, tenant.ID); err != nil {
			t.Errorf("tenant missing after failed cascade: %v", err)
		}
		for _, db := range dbs {
			if _, err := tx.Databases().GetByID(ctx, db.ID); err != nil {
				t.Errorf("database %v missing after failed cascade: %v", db.ID, err)
			}
		}
		for _, rec := range records {
			if _, err := tx.Records().GetByID(ctx, rec.ID); err != nil {
				t.Errorf("record %v missing after failed cascade: %v", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if _, refs := h.membershipViews(t, tenant.ID, alice.ID); len(refs) != 1 {
		t.Errorf("creator membership lost after failed cascade: %v", refs)
	}
}
