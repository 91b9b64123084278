package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return s
}

func newUser(email string) *domain.User {
	now := time.Now()
	return &domain.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStore_UpdateCommitsAndRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	committed := newUser("commit@example.com")
	if err := s.Update(ctx, func(tx repository.Tx) error {
		return tx.Users().Create(ctx, committed)
	}); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	rolledBack := newUser("rollback@example.com")
	boom := errors.New("boom")
	err := s.Update(ctx, func(tx repository.Tx) error {
		if err := tx.Users().Create(ctx, rolledBack); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want %v", err, boom)
	}

	err = s.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.Users().GetByID(ctx, committed.ID); err != nil {
			t.Errorf("committed user missing: %v", err)
		}
		if _, err := tx.Users().GetByID(ctx, rolledBack.ID); !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("rolled back user lookup error = %v, want ErrUserNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() failed: %v", err)
	}
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.View(ctx, func(tx repository.Tx) error {
		return tx.Users().Create(ctx, newUser("ro@example.com"))
	})
	if err == nil {
		t.Error("Create inside View should fail")
	}
}

func TestStore_CanceledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Update(ctx, func(tx repository.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Update() error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("fn should not run on a canceled context")
	}
}

func TestUsers_EmailIsUniqueAndCaseInsensitive(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user := newUser("Ada@Example.com")
	err := s.Update(ctx, func(tx repository.Tx) error {
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = s.Update(ctx, func(tx repository.Tx) error {
		return tx.Users().Create(ctx, newUser("ada@example.com"))
	})
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("duplicate Create error = %v, want ErrUserAlreadyExists", err)
	}

	err = s.View(ctx, func(tx repository.Tx) error {
		got, err := tx.Users().GetByEmail(ctx, "ADA@example.COM")
		if err != nil {
			return err
		}
		if got.ID != user.ID {
			t.Errorf("GetByEmail() ID = %v, want %v", got.ID, user.ID)
		}
		exists, err := tx.Users().ExistsByEmail(ctx, "nobody@example.com")
		if err != nil {
			return err
		}
		if exists {
			t.Error("ExistsByEmail() = true for unknown email")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() failed: %v", err)
	}
}

func TestUsers_ReadsReturnCopies(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	user := newUser("copy@example.com")

	_ = s.Update(ctx, func(tx repository.Tx) error { return tx.Users().Create(ctx, user) })

	_ = s.View(ctx, func(tx repository.Tx) error {
		got, _ := tx.Users().GetByID(ctx, user.ID)
		got.Name = "mutated"
		return nil
	})

	_ = s.View(ctx, func(tx repository.Tx) error {
		got, _ := tx.Users().GetByID(ctx, user.ID)
		if got.Name != "Test User" {
			t.Errorf("stored Name = %q, want %q", got.Name, "Test User")
		}
		return nil
	})
}

func TestMemberships_Indexes(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tenantA, tenantB := uuid.New(), uuid.New()
	alice, bob := uuid.New(), uuid.New()
	base := time.Now()

	memberships := []*domain.Membership{
		{TenantID: tenantA, UserID: alice, Role: domain.RoleAdmin, Status: domain.MemberStatusActive, CreatedAt: base},
		{TenantID: tenantA, UserID: bob, Role: domain.RoleEditor, Status: domain.MemberStatusInactive, CreatedAt: base.Add(time.Second)},
		{TenantID: tenantB, UserID: bob, Role: domain.RoleAdmin, Status: domain.MemberStatusActive, CreatedAt: base.Add(2 * time.Second)},
	}

	err := s.Update(ctx, func(tx repository.Tx) error {
		for _, m := range memberships {
			if err := tx.Memberships().Create(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = s.Update(ctx, func(tx repository.Tx) error {
		return tx.Memberships().Create(ctx, memberships[0])
	})
	if !errors.Is(err, domain.ErrAlreadyMember) {
		t.Errorf("duplicate Create error = %v, want ErrAlreadyMember", err)
	}

	err = s.View(ctx, func(tx repository.Tx) error {
		byTenant, err := tx.Memberships().ListByTenant(ctx, tenantA)
		if err != nil {
			return err
		}
		if len(byTenant) != 2 || byTenant[0].UserID != alice || byTenant[1].UserID != bob {
			t.Errorf("ListByTenant(A) = %v, want [alice bob]", byTenant)
		}

		byUser, err := tx.Memberships().ListByUser(ctx, bob)
		if err != nil {
			return err
		}
		if len(byUser) != 2 || byUser[0].TenantID != tenantA || byUser[1].TenantID != tenantB {
			t.Errorf("ListByUser(bob) = %v, want [A B]", byUser)
		}

		m, err := tx.Memberships().Get(ctx, tenantB, bob)
		if err != nil {
			return err
		}
		if m.Role != domain.RoleAdmin {
			t.Errorf("Get(B, bob).Role = %v, want ADMIN", m.Role)
		}

		if _, err := tx.Memberships().Get(ctx, tenantB, alice); !errors.Is(err, domain.ErrMembershipNotFound) {
			t.Errorf("Get(B, alice) error = %v, want ErrMembershipNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() failed: %v", err)
	}

	err = s.Update(ctx, func(tx repository.Tx) error {
		n, err := tx.Memberships().DeleteByTenant(ctx, tenantA)
		if err != nil {
			return err
		}
		if n != 2 {
			t.Errorf("DeleteByTenant(A) = %d, want 2", n)
		}
		left, err := tx.Memberships().ListByUser(ctx, bob)
		if err != nil {
			return err
		}
		if len(left) != 1 || left[0].TenantID != tenantB {
			t.Errorf("ListByUser(bob) after delete = %v, want [B]", left)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
}

func TestDatabasesAndRecords(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	tenantID := uuid.New()
	base := time.Now()

	var dbs []*domain.IsolatedDatabase
	for i := 0; i < 3; i++ {
		dbs = append(dbs, &domain.IsolatedDatabase{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Name:      "db",
			Fields:    []domain.FieldDefinition{{FieldID: uuid.New(), Type: domain.FieldTypeText, Title: "T", Label: "T"}},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	rec := &domain.Record{
		ID:         uuid.New(),
		DatabaseID: dbs[0].ID,
		Values:     []domain.FieldValue{{FieldID: dbs[0].Fields[0].FieldID, Value: json.RawMessage(`"x"`)}},
		CreatedAt:  base,
	}

	err := s.Update(ctx, func(tx repository.Tx) error {
		for _, db := range dbs {
			if err := tx.Databases().Create(ctx, db); err != nil {
				return err
			}
		}
		return tx.Records().Create(ctx, rec)
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = s.Update(ctx, func(tx repository.Tx) error {
		return tx.Records().Create(ctx, &domain.Record{ID: uuid.New(), DatabaseID: uuid.New()})
	})
	if !errors.Is(err, domain.ErrIsolatedDatabaseNotFound) {
		t.Errorf("orphan record Create error = %v, want ErrIsolatedDatabaseNotFound", err)
	}

	err = s.View(ctx, func(tx repository.Tx) error {
		page, err := tx.Databases().ListByTenant(ctx, tenantID, repository.Page{Limit: 2, Offset: 1})
		if err != nil {
			return err
		}
		if len(page) != 2 || page[0].ID != dbs[1].ID || page[1].ID != dbs[2].ID {
			t.Errorf("ListByTenant(page 2) returned wrong window: %v", page)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() failed: %v", err)
	}

	moved := *dbs[0]
	moved.TenantID = uuid.New()
	moved.Name = "renamed"
	err = s.Update(ctx, func(tx repository.Tx) error {
		return tx.Databases().Update(ctx, &moved)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = s.Update(ctx, func(tx repository.Tx) error {
		got, err := tx.Databases().GetByID(ctx, dbs[0].ID)
		if err != nil {
			return err
		}
		if got.TenantID != tenantID {
			t.Errorf("TenantID changed to %v, want %v", got.TenantID, tenantID)
		}
		if got.Name != "renamed" {
			t.Errorf("Name = %q, want %q", got.Name, "renamed")
		}

		n, err := tx.Records().DeleteByDatabase(ctx, dbs[0].ID)
		if err != nil {
			return err
		}
		if n != 1 {
			t.Errorf("DeleteByDatabase() = %d, want 1", n)
		}
		if _, err := tx.Records().GetByID(ctx, rec.ID); !errors.Is(err, domain.ErrRecordNotFound) {
			t.Errorf("GetByID after delete error = %v, want ErrRecordNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
}
