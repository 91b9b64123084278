package authz

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tendant/simple-workspace/pkg/auth"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/metrics"
	"github.com/tendant/simple-workspace/pkg/repository"
	"github.com/tendant/simple-workspace/pkg/repository/memory"
)

type fixture struct {
	authz   *Authorizer
	tokens  *auth.TokenService
	store   *memory.Store
	alice   *domain.User
	bob     *domain.User
	carol   *domain.User
	tenantA *domain.Tenant
	tenantB *domain.Tenant
	dbA     *domain.IsolatedDatabase
	dbB     *domain.IsolatedDatabase
	recordA *domain.Record
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := memory.New()
	if err != nil {
		t.Fatalf("memory.New() failed: %v", err)
	}
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: []byte("0123456789abcdef0123456789abcdef"), Issuer: "test"})
	f := &fixture{
		authz:  New(tokens, store, slog.New(slog.NewTextHandler(io.Discard, nil))),
		tokens: tokens,
		store:  store,
	}

	now := time.Now()
	user := func(name string) *domain.User {
		return &domain.User{ID: uuid.New(), Name: name, Email: name + "@example.com", CreatedAt: now}
	}
	f.alice, f.bob, f.carol = user("alice"), user("bob"), user("carol")
	f.tenantA = &domain.Tenant{ID: uuid.New(), Name: "Acme", CreatedBy: f.alice.ID, CreatedAt: now}
	f.tenantB = &domain.Tenant{ID: uuid.New(), Name: "Globex", CreatedBy: f.carol.ID, CreatedAt: now}
	field := domain.FieldDefinition{FieldID: uuid.New(), Type: domain.FieldTypeText, Title: "Title", Label: "Title"}
	f.dbA = &domain.IsolatedDatabase{ID: uuid.New(), TenantID: f.tenantA.ID, CreatedBy: f.alice.ID, Name: "Tasks", Fields: []domain.FieldDefinition{field}, CreatedAt: now}
	f.dbB = &domain.IsolatedDatabase{ID: uuid.New(), TenantID: f.tenantB.ID, CreatedBy: f.alice.ID, Name: "Other", Fields: []domain.FieldDefinition{field}, CreatedAt: now}
	f.recordA = &domain.Record{ID: uuid.New(), DatabaseID: f.dbA.ID, CreatedBy: f.bob.ID, Values: []domain.FieldValue{{FieldID: field.FieldID, Value: json.RawMessage(`"write"`)}}, CreatedAt: now}

	err = store.Update(context.Background(), func(tx repository.Tx) error {
		ctx := context.Background()
		for _, u := range []*domain.User{f.alice, f.bob, f.carol} {
			if err := tx.Users().Create(ctx, u); err != nil {
				return err
			}
		}
		for _, tn := range []*domain.Tenant{f.tenantA, f.tenantB} {
			if err := tx.Tenants().Create(ctx, tn); err != nil {
				return err
			}
		}
		memberships := []*domain.Membership{
			{TenantID: f.tenantA.ID, UserID: f.alice.ID, Role: domain.RoleAdmin, Status: domain.MemberStatusActive, AcceptedAt: &now, CreatedAt: now},
			{TenantID: f.tenantA.ID, UserID: f.bob.ID, Role: domain.RoleEditor, Status: domain.MemberStatusActive, AcceptedAt: &now, CreatedAt: now},
			{TenantID: f.tenantB.ID, UserID: f.carol.ID, Role: domain.RoleAdmin, Status: domain.MemberStatusActive, AcceptedAt: &now, CreatedAt: now},
			{TenantID: f.tenantB.ID, UserID: f.alice.ID, Role: domain.RoleAdmin, Status: domain.MemberStatusActive, AcceptedAt: &now, CreatedAt: now},
		}
		for _, m := range memberships {
			if err := tx.Memberships().Create(ctx, m); err != nil {
				return err
			}
		}
		for _, db := range []*domain.IsolatedDatabase{f.dbA, f.dbB} {
			if err := tx.Databases().Create(ctx, db); err != nil {
				return err
			}
		}
		return tx.Records().Create(ctx, f.recordA)
	})
	if err != nil {
		t.Fatalf("seeding failed: %v", err)
	}
	return f
}

func (f *fixture) token(t *testing.T, u *domain.User) string {
	t.Helper()
	token, err := f.tokens.IssueForUser(u, uuid.Nil, "")
	if err != nil {
		t.Fatalf("IssueForUser failed: %v", err)
	}
	return token
}

func TestAuthorize_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ac, err := f.authz.Authorize(ctx, Request{Token: f.token(t, f.alice)})
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if ac.Identity.UserID != f.alice.ID {
		t.Errorf("UserID = %v, want %v", ac.Identity.UserID, f.alice.ID)
	}
	if ac.Identity.Email != "alice@example.com" {
		t.Errorf("Email = %v, want alice@example.com", ac.Identity.Email)
	}
	if ac.HasTenant() {
		t.Error("HasTenant() = true without ResolveMembership")
	}

	for _, token := range []string{"", "garbage"} {
		_, err := f.authz.Authorize(ctx, Request{Token: token, PathTenantID: f.tenantA.ID.String()}, ResolveMembership())
		if !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("Authorize(%q) error = %v, want ErrInvalidToken", token, err)
		}
		var authzErr *Error
		if !errors.As(err, &authzErr) || authzErr.Check != "authenticate" {
			t.Errorf("Authorize(%q) should stop at authenticate, got %v", token, err)
		}
	}
}

func TestAuthorize_ResolveMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scoped, err := f.tokens.IssueForUser(f.alice, f.tenantB.ID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueForUser failed: %v", err)
	}

	tests := []struct {
		name       string
		req        Request
		wantErr    error
		wantTenant uuid.UUID
		wantRole   domain.Role
	}{
		{
			name:       "path tenant",
			req:        Request{Token: f.token(t, f.bob), PathTenantID: f.tenantA.ID.String()},
			wantTenant: f.tenantA.ID,
			wantRole:   domain.RoleEditor,
		},
		{
			name:       "path wins over body",
			req:        Request{Token: f.token(t, f.alice), PathTenantID: f.tenantA.ID.String(), BodyTenantID: f.tenantB.ID.String()},
			wantTenant: f.tenantA.ID,
			wantRole:   domain.RoleAdmin,
		},
		{
			name:       "body wins over query",
			req:        Request{Token: f.token(t, f.alice), BodyTenantID: f.tenantB.ID.String(), QueryTenantID: f.tenantA.ID.String()},
			wantTenant: f.tenantB.ID,
			wantRole:   domain.RoleAdmin,
		},
		{
			name:       "query tenant",
			req:        Request{Token: f.token(t, f.bob), QueryTenantID: f.tenantA.ID.String()},
			wantTenant: f.tenantA.ID,
			wantRole:   domain.RoleEditor,
		},
		{
			name:       "token claim fallback",
			req:        Request{Token: scoped},
			wantTenant: f.tenantB.ID,
			wantRole:   domain.RoleAdmin,
		},
		{
			name:    "not a member",
			req:     Request{Token: f.token(t, f.carol), PathTenantID: f.tenantA.ID.String()},
			wantErr: domain.ErrNotAMember,
		},
		{
			name:    "missing tenant",
			req:     Request{Token: f.token(t, f.bob)},
			wantErr: domain.ErrNotAMember,
		},
		{
			name:    "malformed tenant id",
			req:     Request{Token: f.token(t, f.bob), PathTenantID: "acme"},
			wantErr: domain.ErrNotAMember,
		},
		{
			name:    "unknown tenant",
			req:     Request{Token: f.token(t, f.bob), PathTenantID: uuid.NewString()},
			wantErr: domain.ErrNotAMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac, err := f.authz.Authorize(ctx, tt.req, ResolveMembership())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Authorize() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}
			if ac.TenantID != tt.wantTenant {
				t.Errorf("TenantID = %v, want %v", ac.TenantID, tt.wantTenant)
			}
			if ac.Role != tt.wantRole {
				t.Errorf("Role = %v, want %v", ac.Role, tt.wantRole)
			}
		})
	}
}

func TestAuthorize_RequireRoleIsExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *domain.User
		role    domain.Role
		wantErr error
	}{
		{"admin on admin route", f.alice, domain.RoleAdmin, nil},
		{"editor on editor route", f.bob, domain.RoleEditor, nil},
		{"admin on editor route", f.alice, domain.RoleEditor, domain.ErrInsufficientRole},
		{"editor on admin route", f.bob, domain.RoleAdmin, domain.ErrInsufficientRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{Token: f.token(t, tt.user), PathTenantID: f.tenantA.ID.String()}
			_, err := f.authz.Authorize(ctx, req, ResolveMembership(), RequireRole(tt.role))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	_, err := f.authz.Authorize(ctx, Request{Token: f.token(t, f.alice)}, RequireRole(domain.RoleAdmin))
	if !errors.Is(err, domain.ErrInsufficientRole) {
		t.Errorf("RequireRole without membership error = %v, want ErrInsufficientRole", err)
	}
}

func TestAuthorize_RoleComesFromMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// bob is an EDITOR of tenant A; the token claims ADMIN.
	token, err := f.tokens.IssueForUser(f.bob, f.tenantA.ID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueForUser failed: %v", err)
	}

	ac, err := f.authz.Authorize(ctx, Request{Token: token}, ResolveMembership())
	if err != nil {
		t.Fatalf("Authorize() failed: %v", err)
	}
	if ac.TenantID != f.tenantA.ID {
		t.Errorf("TenantID = %v, want %v", ac.TenantID, f.tenantA.ID)
	}
	if ac.Role != domain.RoleEditor {
		t.Errorf("Role = %v, want %v", ac.Role, domain.RoleEditor)
	}

	_, err = f.authz.Authorize(ctx, Request{Token: token}, ResolveMembership(), RequireRole(domain.RoleAdmin))
	if !errors.Is(err, domain.ErrInsufficientRole) {
		t.Errorf("Authorize(admin route) error = %v, want ErrInsufficientRole", err)
	}
}

func TestAuthorize_RequireOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := func(u *domain.User, tenant *domain.Tenant, ids map[ResourceKind]string) Request {
		return Request{Token: f.token(t, u), BodyTenantID: tenant.ID.String(), ResourceIDs: ids}
	}

	tests := []struct {
		name    string
		req     Request
		kind    ResourceKind
		wantErr error
	}{
		{
			name: "tenant creator",
			req:  req(f.alice, f.tenantA, nil),
			kind: ResourceTenant,
		},
		{
			name:    "tenant member but not creator",
			req:     req(f.bob, f.tenantA, nil),
			kind:    ResourceTenant,
			wantErr: domain.ErrNotOwner,
		},
		{
			name: "database creator",
			req:  req(f.alice, f.tenantA, map[ResourceKind]string{ResourceDatabase: f.dbA.ID.String()}),
			kind: ResourceDatabase,
		},
		{
			name:    "database of another tenant",
			req:     req(f.alice, f.tenantA, map[ResourceKind]string{ResourceDatabase: f.dbB.ID.String()}),
			kind:    ResourceDatabase,
			wantErr: domain.ErrNotOwner,
		},
		{
			name: "record creator",
			req:  req(f.bob, f.tenantA, map[ResourceKind]string{ResourceRecord: f.recordA.ID.String()}),
			kind: ResourceRecord,
		},
		{
			name:    "record not created by caller",
			req:     req(f.alice, f.tenantA, map[ResourceKind]string{ResourceRecord: f.recordA.ID.String()}),
			kind:    ResourceRecord,
			wantErr: domain.ErrNotOwner,
		},
		{
			name:    "missing record id",
			req:     req(f.bob, f.tenantA, nil),
			kind:    ResourceRecord,
			wantErr: domain.ErrNotOwner,
		},
		{
			name:    "unknown record",
			req:     req(f.bob, f.tenantA, map[ResourceKind]string{ResourceRecord: uuid.NewString()}),
			kind:    ResourceRecord,
			wantErr: domain.ErrNotOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.authz.Authorize(ctx, tt.req, ResolveMembership(), RequireOwnership(tt.kind))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthorize_RecordsDecisions(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(metrics.AuthzDecisions.WithLabelValues("resolve_membership", metrics.OutcomeDeny))

	_, _ = f.authz.Authorize(context.Background(),
		Request{Token: f.token(t, f.carol), PathTenantID: f.tenantA.ID.String()}, ResolveMembership())

	after := testutil.ToFloat64(metrics.AuthzDecisions.WithLabelValues("resolve_membership", metrics.OutcomeDeny))
	if after-before != 1 {
		t.Errorf("resolve_membership/deny increased by %v, want 1", after-before)
	}
}

func TestContext(t *testing.T) {
	ac := AuthorizedContext{TenantID: uuid.New(), Role: domain.RoleViewer}
	ctx := NewContext(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("FromContext() ok = false")
	}
	if got != ac {
		t.Errorf("FromContext() = %+v, want %+v", got, ac)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext(empty) ok = true")
	}
}

func TestResourceKind(t *testing.T) {
	tests := []struct {
		kind  ResourceKind
		name  string
		idKey string
	}{
		{ResourceTenant, "tenant", "tenant_id"},
		{ResourceDatabase, "isolated_database", "isolated_db_id"},
		{ResourceRecord, "record", "record_id"},
	}
	for _, tt := range tests {
		if tt.kind.String() != tt.name {
			t.Errorf("String() = %v, want %v", tt.kind.String(), tt.name)
		}
		if tt.kind.IDKey() != tt.idKey {
			t.Errorf("IDKey() = %v, want %v", tt.kind.IDKey(), tt.idKey)
		}
	}
	if ResourceKind(0).Valid() {
		t.Error("zero ResourceKind should be invalid")
	}
}
