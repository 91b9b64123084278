package lifecycle

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/auth"
	"github.com/tendant/simple-workspace/pkg/authz"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// TenantInfo is a tenant with its members and a page of its databases.
// Token is an access token scoped to the tenant and the caller's role.
type TenantInfo struct {
	*domain.Tenant
	Members   []domain.Member            `json:"users"`
	Databases []*domain.IsolatedDatabase `json:"databases"`
	Token     string                     `json:"-"`
}

func cleanName(field, name string) (string, error) {
	name = auth.SanitizeName(name)
	if err := auth.ValidateStringLength(field, name, 1, maxNameLength); err != nil {
		return "", err
	}
	return name, nil
}

// CreateTenant creates a tenant with creatorID as its only member, an
// accepted ACTIVE ADMIN.
func (m *Manager) CreateTenant(ctx context.Context, creatorID uuid.UUID, name string) (tenant *domain.Tenant, err error) {
	done := track("create_tenant")
	defer func() { done(err) }()

	name, err = cleanName("tenant_name", name)
	if err != nil {
		return nil, err
	}

	ts := now()
	tenant = &domain.Tenant{
		ID:        uuid.New(),
		Name:      name,
		CreatedBy: creatorID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	err = m.withTx(ctx, "create tenant", func(tx repository.Tx) error {
		creator, err := tx.Users().GetByID(ctx, creatorID)
		if err != nil {
			return err
		}
		if err := tx.Tenants().Create(ctx, tenant); err != nil {
			return err
		}
		return tx.Memberships().Create(ctx, &domain.Membership{
			TenantID:   tenant.ID,
			UserID:     creatorID,
			Name:       creator.Name,
			Role:       domain.RoleAdmin,
			Status:     domain.MemberStatusActive,
			InvitedBy:  creatorID,
			JoinedAt:   ts,
			AcceptedAt: &ts,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		})
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("tenant created", "tenant_id", tenant.ID, "created_by", creatorID)
	return tenant, nil
}

// GetTenantInfo returns the caller's resolved tenant and a token scoped to it.
func (m *Manager) GetTenantInfo(ctx context.Context, ac authz.AuthorizedContext, page repository.Page) (info *TenantInfo, err error) {
	done := track("get_tenant_info")
	defer func() { done(err) }()

	var user *domain.User
	info = &TenantInfo{}
	err = m.read(ctx, func(tx repository.Tx) error {
		var err error
		if info.Tenant, err = tx.Tenants().GetByID(ctx, ac.TenantID); err != nil {
			return err
		}
		memberships, err := tx.Memberships().ListByTenant(ctx, ac.TenantID)
		if err != nil {
			return err
		}
		info.Members = make([]domain.Member, 0, len(memberships))
		for _, ms := range memberships {
			info.Members = append(info.Members, ms.Member())
		}
		if info.Databases, err = tx.Databases().ListByTenant(ctx, ac.TenantID, page); err != nil {
			return err
		}
		user, err = tx.Users().GetByID(ctx, ac.Identity.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if m.tokens != nil {
		if info.Token, err = m.tokens.IssueForUser(user, ac.TenantID, ac.Role); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// UpdateTenant renames a tenant.
func (m *Manager) UpdateTenant(ctx context.Context, tenantID uuid.UUID, name string) (tenant *domain.Tenant, err error) {
	done := track("update_tenant")
	defer func() { done(err) }()

	name, err = cleanName("tenant_name", name)
	if err != nil {
		return nil, err
	}

	err = m.withTx(ctx, "update tenant", func(tx repository.Tx) error {
		var err error
		if tenant, err = tx.Tenants().GetByID(ctx, tenantID); err != nil {
			return err
		}
		tenant.Name = name
		tenant.UpdatedAt = now()
		return tx.Tenants().Update(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// RemoveTenant deletes a tenant with every database, record and membership
// it owns. Nothing is deleted unless everything is.
func (m *Manager) RemoveTenant(ctx context.Context, tenantID uuid.UUID) (err error) {
	done := track("remove_tenant")
	defer func() { done(err) }()

	var databases, members int
	err = m.withTx(ctx, "remove tenant", func(tx repository.Tx) error {
		if _, err := tx.Tenants().GetByID(ctx, tenantID); err != nil {
			return err
		}

		dbs, err := tx.Databases().ListByTenant(ctx, tenantID, repository.All)
		if err != nil {
			return err
		}
		nested := m.InTx(tx)
		for _, db := range dbs {
			if _, err := nested.removeDatabase(ctx, "remove tenant", tenantID, db.ID); err != nil {
				return err
			}
		}
		databases = len(dbs)

		if members, err = tx.Memberships().DeleteByTenant(ctx, tenantID); err != nil {
			return err
		}
		return tx.Tenants().Delete(ctx, tenantID)
	})
	if err != nil {
		return err
	}

	m.logger.Info("tenant removed", "tenant_id", tenantID, "databases", databases, "memberships", members)
	return nil
}
