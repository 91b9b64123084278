package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/auth"
	"github.com/tendant/simple-workspace/pkg/authz"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// InviteInput names the user to invite. TenantName and InviterName override
// the names shown in the invitation.
type InviteInput struct {
	InviteeEmail string
	TenantName   string
	InviterName  string
}

// InviteContributor adds a registered user to the caller's tenant as an
// INACTIVE EDITOR and sends them a join link. The invitee gains the tenant
// in their own list only after accepting. If the invitation cannot be
// delivered the membership is not kept.
func (m *Manager) InviteContributor(ctx context.Context, ac authz.AuthorizedContext, in InviteInput) (member *domain.Member, err error) {
	done := track("invite_contributor")
	defer func() { done(err) }()

	email := auth.NormalizeEmail(in.InviteeEmail)
	if err := auth.ValidateEmail(email, false); err != nil {
		return nil, err
	}

	var tenant *domain.Tenant
	var invitee *domain.User
	err = m.withTx(ctx, "invite contributor", func(tx repository.Tx) error {
		var err error
		tenant, err = tx.Tenants().GetByID(ctx, ac.TenantID)
		if err != nil {
			return err
		}

		invitee, err = tx.Users().GetByEmail(ctx, email)
		if err != nil {
			return err
		}

		_, err = tx.Memberships().Get(ctx, tenant.ID, invitee.ID)
		switch {
		case err == nil:
			return domain.ErrAlreadyMember
		case !errors.Is(err, domain.ErrMembershipNotFound):
			return err
		}

		ts := now()
		ms := &domain.Membership{
			TenantID:  tenant.ID,
			UserID:    invitee.ID,
			Name:      invitee.Name,
			Role:      domain.RoleEditor,
			Status:    domain.MemberStatusInactive,
			InvitedBy: ac.Identity.UserID,
			JoinedAt:  ts,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		if err := tx.Memberships().Create(ctx, ms); err != nil {
			return err
		}

		mb := ms.Member()
		member = &mb
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Delivered after commit; an undelivered invitation is withdrawn.
	if sendErr := m.notify(ctx, ac, tenant, invitee, in); sendErr != nil {
		if err := m.withdrawInvitation(context.WithoutCancel(ctx), tenant.ID, invitee.ID); err != nil {
			m.logger.Error("failed to withdraw undelivered invitation", "tenant_id", tenant.ID, "user_id", invitee.ID, "error", err)
		}
		return nil, &domain.TxAbortedError{Op: "invite contributor", Err: fmt.Errorf("failed to send invitation: %w", sendErr)}
	}

	m.logger.Info("contributor invited", "tenant_id", ac.TenantID, "user_id", member.UserID, "invited_by", ac.Identity.UserID)
	return member, nil
}

// withdrawInvitation deletes a membership created by an invitation whose
// delivery failed. A membership accepted in the meantime is left alone.
func (m *Manager) withdrawInvitation(ctx context.Context, tenantID, userID uuid.UUID) error {
	return m.withTx(ctx, "withdraw invitation", func(tx repository.Tx) error {
		ms, err := tx.Memberships().Get(ctx, tenantID, userID)
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if ms.Status != domain.MemberStatusInactive || ms.AcceptedAt != nil {
			return nil
		}
		return tx.Memberships().Delete(ctx, tenantID, userID)
	})
}

func (m *Manager) notify(ctx context.Context, ac authz.AuthorizedContext, tenant *domain.Tenant, invitee *domain.User, in InviteInput) error {
	if m.notifier == nil {
		return nil
	}

	inv := Invitation{
		To:          invitee.Email,
		TenantID:    tenant.ID,
		TenantName:  tenant.Name,
		InviterName: in.InviterName,
		JoinURL:     JoinURL(m.config.AppBaseURL, tenant.ID),
	}
	if in.TenantName != "" {
		inv.TenantName = in.TenantName
	}
	if inv.InviterName == "" {
		inv.InviterName = ac.Identity.Name
	}
	if inv.InviterName == "" {
		inv.InviterName = ac.Identity.Email
	}
	return m.notifier.SendInvitation(ctx, inv)
}

// JoinURL returns the link an invitee follows to accept an invitation.
func JoinURL(baseURL string, tenantID uuid.UUID) string {
	return fmt.Sprintf("%s/api/tenant/join/%s", strings.TrimRight(baseURL, "/"), tenantID)
}

// AcceptInvitation activates the user's membership of a tenant. Accepting
// again refreshes the join time and changes nothing else.
func (m *Manager) AcceptInvitation(ctx context.Context, tenantID, userID uuid.UUID) (ref *domain.TenantMembershipRef, err error) {
	done := track("accept_invitation")
	defer func() { done(err) }()

	err = m.withTx(ctx, "accept invitation", func(tx repository.Tx) error {
		ms, err := tx.Memberships().Get(ctx, tenantID, userID)
		if err != nil {
			return err
		}
		tenant, err := tx.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}

		ts := now()
		ms.Status = domain.MemberStatusActive
		ms.JoinedAt = ts
		ms.UpdatedAt = ts
		if ms.AcceptedAt == nil {
			ms.AcceptedAt = &ts
		}
		if err := tx.Memberships().Update(ctx, ms); err != nil {
			return err
		}

		r := ms.Ref(tenant.Name)
		ref = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// UpdateContributor changes a contributor's role, status or both. A nil
// argument leaves the value unchanged; an unknown value is rejected.
// Activating a pending invitation counts as accepting it.
func (m *Manager) UpdateContributor(ctx context.Context, tenantID, contributorID uuid.UUID, role *domain.Role, status *domain.MemberStatus) (member *domain.Member, err error) {
	done := track("update_contributor")
	defer func() { done(err) }()

	if role == nil && status == nil {
		return nil, domain.ErrNothingToUpdate
	}
	if role != nil && !role.Valid() {
		return nil, domain.NewValidationError("role", fmt.Sprintf("unknown role %q", *role))
	}
	if status != nil && !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", *status))
	}

	err = m.withTx(ctx, "update contributor", func(tx repository.Tx) error {
		ms, err := tx.Memberships().Get(ctx, tenantID, contributorID)
		if err != nil {
			return err
		}
		if role != nil {
			ms.Role = *role
		}
		ts := now()
		if status != nil {
			ms.Status = *status
			if ms.IsActive() && ms.AcceptedAt == nil {
				ms.AcceptedAt = &ts
			}
		}
		ms.UpdatedAt = ts
		if err := tx.Memberships().Update(ctx, ms); err != nil {
			return err
		}

		mb := ms.Member()
		member = &mb
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveContributor ends a contributor's membership. The tenant creator
// cannot be removed.
func (m *Manager) RemoveContributor(ctx context.Context, tenantID, contributorID uuid.UUID) (err error) {
	done := track("remove_contributor")
	defer func() { done(err) }()

	return m.withTx(ctx, "remove contributor", func(tx repository.Tx) error {
		tenant, err := tx.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if tenant.CreatedBy == contributorID {
			return domain.ErrRemoveCreator
		}
		return tx.Memberships().Delete(ctx, tenantID, contributorID)
	})
}
