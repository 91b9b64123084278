package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission level of a member within a tenant.
// Roles are compared for exact equality; there is no hierarchy.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// Valid returns true if r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// MemberStatus represents the state of an invitation.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "ACTIVE"
	MemberStatusInactive MemberStatus = "INACTIVE"
)

// Valid returns true if s is a known status.
func (s MemberStatus) Valid() bool {
	return s == MemberStatusActive || s == MemberStatusInactive
}

// Membership is the single record of a user's relationship with a tenant.
// The tenant's member list and the user's tenant list are both read from it.
type Membership struct {
	TenantID   uuid.UUID
	UserID     uuid.UUID
	Name       string
	Role       Role
	Status     MemberStatus
	InvitedBy  uuid.UUID
	JoinedAt   time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive returns true if the membership has been accepted and not deactivated.
func (m *Membership) IsActive() bool {
	return m.Status == MemberStatusActive
}

// Reciprocated returns true once the user side holds a reference to the tenant.
// That happens at tenant creation for the creator and on first acceptance for invitees.
func (m *Membership) Reciprocated() bool {
	return m.AcceptedAt != nil
}

// Member returns the tenant-side view.
func (m *Membership) Member() Member {
	return Member{
		UserID:    m.UserID,
		Name:      m.Name,
		Role:      m.Role,
		Status:    m.Status,
		JoinedAt:  m.JoinedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// Ref returns the user-side view.
func (m *Membership) Ref(tenantName string) TenantMembershipRef {
	return TenantMembershipRef{
		TenantID:   m.TenantID,
		TenantName: tenantName,
		Role:       m.Role,
		InvitedBy:  m.InvitedBy,
		JoinedAt:   m.JoinedAt,
	}
}
