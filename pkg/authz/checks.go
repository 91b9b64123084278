package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// Check names
const (
	checkAuthenticate = "authenticate"
	checkMembership   = "resolve_membership"
	checkRole         = "require_role"
	checkOwnership    = "require_ownership"
)

// Authenticate verifies the bearer token and binds the identity.
func Authenticate() Check {
	return Check{name: checkAuthenticate, run: authenticate}
}

func authenticate(_ context.Context, a *Authorizer, req Request, _ AuthorizedContext) (AuthorizedContext, error) {
	claims, err := a.tokens.Verify(req.Token)
	if err != nil {
		reason := "token rejected"
		var tokenErr *domain.InvalidTokenError
		if errors.As(err, &tokenErr) {
			reason = tokenErr.Reason
		}
		return AuthorizedContext{}, &Error{Check: checkAuthenticate, Kind: domain.ErrInvalidToken, Reason: reason}
	}

	userID, err := claims.UserID()
	if err != nil {
		return AuthorizedContext{}, &Error{Check: checkAuthenticate, Kind: domain.ErrInvalidToken, Reason: "malformed subject"}
	}

	identity := Identity{
		UserID:   userID,
		Email:    claims.Email,
		Name:     claims.Name,
		Verified: claims.Verified,
	}
	if tenantID, ok := claims.ActiveTenantID(); ok {
		identity.ActiveTenantID = tenantID
	}
	return AuthorizedContext{Identity: identity}, nil
}

// ResolveMembership requires the identity to hold a membership, in any
// status, of the requested tenant and records the tenant and role.
func ResolveMembership() Check {
	return Check{name: checkMembership, run: resolveMembership}
}

func resolveMembership(ctx context.Context, a *Authorizer, req Request, ac AuthorizedContext) (AuthorizedContext, error) {
	tenantID := ac.Identity.ActiveTenantID
	if raw := req.TenantIDCandidate(); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return ac, &Error{Check: checkMembership, Kind: domain.ErrNotAMember, Reason: "invalid tenant id"}
		}
		tenantID = id
	}
	if tenantID == uuid.Nil {
		return ac, &Error{Check: checkMembership, Kind: domain.ErrNotAMember, Reason: "missing tenant id"}
	}

	var m *domain.Membership
	err := a.store.View(ctx, func(tx repository.Tx) error {
		var err error
		m, err = tx.Memberships().Get(ctx, tenantID, ac.Identity.UserID)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return ac, &Error{Check: checkMembership, Kind: domain.ErrNotAMember}
	}
	if err != nil {
		return ac, err
	}

	ac.TenantID = tenantID
	ac.Role = m.Role
	return ac, nil
}

// RequireRole requires the resolved role to equal role exactly.
// Roles form no hierarchy: ADMIN does not satisfy RequireRole(EDITOR).
func RequireRole(role domain.Role) Check {
	return Check{
		name: checkRole,
		run: func(_ context.Context, _ *Authorizer, _ Request, ac AuthorizedContext) (AuthorizedContext, error) {
			if ac.Role == "" || ac.Role != role {
				return ac, &Error{Check: checkRole, Kind: domain.ErrInsufficientRole, Reason: "requires " + string(role)}
			}
			return ac, nil
		},
	}
}

// RequireOwnership requires the identity to be the creator of the resource
// of the given kind named in the request. Resources outside the resolved
// tenant are treated as not owned.
func RequireOwnership(kind ResourceKind) Check {
	return Check{
		name: checkOwnership,
		run: func(ctx context.Context, a *Authorizer, req Request, ac AuthorizedContext) (AuthorizedContext, error) {
			deny := func(reason string) (AuthorizedContext, error) {
				return ac, &Error{Check: checkOwnership, Kind: domain.ErrNotOwner, Reason: reason}
			}

			if !kind.Valid() {
				return deny("unknown resource kind")
			}
			raw := req.ResourceIDs[kind]
			if raw == "" && kind == ResourceTenant && ac.HasTenant() {
				raw = ac.TenantID.String()
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				return deny("invalid " + kind.IDKey())
			}

			var owner ownerInfo
			err = a.store.View(ctx, func(tx repository.Tx) error {
				var err error
				owner, err = kind.load(ctx, tx, id)
				return err
			})
			if errors.Is(err, domain.ErrNotFound) {
				return deny(kind.String() + " not found")
			}
			if err != nil {
				return ac, err
			}

			if ac.HasTenant() && owner.tenantID != ac.TenantID {
				return deny(kind.String() + " belongs to another tenant")
			}
			if owner.createdBy != ac.Identity.UserID {
				return deny("")
			}
			return ac, nil
		},
	}
}
