// Package authz decides whether a request may act on a tenant resource.
//
// A decision runs an ordered list of checks. Authenticate always runs first;
// every later check either passes an enriched AuthorizedContext on or stops
// the chain with an *Error.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/auth"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/metrics"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Identity is the verified subject of a request.
type Identity struct {
	UserID         uuid.UUID
	Email          string
	Name           string
	Verified       bool
	ActiveTenantID uuid.UUID
}

// AuthorizedContext is the result of a successful decision. TenantID and
// Role are set once membership has been resolved; Role is the value read at
// check time.
type AuthorizedContext struct {
	Identity Identity
	TenantID uuid.UUID
	Role     domain.Role
}

// HasTenant reports whether membership was resolved.
func (ac AuthorizedContext) HasTenant() bool {
	return ac.TenantID != uuid.Nil
}

// Request is the transport-neutral input of a decision.
// Tenant ids are tried in the order path, body, query, token claim.
type Request struct {
	Token         string
	PathTenantID  string
	BodyTenantID  string
	QueryTenantID string
	ResourceIDs   map[ResourceKind]string
}

// TenantIDCandidate returns the first tenant id supplied by the request itself.
func (r Request) TenantIDCandidate() string {
	for _, id := range []string{r.PathTenantID, r.BodyTenantID, r.QueryTenantID} {
		if id != "" {
			return id
		}
	}
	return ""
}

// Error is a terminal authorization failure. Kind is one of
// domain.ErrInvalidToken, ErrNotAMember, ErrInsufficientRole or ErrNotOwner.
type Error struct {
	Check  string
	Kind   error
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Check, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Check, e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Check is one step of a decision.
type Check struct {
	name string
	run  func(ctx context.Context, a *Authorizer, req Request, ac AuthorizedContext) (AuthorizedContext, error)
}

// Name returns the check name used in logs and metrics.
func (c Check) Name() string {
	return c.name
}

// Authorizer runs checks against the token service and the store.
// It never writes.
type Authorizer struct {
	tokens TokenVerifier
	store  repository.Store
	logger *slog.Logger
}

// New creates an Authorizer.
func New(tokens TokenVerifier, store repository.Store, logger *slog.Logger) *Authorizer {
	return &Authorizer{tokens: tokens, store: store, logger: logger}
}

// Authorize authenticates req and then runs checks in order.
func (a *Authorizer) Authorize(ctx context.Context, req Request, checks ...Check) (AuthorizedContext, error) {
	ac, err := a.run(ctx, Authenticate(), req, AuthorizedContext{})
	if err != nil {
		return AuthorizedContext{}, err
	}
	for _, check := range checks {
		if check.name == checkAuthenticate {
			continue
		}
		ac, err = a.run(ctx, check, req, ac)
		if err != nil {
			return AuthorizedContext{}, err
		}
	}
	return ac, nil
}

func (a *Authorizer) run(ctx context.Context, check Check, req Request, ac AuthorizedContext) (AuthorizedContext, error) {
	next, err := check.run(ctx, a, req, ac)
	if err != nil {
		var authzErr *Error
		if !errors.As(err, &authzErr) {
			a.logger.Error("authorization check failed", "check", check.name, "error", err)
			metrics.RecordDecision(check.name, metrics.OutcomeError)
			return AuthorizedContext{}, &Error{Check: check.name, Kind: kindOf(check.name), Reason: "lookup failed"}
		}
		metrics.RecordDecision(check.name, metrics.OutcomeDeny)
		return AuthorizedContext{}, authzErr
	}
	metrics.RecordDecision(check.name, metrics.OutcomeAllow)
	return next, nil
}

func kindOf(check string) error {
	switch check {
	case checkAuthenticate:
		return domain.ErrInvalidToken
	case checkMembership:
		return domain.ErrNotAMember
	case checkRole:
		return domain.ErrInsufficientRole
	default:
		return domain.ErrNotOwner
	}
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying ac.
func NewContext(ctx context.Context, ac AuthorizedContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext returns the AuthorizedContext stored in ctx.
func FromContext(ctx context.Context) (AuthorizedContext, bool) {
	ac, ok := ctx.Value(ctxKey{}).(AuthorizedContext)
	return ac, ok
}
