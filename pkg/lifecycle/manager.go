// Package lifecycle creates, updates and removes tenants, memberships,
// isolated databases and records. Every operation runs in a single store
// transaction: it commits when the operation succeeds and leaves no trace
// when it fails.
package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/metrics"
	"github.com/tendant/simple-workspace/pkg/repository"
)

const maxNameLength = 100

// Invitation is the message sent to an invited contributor.
type Invitation struct {
	To          string
	TenantID    uuid.UUID
	TenantName  string
	InviterName string
	JoinURL     string
}

// Notifier delivers invitations.
type Notifier interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// TokenIssuer issues access tokens scoped to a tenant.
type TokenIssuer interface {
	IssueForUser(user *domain.User, tenantID uuid.UUID, role domain.Role) (string, error)
}

// Config configures a Manager.
type Config struct {
	AppBaseURL string
}

// Manager runs lifecycle operations against a transactional store.
type Manager struct {
	store    repository.Store
	notifier Notifier
	tokens   TokenIssuer
	config   Config
	logger   *slog.Logger

	// tx is set on managers returned by InTx.
	tx repository.Tx
}

// New creates a Manager. notifier may be nil, in which case invitations are
// recorded without being delivered.
func New(store repository.Store, notifier Notifier, tokens TokenIssuer, config Config, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		notifier: notifier,
		tokens:   tokens,
		config:   config,
		logger:   logger,
	}
}

// InTx returns a Manager whose operations join tx instead of opening their
// own transaction. Commit and rollback stay with the owner of tx.
func (m *Manager) InTx(tx repository.Tx) *Manager {
	c := *m
	c.tx = tx
	return &c
}

// withTx runs fn in a write transaction. Errors from a transaction this
// Manager opened are wrapped in *domain.TxAbortedError.
func (m *Manager) withTx(ctx context.Context, op string, fn func(repository.Tx) error) error {
	if m.tx != nil {
		return fn(m.tx)
	}
	if err := m.store.Update(ctx, fn); err != nil {
		m.logger.Debug("transaction aborted", "operation", op, "error", err)
		return &domain.TxAbortedError{Op: op, Err: err}
	}
	return nil
}

// read runs fn in a read-only transaction.
func (m *Manager) read(ctx context.Context, fn func(repository.Tx) error) error {
	if m.tx != nil {
		return fn(m.tx)
	}
	return m.store.View(ctx, fn)
}

// track starts the metrics for one operation; call the result with the
// operation's final error.
func track(op string) func(error) {
	return metrics.TrackOperation(op)
}

func now() time.Time {
	return time.Now().UTC()
}
