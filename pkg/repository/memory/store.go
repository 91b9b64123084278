// Package memory implements repository.Store on hashicorp/go-memdb.
//
// It backs the server when STORE_BACKEND=memory and is what the lifecycle and
// authorization tests run against. Write transactions are serialized by
// memdb; readers see consistent snapshots.
package memory

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// Store is an in-memory transactional store.
type Store struct {
	db *memdb.MemDB
}

// New creates an empty store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &Store{db: db}, nil
}

// View runs fn against a read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(&tx{txn: txn})
}

// Update runs fn in a write transaction, committing only if fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := fn(&tx{txn: txn}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

type tx struct {
	txn *memdb.Txn
}

func (t *tx) Users() repository.UserStore             { return &usersRepo{txn: t.txn} }
func (t *tx) Tenants() repository.TenantStore         { return &tenantsRepo{txn: t.txn} }
func (t *tx) Memberships() repository.MembershipStore { return &membershipsRepo{txn: t.txn} }
func (t *tx) Databases() repository.DatabaseStore     { return &databasesRepo{txn: t.txn} }
func (t *tx) Records() repository.RecordStore         { return &recordsRepo{txn: t.txn} }

var _ repository.Store = (*Store)(nil)
