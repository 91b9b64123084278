package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// Config holds Postgres connection settings.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewDB opens and pings a Postgres connection pool.
func NewDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// runTx runs fn in a database transaction, committing on success.
func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	return txWithOptions(ctx, db, nil, fn)
}

func txWithOptions(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// PostgresStore implements Store on top of database/sql and lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store backed by db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// View runs fn in a read-only transaction.
func (s *PostgresStore) View(ctx context.Context, fn func(Tx) error) error {
	return txWithOptions(ctx, s.db, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		return fn(postgresTx{q: tx})
	})
}

// Update runs fn in a read-write transaction.
func (s *PostgresStore) Update(ctx context.Context, fn func(Tx) error) error {
	return runTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(postgresTx{q: tx})
	})
}

type postgresTx struct {
	q Querier
}

func (t postgresTx) Users() UserStore             { return NewUsersRepository(t.q) }
func (t postgresTx) Tenants() TenantStore         { return NewTenantsRepository(t.q) }
func (t postgresTx) Memberships() MembershipStore { return NewMembershipsRepository(t.q) }
func (t postgresTx) Databases() DatabaseStore     { return NewDatabasesRepository(t.q) }
func (t postgresTx) Records() RecordStore         { return NewRecordsRepository(t.q) }

// Postgres error codes
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// mapWriteError converts constraint violations into domain errors.
func mapWriteError(err error, onUnique error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		if onUnique != nil {
			return onUnique
		}
	case pqForeignKeyViolation:
		return fmt.Errorf("%s: %w", pqErr.Constraint, domain.ErrNotFound)
	}
	return err
}

// expectOne returns notFound unless exactly one row was affected.
func expectOne(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
