package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// DatabasesRepository handles isolated database persistence.
// Field definitions are stored as a JSONB array.
type DatabasesRepository struct {
	q Querier
}

// NewDatabasesRepository creates a new isolated databases repository.
func NewDatabasesRepository(q Querier) *DatabasesRepository {
	return &DatabasesRepository{q: q}
}

const databaseColumns = `id, tenant_id, created_by, name, fields, created_at, updated_at`

// Create creates a new isolated database.
func (r *DatabasesRepository) Create(ctx context.Context, db *domain.IsolatedDatabase) error {
	fields, err := marshalJSON(db.Fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO isolated_databases (` + databaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.q.ExecContext(ctx, query,
		db.ID,
		db.TenantID,
		db.CreatedBy,
		db.Name,
		fields,
		db.CreatedAt,
		db.UpdatedAt,
	)
	return mapWriteError(err, domain.ErrConflict)
}

// GetByID retrieves an isolated database by ID.
func (r *DatabasesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.IsolatedDatabase, error) {
	query := `SELECT ` + databaseColumns + ` FROM isolated_databases WHERE id = $1`

	db, err := scanDatabase(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIsolatedDatabaseNotFound
	}
	return db, err
}

// ListByTenant retrieves a page of a tenant's databases, oldest first.
func (r *DatabasesRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, page Page) ([]*domain.IsolatedDatabase, error) {
	query := `
		SELECT ` + databaseColumns + `
		FROM isolated_databases
		WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.q.QueryContext(ctx, query, tenantID, sqlLimit(page), page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dbs []*domain.IsolatedDatabase
	for rows.Next() {
		db, err := scanDatabase(rows)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, db)
	}

	return dbs, rows.Err()
}

// Update replaces the name and the field list. TenantID is never written.
func (r *DatabasesRepository) Update(ctx context.Context, db *domain.IsolatedDatabase) error {
	fields, err := marshalJSON(db.Fields)
	if err != nil {
		return err
	}

	query := `
		UPDATE isolated_databases
		SET name = $1, fields = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.q.ExecContext(ctx, query, db.Name, fields, db.UpdatedAt, db.ID)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrIsolatedDatabaseNotFound)
}

// Delete removes an isolated database row. Its records must be removed first.
func (r *DatabasesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM isolated_databases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrIsolatedDatabaseNotFound)
}

func scanDatabase(row rowScanner) (*domain.IsolatedDatabase, error) {
	var (
		db     domain.IsolatedDatabase
		fields []byte
	)
	err := row.Scan(
		&db.ID,
		&db.TenantID,
		&db.CreatedBy,
		&db.Name,
		&fields,
		&db.CreatedAt,
		&db.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &db.Fields); err != nil {
		return nil, err
	}
	return &db, nil
}

func marshalJSON[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

// sqlLimit maps an unlimited page to a NULL limit, which Postgres treats as ALL.
func sqlLimit(page Page) any {
	if page.Limit <= 0 {
		return nil
	}
	return page.Limit
}
