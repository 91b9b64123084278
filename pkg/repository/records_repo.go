package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// RecordsRepository handles record persistence.
type RecordsRepository struct {
	q Querier
}

// NewRecordsRepository creates a new records repository.
func NewRecordsRepository(q Querier) *RecordsRepository {
	return &RecordsRepository{q: q}
}

const recordColumns = `id, database_id, created_by, field_values, created_at, updated_at`

// Create creates a new record.
func (r *RecordsRepository) Create(ctx context.Context, record *domain.Record) error {
	values, err := marshalJSON(record.Values)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.q.ExecContext(ctx, query,
		record.ID,
		record.DatabaseID,
		record.CreatedBy,
		values,
		record.CreatedAt,
		record.UpdatedAt,
	)
	return mapWriteError(err, domain.ErrConflict)
}

// GetByID retrieves a record by ID.
func (r *RecordsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`

	record, err := scanRecord(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	return record, err
}

// ListByDatabase retrieves a page of a database's records, oldest first.
func (r *RecordsRepository) ListByDatabase(ctx context.Context, databaseID uuid.UUID, page Page) ([]*domain.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE database_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.q.QueryContext(ctx, query, databaseID, sqlLimit(page), page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Update replaces the record's values.
func (r *RecordsRepository) Update(ctx context.Context, record *domain.Record) error {
	values, err := marshalJSON(record.Values)
	if err != nil {
		return err
	}

	query := `
		UPDATE records
		SET field_values = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.q.ExecContext(ctx, query, values, record.UpdatedAt, record.ID)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrRecordNotFound)
}

// Delete removes a record.
func (r *RecordsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrRecordNotFound)
}

// DeleteByDatabase removes every record of a database.
func (r *RecordsRepository) DeleteByDatabase(ctx context.Context, databaseID uuid.UUID) (int, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM records WHERE database_id = $1`, databaseID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		record domain.Record
		values []byte
	)
	err := row.Scan(
		&record.ID,
		&record.DatabaseID,
		&record.CreatedBy,
		&values,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(values, &record.Values); err != nil {
		return nil, err
	}
	return &record, nil
}
