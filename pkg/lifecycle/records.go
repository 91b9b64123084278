package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/authz"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// RecordInput describes a new record.
type RecordInput struct {
	DatabaseID uuid.UUID
	Values     []domain.FieldValue
}

// loadRecord returns the record if its database belongs to tenantID.
func loadRecord(ctx context.Context, tx repository.Tx, tenantID, id uuid.UUID) (*domain.Record, *domain.IsolatedDatabase, error) {
	rec, err := tx.Records().GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	db, err := tx.Databases().GetByID(ctx, rec.DatabaseID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if db.TenantID != tenantID {
		return nil, nil, domain.ErrRecordNotFound
	}
	return rec, db, nil
}

// prepareValues validates values and fills in missing types from the schema.
// Values naming unknown fields are kept as given.
func prepareValues(db *domain.IsolatedDatabase, values []domain.FieldValue) ([]domain.FieldValue, error) {
	if err := domain.ValidateValues(values); err != nil {
		return nil, err
	}
	out := make([]domain.FieldValue, len(values))
	for i, v := range values {
		if v.Type == "" {
			if f, ok := db.Field(v.FieldID); ok {
				v.Type = f.Type
			}
		}
		out[i] = v
	}
	return out, nil
}

// CreateRecord adds a record to a database of the caller's tenant.
func (m *Manager) CreateRecord(ctx context.Context, ac authz.AuthorizedContext, in RecordInput) (rec *domain.Record, err error) {
	done := track("create_record")
	defer func() { done(err) }()

	if in.Values == nil {
		return nil, domain.NewValidationError("values", "is required")
	}

	err = m.withTx(ctx, "create record", func(tx repository.Tx) error {
		db, err := loadDatabase(ctx, tx, ac.TenantID, in.DatabaseID)
		if err != nil {
			return err
		}
		values, err := prepareValues(db, in.Values)
		if err != nil {
			return err
		}

		ts := now()
		rec = &domain.Record{
			ID:         uuid.New(),
			DatabaseID: db.ID,
			CreatedBy:  ac.Identity.UserID,
			Values:     values,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		}
		return tx.Records().Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetRecord returns a record of the caller's tenant.
func (m *Manager) GetRecord(ctx context.Context, ac authz.AuthorizedContext, id uuid.UUID) (rec *domain.Record, err error) {
	done := track("get_record")
	defer func() { done(err) }()

	err = m.read(ctx, func(tx repository.Tx) error {
		var err error
		rec, _, err = loadRecord(ctx, tx, ac.TenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateRecord replaces all values of a record.
func (m *Manager) UpdateRecord(ctx context.Context, ac authz.AuthorizedContext, id uuid.UUID, values []domain.FieldValue) (rec *domain.Record, err error) {
	done := track("update_record")
	defer func() { done(err) }()

	if values == nil {
		return nil, domain.NewValidationError("values", "is required")
	}

	err = m.withTx(ctx, "update record", func(tx repository.Tx) error {
		var db *domain.IsolatedDatabase
		var err error
		if rec, db, err = loadRecord(ctx, tx, ac.TenantID, id); err != nil {
			return err
		}
		if rec.Values, err = prepareValues(db, values); err != nil {
			return err
		}
		rec.UpdatedAt = now()
		return tx.Records().Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RemoveRecord deletes a record of the caller's tenant.
func (m *Manager) RemoveRecord(ctx context.Context, ac authz.AuthorizedContext, id uuid.UUID) (rec *domain.Record, err error) {
	done := track("remove_record")
	defer func() { done(err) }()

	err = m.withTx(ctx, "remove record", func(tx repository.Tx) error {
		var err error
		if rec, _, err = loadRecord(ctx, tx, ac.TenantID, id); err != nil {
			return err
		}
		return tx.Records().Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
