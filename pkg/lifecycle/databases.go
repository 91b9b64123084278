package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/authz"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// DatabaseInput describes a new isolated database.
type DatabaseInput struct {
	Name   string
	Fields []domain.FieldDefinition
}

// DatabaseUpdate changes an isolated database. An empty Name keeps the
// current name; a nil Fields keeps the current fields. A non-nil Fields
// replaces the whole field list.
type DatabaseUpdate struct {
	Name   string
	Fields []domain.FieldDefinition
}

// DatabaseView is a database with a page of its records.
type DatabaseView struct {
	*domain.IsolatedDatabase
	Records []*domain.Record `json:"records"`
}

// loadDatabase returns the database if it belongs to tenantID.
func loadDatabase(ctx context.Context, tx repository.Tx, tenantID, id uuid.UUID) (*domain.IsolatedDatabase, error) {
	db, err := tx.Databases().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if db.TenantID != tenantID {
		return nil, domain.ErrIsolatedDatabaseNotFound
	}
	return db, nil
}

// prepareFields normalizes a field list, assigns missing field ids and
// checks that relation fields point at a database of the same tenant.
func prepareFields(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, fields []domain.FieldDefinition) ([]domain.FieldDefinition, error) {
	out := make([]domain.FieldDefinition, len(fields))
	for i, f := range fields {
		f.Title = strings.TrimSpace(f.Title)
		f.Label = strings.TrimSpace(f.Label)
		f.Placeholder = strings.TrimSpace(f.Placeholder)
		if f.FieldID == uuid.Nil {
			f.FieldID = uuid.New()
		}
		opts := make([]domain.FieldOption, len(f.Options))
		for j, o := range f.Options {
			opts[j] = domain.FieldOption{Label: strings.TrimSpace(o.Label), Value: strings.TrimSpace(o.Value)}
		}
		f.Options = opts
		if f.Type != domain.FieldTypeRelation {
			f.RefID = nil
		}
		out[i] = f
	}

	if err := domain.ValidateFields(out); err != nil {
		return nil, err
	}

	for i, f := range out {
		if f.RefID == nil {
			continue
		}
		_, err := loadDatabase(ctx, tx, tenantID, *f.RefID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError(fmt.Sprintf("fields[%d].refId", i), "unknown isolated database "+f.RefID.String())
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CreateIsolatedDatabase creates a database in the caller's tenant.
func (m *Manager) CreateIsolatedDatabase(ctx context.Context, ac authz.AuthorizedContext, in DatabaseInput) (db *domain.IsolatedDatabase, err error) {
	done := track("create_isolated_database")
	defer func() { done(err) }()

	name, err := cleanName("db_name", in.Name)
	if err != nil {
		return nil, err
	}
	if in.Fields == nil {
		return nil, domain.NewValidationError("fields", "is required")
	}

	err = m.withTx(ctx, "create isolated database", func(tx repository.Tx) error {
		if _, err := tx.Tenants().GetByID(ctx, ac.TenantID); err != nil {
			return err
		}
		fields, err := prepareFields(ctx, tx, ac.TenantID, in.Fields)
		if err != nil {
			return err
		}

		ts := now()
		db = &domain.IsolatedDatabase{
			ID:        uuid.New(),
			TenantID:  ac.TenantID,
			CreatedBy: ac.Identity.UserID,
			Name:      name,
			Fields:    fields,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		return tx.Databases().Create(ctx, db)
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetIsolatedDatabase returns a database of the caller's tenant with a page
// of its records.
func (m *Manager) GetIsolatedDatabase(ctx context.Context, ac authz.AuthorizedContext, id uuid.UUID, page repository.Page) (view *DatabaseView, err error) {
	done := track("get_isolated_database")
	defer func() { done(err) }()

	view = &DatabaseView{}
	err = m.read(ctx, func(tx repository.Tx) error {
		var err error
		if view.IsolatedDatabase, err = loadDatabase(ctx, tx, ac.TenantID, id); err != nil {
			return err
		}
		view.Records, err = tx.Records().ListByDatabase(ctx, id, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateIsolatedDatabase renames a database, replaces its fields, or both.
func (m *Manager) UpdateIsolatedDatabase(ctx context.Context, ac authz.AuthorizedContext, id uuid.UUID, in DatabaseUpdate) (db *domain.IsolatedDatabase, err error) {
	done := track("update_isolated_database")
	defer func() { done(err) }()

	var name string
	if strings.TrimSpace(in.Name) != "" {
		if name, err = cleanName("db_name", in.Name); err != nil {
			return nil, err
		}
	}
	if name == "" && in.Fields == nil {
		return nil, domain.ErrNothingToUpdate
	}

	err = m.withTx(ctx, "update isolated database", func(tx repository.Tx) error {
		var err error
		if db, err = loadDatabase(ctx, tx, ac.TenantID, id); err != nil {
			return err
		}
		if name != "" {
			db.Name = name
		}
		if in.Fields != nil {
			if db.Fields, err = prepareFields(ctx, tx, ac.TenantID, in.Fields); err != nil {
				return err
			}
		}
		db.UpdatedAt = now()
		return tx.Databases().Update(ctx, db)
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// RemoveIsolatedDatabase deletes a database of the caller's tenant together
// with all of its records.
func (m *Manager) RemoveIsolatedDatabase(ctx context.Context, ac authz.AuthorizedContext, id uuid.UUID) (db *domain.IsolatedDatabase, err error) {
	done := track("remove_isolated_database")
	defer func() { done(err) }()

	return m.removeDatabase(ctx, "remove isolated database", ac.TenantID, id)
}

func (m *Manager) removeDatabase(ctx context.Context, op string, tenantID, id uuid.UUID) (*domain.IsolatedDatabase, error) {
	var db *domain.IsolatedDatabase
	var records int
	err := m.withTx(ctx, op, func(tx repository.Tx) error {
		var err error
		if db, err = loadDatabase(ctx, tx, tenantID, id); err != nil {
			return err
		}
		if records, err = tx.Records().DeleteByDatabase(ctx, id); err != nil {
			return err
		}
		return tx.Databases().Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("isolated database removed", "db_id", id, "records", records)
	return db, nil
}
