package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FieldType is the declared type of a schema field.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeDate        FieldType = "date"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multi-select"
	FieldTypeRelation    FieldType = "relation"
)

// Valid returns true if t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean,
		FieldTypeSelect, FieldTypeMultiSelect, FieldTypeRelation:
		return true
	}
	return false
}

// IsolatedDatabase is a tenant-owned, user-defined schema.
// TenantID never changes after creation.
type IsolatedDatabase struct {
	ID        uuid.UUID         `json:"id"`
	TenantID  uuid.UUID         `json:"tenant_id"`
	CreatedBy uuid.UUID         `json:"created_by"`
	Name      string            `json:"db_name"`
	Fields    []FieldDefinition `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// FieldDefinition describes one column of an isolated database.
type FieldDefinition struct {
	FieldID     uuid.UUID     `json:"field_id"`
	Type        FieldType     `json:"type"`
	Title       string        `json:"title"`
	Label       string        `json:"label"`
	Placeholder string        `json:"placeholder"`
	Options     []FieldOption `json:"options"`
	RefID       *uuid.UUID    `json:"refId,omitempty"`
}

// FieldOption is a choice of a select or multi-select field.
type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Field returns the definition with the given id.
func (d *IsolatedDatabase) Field(id uuid.UUID) (FieldDefinition, bool) {
	for _, f := range d.Fields {
		if f.FieldID == id {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// ValidateFields checks the data-model constraints of a field list:
// known types, required title and label, and unique field ids.
// Relation targets are checked by the caller since they need a store lookup.
func ValidateFields(fields []FieldDefinition) error {
	seen := make(map[uuid.UUID]struct{}, len(fields))
	for i, f := range fields {
		path := fmt.Sprintf("fields[%d]", i)
		if !f.Type.Valid() {
			return NewValidationError(path+".type", fmt.Sprintf("unknown field type %q", f.Type))
		}
		if f.Title == "" {
			return NewValidationError(path+".title", "is required")
		}
		if f.Label == "" {
			return NewValidationError(path+".label", "is required")
		}
		if f.FieldID == uuid.Nil {
			return NewValidationError(path+".field_id", "is required")
		}
		if _, dup := seen[f.FieldID]; dup {
			return NewValidationError(path+".field_id", "duplicate field id "+f.FieldID.String())
		}
		seen[f.FieldID] = struct{}{}
		if f.Type == FieldTypeRelation && (f.RefID == nil || *f.RefID == uuid.Nil) {
			return NewValidationError(path+".refId", "is required for relation fields")
		}
	}
	return nil
}
