package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is a row of an isolated database.
type Record struct {
	ID         uuid.UUID    `json:"id"`
	DatabaseID uuid.UUID    `json:"db_id"`
	CreatedBy  uuid.UUID    `json:"created_by"`
	Values     []FieldValue `json:"values"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// FieldValue is one cell of a record. Value is stored as raw JSON;
// matching it against the field definition's type is advisory.
type FieldValue struct {
	FieldID uuid.UUID       `json:"field_id"`
	Type    FieldType       `json:"type,omitempty"`
	Value   json.RawMessage `json:"value"`
}

// ValidateValues checks that every value names a field and carries a value.
func ValidateValues(values []FieldValue) error {
	seen := make(map[uuid.UUID]struct{}, len(values))
	for i, v := range values {
		path := fmt.Sprintf("values[%d]", i)
		if v.FieldID == uuid.Nil {
			return NewValidationError(path+".field_id", "is required")
		}
		if _, dup := seen[v.FieldID]; dup {
			return NewValidationError(path+".field_id", "duplicate field id "+v.FieldID.String())
		}
		seen[v.FieldID] = struct{}{}
		if v.Type != "" && !v.Type.Valid() {
			return NewValidationError(path+".type", fmt.Sprintf("unknown field type %q", v.Type))
		}
		if len(v.Value) == 0 {
			return NewValidationError(path+".value", "is required")
		}
	}
	return nil
}
