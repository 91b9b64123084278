package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrBodyTooLarge is returned by DecodeJSON when the body exceeds the limit
// set by the request size middleware.
var ErrBodyTooLarge = errors.New("request body too large")

// DecodeJSON decodes the request body into v and validates it.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return ErrBodyTooLarge
		}
		return domain.NewValidationError("", "invalid request body")
	}
	return Validate(v)
}

// Validate runs the struct's validate tags and returns the first failure as
// a *domain.ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, "is required")
	case "min":
		return domain.NewValidationError(field, "must be at least "+fe.Param()+" characters")
	case "max":
		return domain.NewValidationError(field, "must be at most "+fe.Param()+" characters")
	case "email":
		return domain.NewValidationError(field, "must be a valid email")
	case "uuid":
		return domain.NewValidationError(field, "must be a valid id")
	case "oneof":
		return domain.NewValidationError(field, fmt.Sprintf("must be one of [%s]", fe.Param()))
	default:
		return domain.NewValidationError(field, "is invalid")
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ParseID parses raw as a UUID, reporting failures against field.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, "must be a valid id")
	}
	return id, nil
}

// PathUUID parses the named chi URL parameter as a UUID.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return ParseID(name, chi.URLParam(r, name))
}

// PageFromQuery reads the 1-based "page" and "limit" query parameters.
func PageFromQuery(r *http.Request) repository.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return repository.NewPage(page, limit)
}
