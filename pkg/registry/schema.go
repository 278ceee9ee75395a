package registry

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/pipebuilder/pkg/errors"
)

// ValidateParameter checks value against the field schema of kind.
// Keys without a declared field accept any value; the identity keys
// (id, nodeType) are never writable.
func (r *Registry) ValidateParameter(kind, key string, value any) error {
	t, ok := r.templates[kind]
	if !ok {
		return errors.New(errors.ErrCodeUnknownKind, "unknown node kind %q", kind)
	}
	if reservedParams[key] {
		return errors.New(errors.ErrCodeInvalidParameter, "parameter %q is read-only", key)
	}
	f, ok := t.Field(key)
	if !ok {
		return nil
	}

	switch f.Type {
	case FieldText, FieldTextarea:
		if _, ok := value.(string); !ok {
			return errors.New(errors.ErrCodeInvalidParameter, "%s.%s: expected text, got %T", kind, key, value)
		}
	case FieldSelect:
		s, ok := value.(string)
		if !ok || !slices.Contains(f.Options, s) {
			return errors.New(errors.ErrCodeInvalidParameter, "%s.%s: %v is not one of %s",
				kind, key, value, strings.Join(f.Options, ", "))
		}
	case FieldNumber:
		n, empty, err := toNumber(value)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidParameter, err, "%s.%s", kind, key)
		}
		if empty {
			return nil
		}
		if f.Min != nil && n < *f.Min {
			return errors.New(errors.ErrCodeInvalidParameter, "%s.%s: %v is below minimum %v", kind, key, n, *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return errors.New(errors.ErrCodeInvalidParameter, "%s.%s: %v is above maximum %v", kind, key, n, *f.Max)
		}
	}
	return nil
}

// toNumber accepts numeric values and numeric strings. An empty string
// means the field was cleared.
func toNumber(v any) (n float64, empty bool, err error) {
	switch x := v.(type) {
	case float64:
		return x, false, nil
	case float32:
		return float64(x), false, nil
	case int:
		return float64(x), false, nil
	case int64:
		return float64(x), false, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%q is not a number", x)
		}
		return n, false, nil
	default:
		return 0, false, fmt.Errorf("expected a number, got %T", v)
	}
}
