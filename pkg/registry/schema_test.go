package registry

import (
	"testing"

	"github.com/matzehuels/pipebuilder/pkg/errors"
)

func TestValidateParameter(t *testing.T) {
	reg := Builtin()
	tests := []struct {
		name  string
		kind  string
		key   string
		value any
		code  errors.Code
	}{
		{"select ok", "llm", "model", "mixtral", ""},
		{"select bad option", "llm", "model", "claude", errors.ErrCodeInvalidParameter},
		{"select wrong type", "llm", "model", 4, errors.ErrCodeInvalidParameter},
		{"number string ok", "llm", "temperature", "0.3", ""},
		{"number float ok", "llm", "temperature", 1.0, ""},
		{"number above max", "llm", "temperature", "1.5", errors.ErrCodeInvalidParameter},
		{"number below min", "delay", "delayMs", -1, errors.ErrCodeInvalidParameter},
		{"number cleared", "delay", "delayMs", "", ""},
		{"number garbage", "math", "operand", "ten", errors.ErrCodeInvalidParameter},
		{"number unbounded", "math", "operand", "-99", ""},
		{"text ok", "http", "url", "https://x", ""},
		{"text wrong type", "http", "url", 12, errors.ErrCodeInvalidParameter},
		{"undeclared key", "merge", "note", 12, ""},
		{"reserved id", "merge", "id", "merge-9", errors.ErrCodeInvalidParameter},
		{"reserved kind", "llm", "nodeType", "text", errors.ErrCodeInvalidParameter},
		{"unknown kind", "widget", "x", "y", errors.ErrCodeUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.ValidateParameter(tt.kind, tt.key, tt.value)
			if tt.code == "" {
				if err != nil {
					t.Errorf("ValidateParameter() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateParameter() error = %v, want code %s", err, tt.code)
			}
		})
	}
}
