package httputil

import (
	"bytes"
	"encoding/json"

	"teamhub/internal/domain/services"
)

// Optional tracks presence and value for JSON PATCH semantics (RFC 7396).
// It expresses the tri-state a plain pointer cannot:
//   - Present=false: field absent from JSON (don't change)
//   - Present=true, Value=nil: field is JSON null (clear)
//   - Present=true, Value!=nil: field has a value
type Optional[T any] struct {
	Present bool
	Value   *T
}

// UnmarshalJSON is only called when the field appears in the body
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Service converts to the transport-free form services accept
func (o Optional[T]) Service() services.Optional[T] {
	return services.Optional[T]{Present: o.Present, Value: o.Value}
}

// OptionalString is the most common PATCH field
type OptionalString = Optional[string]
