package bongo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/bongo/internal/schema"
)

// Document is a stored value with its identifier. Its JSON form is flat:
// {"id": ..., <fields of Data>}.
type Document[T any] struct {
	ID   string
	Data T
}

// MarshalJSON flattens ID into Data's object.
func (d Document[T]) MarshalJSON() ([]byte, error) {
	m, err := toObject(d.Data)
	if err != nil {
		return nil, err
	}
	m[schema.IDField] = d.ID
	return json.Marshal(m)
}

// UnmarshalJSON splits "id" from the remaining fields.
func (d *Document[T]) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var id string
	if raw, ok := m[schema.IDField]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return fmt.Errorf("document id: %w", err)
		}
		delete(m, schema.IDField)
	}
	rest, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var v T
	if err := json.Unmarshal(rest, &v); err != nil {
		return err
	}
	d.ID, d.Data = id, v
	return nil
}

// Nested converts a value (typically a Document) into a plain object
// without its id, for embedding in a properties field. The result is a
// copy; no relation to the source document is kept.
func Nested(v any) (M, error) {
	m, err := toObject(v)
	if err != nil {
		return nil, err
	}
	delete(m, schema.IDField)
	return m, nil
}

// toObject renders v through its JSON form as a generic object.
func toObject(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("expected a JSON object: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("expected a JSON object, got null")
	}
	return m, nil
}

// ErrAbsent is returned by Opt.Required when no value is present.
var ErrAbsent = errors.New("bongo: required value is absent")

// Opt is an explicitly present-or-absent slot. Absent encodes as JSON null,
// and null decodes as absent. The zero value is absent.
type Opt[T any] struct {
	value T
	ok    bool
}

// Some returns a present Opt.
func Some[T any](v T) Opt[T] { return Opt[T]{value: v, ok: true} }

// None returns an absent Opt.
func None[T any]() Opt[T] { return Opt[T]{} }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.value, o.ok }

// Required returns the value, or ErrAbsent.
func (o Opt[T]) Required() (T, error) {
	if !o.ok {
		var zero T
		return zero, ErrAbsent
	}
	return o.value, nil
}

// MustGet returns the value and panics if absent.
func (o Opt[T]) MustGet() T {
	if !o.ok {
		panic(ErrAbsent)
	}
	return o.value
}

// Or returns the value, or fallback when absent.
func (o Opt[T]) Or(fallback T) T {
	if !o.ok {
		return fallback
	}
	return o.value
}

// IsZero reports absence, so `json:",omitzero"` drops absent fields.
func (o Opt[T]) IsZero() bool { return !o.ok }

// MarshalJSON implements json.Marshaler.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Opt[T]{value: v, ok: true}
	return nil
}
