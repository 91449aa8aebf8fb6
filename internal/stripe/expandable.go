package stripe

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Expandable is a polymorphic id-or-object field. The provider serializes
// these either as a bare id string or, when expansion was requested, as the
// full object. The mapper normalizes every reference to the id form; the
// expanded object is kept so tree writers can upsert inline entities
// (coupons inside discounts, prices created from price_data).
type Expandable[T any] struct {
	ID  string
	Obj *T
}

// IsZero reports whether the field was absent or null.
func (e Expandable[T]) IsZero() bool { return e.ID == "" && e.Obj == nil }

func (e *Expandable[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*e = Expandable[T]{}
		return nil
	}

	if b[0] == '"' {
		return json.Unmarshal(b, &e.ID)
	}

	if b[0] != '{' {
		return fmt.Errorf("stripe: expandable: unexpected shape %q", string(b[:min(len(b), 24)]))
	}

	var obj T
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	e.Obj = &obj
	e.ID = probe.ID
	return nil
}

func (e Expandable[T]) MarshalJSON() ([]byte, error) {
	if e.Obj != nil {
		return json.Marshal(e.Obj)
	}
	if e.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(e.ID)
}
