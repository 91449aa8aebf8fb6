// Package schema maps provider objects to relational rows and writes whole
// object trees through the upsert/delete primitives.
//
// Each mirrored entity lives in its own file: the row struct (td-tagged for
// table metadata), the mapping from the provider object, and the tree
// writers that persist the object plus the children and inline references it
// owns. The registry at the bottom of the package binds entities to the
// event stream and the download order.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// TreeFunc persists one provider object payload inside the given
// transaction and returns the write-log ids it produced, in order.
type TreeFunc func(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error)

// unixDT renders a provider unix timestamp as a UTC datetime string,
// second precision, matching what the provider's own dashboard exports.
func unixDT(u int64) string {
	return time.Unix(u, 0).UTC().Format("2006-01-02 15:04:05")
}

func unixDTPtr(u *int64) *string {
	if u == nil {
		return nil
	}
	s := unixDT(*u)
	return &s
}

// rawJSON converts a raw document field to a nullable JSON column value.
func rawJSON(m json.RawMessage) *string {
	m = bytes.TrimSpace(m)
	if len(m) == 0 || bytes.Equal(m, []byte("null")) {
		return nil
	}
	s := string(m)
	return &s
}

// marshalJSON renders any value as a JSON column value. nil-able inputs
// that marshal to null become SQL NULL.
func marshalJSON(v any) *string {
	b, err := json.Marshal(v)
	if err != nil || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	return &s
}

// expID normalizes an id-or-object reference to its id, or NULL when the
// field was absent.
func expID[T any](e stripe.Expandable[T]) *string {
	if e.IsZero() {
		return nil
	}
	return &e.ID
}

// expIDReq normalizes a required id-or-object reference to its id.
func expIDReq[T any](e stripe.Expandable[T]) string {
	return e.ID
}

// nestedJSON stores a nested id-less list as a JSON column. The provider
// paginates nested lists at ten items; a truncated list cannot be stored
// without silently under-mirroring, so has_more fails closed.
func nestedJSON[T any](l *stripe.List[T], objType, objID, field string) (*string, error) {
	if l == nil {
		return nil, nil
	}
	if l.HasMore {
		return nil, &TruncatedListError{ObjType: objType, ObjID: objID, Field: field}
	}
	return marshalJSON(l.Data), nil
}

// childList unwraps a nested id-bearing child list, failing closed on
// truncation. allowTruncated is set by delete paths: a delete discards the
// children regardless, so a short list is harmless there.
func childList[T any](l *stripe.List[T], objType, objID, field string, allowTruncated bool) ([]T, error) {
	if l == nil {
		return nil, nil
	}
	if l.HasMore && !allowTruncated {
		return nil, &TruncatedListError{ObjType: objType, ObjID: objID, Field: field}
	}
	return l.Data, nil
}

func decode[T any](data json.RawMessage, objType string) (*T, error) {
	var obj T
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%s: decode payload: %w", objType, err)
	}
	return &obj, nil
}
