package schema

import (
	"errors"
	"fmt"
)

// TruncatedListError reports a nested list that arrived with has_more=true
// and no continuation endpoint. Storing it would silently under-mirror, so
// the write fails closed.
type TruncatedListError struct {
	ObjType string
	ObjID   string
	Field   string
}

func (e *TruncatedListError) Error() string {
	return fmt.Sprintf("%s %s: nested list %q is truncated (has_more=true, no continuation endpoint)", e.ObjType, e.ObjID, e.Field)
}

// IsTruncatedList reports whether err is a truncated nested list.
func IsTruncatedList(err error) bool {
	var te *TruncatedListError
	return errors.As(err, &te)
}

// ShapeError reports a payload that violates the mapper's documented
// assumptions about the provider API. Unreachable under the pinned API
// version; fatal with a diagnostic when it happens anyway.
type ShapeError struct {
	ObjType string
	ObjID   string
	Detail  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s %s: unexpected shape: %s", e.ObjType, e.ObjID, e.Detail)
}

// ErrNotFound is returned by Update when zero rows match.
var ErrNotFound = errors.New("schema: no row matched")

// ErrUnsupportedDelete is returned by delete_tree on types whose provider
// delete semantics is detach or expire, never row removal.
var ErrUnsupportedDelete = errors.New("schema: type does not support delete")
