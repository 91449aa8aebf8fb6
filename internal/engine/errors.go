package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/tabledog/internal/schema"
	"github.com/roach88/tabledog/internal/stripe"
)

// Code categorizes replication failures. Codes map onto process exit
// codes: config 1, upstream 2, store 3.
type Code string

const (
	CodeConfigInvalid      Code = "CONFIG_INVALID"
	CodeUpstreamTransient  Code = "UPSTREAM_TRANSIENT"
	CodeUpstreamFatal      Code = "UPSTREAM_FATAL"
	CodeUpstreamAuth       Code = "UPSTREAM_AUTH"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeUnexpectedShape    Code = "UNEXPECTED_SHAPE"
	CodeTruncatedNested    Code = "TRUNCATED_NESTED_LIST"
	CodeStoreConflict      Code = "STORE_CONFLICT"
	CodeStoreIO            Code = "STORE_IO"
)

// ReplicationError is a failure of the replication engine with enough
// context to pick the right exit code and diagnostic.
type ReplicationError struct {
	Code    Code
	ObjType string
	ObjID   string
	Err     error
}

func (e *ReplicationError) Error() string {
	if e.ObjType != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Code, e.ObjType, e.ObjID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ReplicationError) Unwrap() error { return e.Err }

// classify wraps an arbitrary failure with its replication code.
func classify(err error) *ReplicationError {
	var re *ReplicationError
	if errors.As(err, &re) {
		return re
	}

	var te *schema.TruncatedListError
	if errors.As(err, &te) {
		return &ReplicationError{Code: CodeTruncatedNested, ObjType: te.ObjType, ObjID: te.ObjID, Err: err}
	}
	var se *schema.ShapeError
	if errors.As(err, &se) {
		return &ReplicationError{Code: CodeUnexpectedShape, ObjType: se.ObjType, ObjID: se.ObjID, Err: err}
	}

	switch {
	case stripe.IsAuth(err):
		return &ReplicationError{Code: CodeUpstreamAuth, Err: err}
	case stripe.IsRateLimited(err):
		return &ReplicationError{Code: CodeRateLimited, Err: err}
	case stripe.IsTransient(err):
		return &ReplicationError{Code: CodeUpstreamTransient, Err: err}
	}

	var apiErr *stripe.Error
	if errors.As(err, &apiErr) {
		return &ReplicationError{Code: CodeUpstreamFatal, Err: err}
	}

	return &ReplicationError{Code: CodeStoreIO, Err: err}
}

// ExitCode maps an error to the process exit code contract: 0 normal,
// 1 configuration, 2 unrecoverable upstream, 3 store.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var re *ReplicationError
	if !errors.As(err, &re) {
		re = classify(err)
	}
	switch re.Code {
	case CodeConfigInvalid:
		return 1
	case CodeStoreConflict, CodeStoreIO:
		return 3
	default:
		return 2
	}
}
