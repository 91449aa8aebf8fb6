package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tabledog/internal/schema"
	"github.com/roach88/tabledog/internal/stripe"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"truncated list", &schema.TruncatedListError{ObjType: "invoice", ObjID: "in_1", Field: "lines"}, CodeTruncatedNested},
		{"shape", &schema.ShapeError{ObjType: "customer", ObjID: "cus_1", Detail: "x"}, CodeUnexpectedShape},
		{"auth", &stripe.Error{Code: stripe.ErrCodeAuth, Status: 401}, CodeUpstreamAuth},
		{"rate limited", &stripe.Error{Code: stripe.ErrCodeRateLimited, Status: 429}, CodeRateLimited},
		{"transient", &stripe.Error{Code: stripe.ErrCodeTransient, Status: 503}, CodeUpstreamTransient},
		{"other api", &stripe.Error{Code: stripe.ErrCodeFatal, Status: 400}, CodeUpstreamFatal},
		{"unknown", errors.New("boom"), CodeStoreIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err).Code)
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(&ReplicationError{Code: CodeConfigInvalid}))
	assert.Equal(t, 2, ExitCode(&ReplicationError{Code: CodeUpstreamAuth}))
	assert.Equal(t, 2, ExitCode(&ReplicationError{Code: CodeTruncatedNested}))
	assert.Equal(t, 3, ExitCode(&ReplicationError{Code: CodeStoreIO}))
	assert.Equal(t, 3, ExitCode(&ReplicationError{Code: CodeStoreConflict}))

	// Raw errors classify on the way out.
	assert.Equal(t, 2, ExitCode(&stripe.Error{Code: stripe.ErrCodeAuth}))
}
