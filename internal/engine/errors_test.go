package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tabula/internal/queryir"
)

func TestQueryError_Error(t *testing.T) {
	cause := errors.New("disk full")
	err := newQueryError(ErrCodeBackendFailed, queryir.Filter{From: "livros"}, "run-1", "sql backend failed", cause)

	assert.Equal(t, "BACKEND_FAILED: sql backend failed (query=filter, dataset=livros): disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	rangeErr := newQueryError(ErrCodeInvalidQuery, queryir.Range{}, "run-1", "bad", nil)
	assert.Equal(t, "INVALID_QUERY: bad (query=range)", rangeErr.Error())
}

func TestErrorCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", newQueryError(ErrCodeUnknownDataset, queryir.Find{From: "x"}, "", "missing", nil))
	assert.Equal(t, ErrCodeUnknownDataset, ErrorCode(err))
	assert.True(t, IsUnknownDataset(err))
	assert.False(t, IsInvalidQuery(err))
	assert.Equal(t, QueryErrorCode(""), ErrorCode(errors.New("plain")))
}
