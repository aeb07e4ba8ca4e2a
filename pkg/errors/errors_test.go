package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := Clone(ErrNotFound, "student not found")
	got := FromError(err)
	assert.Equal(t, "NOT_FOUND", got.Code)
	assert.Equal(t, "student not found", got.Message)
	assert.Equal(t, http.StatusNotFound, got.Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	got := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.ErrorIs(t, got, sql.ErrConnDone)
	assert.Nil(t, FromError(nil))
}

func TestIsComparesCodes(t *testing.T) {
	wrapped := Wrap(errors.New("boom"), ErrInvalidWeights.Code, ErrInvalidWeights.Status, "weights add up to 90")
	assert.True(t, errors.Is(wrapped, ErrInvalidWeights))
	assert.False(t, errors.Is(wrapped, ErrValidation))
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestCloneKeepsOriginalMessageWhenEmpty(t *testing.T) {
	clone := Clone(ErrConflict, "")
	assert.Equal(t, ErrConflict.Message, clone.Message)
	assert.NotSame(t, ErrConflict, clone)
	assert.Nil(t, Clone(nil, "x"))
}
