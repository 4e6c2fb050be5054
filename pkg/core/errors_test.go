package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewOpError("ledger.record", ErrPersistence, cause, "pilot", "p-1", "flightDebrief", "fd-1")

	assert.Equal(t, "ledger.record [flightDebrief=fd-1 pilot=p-1]: persistence failure: disk full", err.Error())
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrReferential))

	wrapped := fmt.Errorf("save: %w", err)
	var op *OpError
	assert.True(t, errors.As(wrapped, &op))
	assert.Equal(t, "p-1", op.IDs["pilot"])
}

func TestOpError_NoIDs(t *testing.T) {
	err := NewOpError("catalog.find", ErrNotFound, nil)
	assert.Equal(t, "catalog.find: not found", err.Error())
	assert.Nil(t, err.IDs)
}
