// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned by lookups that find nothing.
	ErrNotFound = errors.New("not found")

	// ErrReferential means a pilot or unit type id does not resolve.
	ErrReferential = errors.New("unresolved reference")

	// ErrPersistence means the underlying store rejected a read or write.
	ErrPersistence = errors.New("persistence failure")

	// ErrStaleState means a record addressed by id is no longer there.
	// Callers that only want the record gone treat it as success.
	ErrStaleState = errors.New("stale record reference")

	// ErrInvalidCount is returned when asked to persist a kill count below one.
	ErrInvalidCount = errors.New("kill count must be positive")
)

// OpError carries the failing operation and the ids involved so a caller can
// report or retry. errors.Is matches its Kind; errors.Unwrap yields the cause.
type OpError struct {
	Op   string
	Kind error
	IDs  map[string]string
	Err  error
}

// NewOpError builds an OpError. ids is a flat list of name/value pairs.
func NewOpError(op string, kind, err error, ids ...string) *OpError {
	e := &OpError{Op: op, Kind: kind, Err: err}
	if len(ids) > 1 {
		e.IDs = make(map[string]string, len(ids)/2)
		for i := 0; i+1 < len(ids); i += 2 {
			e.IDs[ids[i]] = ids[i+1]
		}
	}
	return e
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if len(e.IDs) > 0 {
		keys := make([]string, 0, len(e.IDs))
		for k := range e.IDs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.IDs[k])
		}
		b.WriteString("]")
	}
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the error kind.
func (e *OpError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *OpError) Unwrap() error {
	return e.Err
}
