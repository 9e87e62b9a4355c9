package cache

import (
	"errors"
	"fmt"
)

// Resource errors (spec error taxonomy, Resource kind).
var (
	ErrNotFound  = errors.New("cache: not found")
	ErrDuplicate = errors.New("cache: duplicate")
	ErrDone      = errors.New("cache: handle closed")
	ErrNoReaders = errors.New("cache: no readers")
	ErrCancel    = errors.New("cache: canceled")
)

// GroupDroppedError is surfaced to a group consumer when the producer
// drops the group mid-stream with an application reason code.
type GroupDroppedError struct {
	Code uint32
}

func (e *GroupDroppedError) Error() string {
	return fmt.Sprintf("cache: group dropped (code=%d)", e.Code)
}
