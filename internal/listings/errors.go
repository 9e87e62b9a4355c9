package listings

import "errors"

// ErrNotInBroadcast is returned by Register when path does not fall
// under this Listings object's root broadcast.
var ErrNotInBroadcast = errors.New("listings: path not in this broadcast")

// ErrDuplicate is returned by Register when a registration handle for
// the same (prefix, base) pair is already outstanding.
var ErrDuplicate = errors.New("listings: duplicate registration")

// ErrNotFound is returned when removing a base that has no outstanding
// registration, or subscribing to a prefix with no listing track.
var ErrNotFound = errors.New("listings: not found")
