// Host abstraction: the platform that owns regions.
//
// A Host allocates fixed-size regions and grants mutually exclusive,
// all-or-nothing access to them. The store never holds a region between
// calls; every operation borrows it through a callback and the host
// commits the callback's changes only when it returns nil.
package linkstore

import (
	"github.com/google/uuid"
)

// MaxLocationSize is the maximum length of a region location in bytes.
const MaxLocationSize = 64

// Host provides regions to the Manager.
//
// Create allocates a zero-filled region of size bytes at location, records
// owner as its payer, and runs init against it before the region becomes
// visible. It fails with ErrRegionExists if the location is taken. If init
// fails nothing is created.
//
// Mutate runs fn with exclusive access to the region at location. Changes
// fn makes to the slice are persisted only if fn returns nil. It fails with
// ErrRegionNotFound if the location is empty.
//
// View runs fn against a read-only copy of the region.
//
// Owner returns the payer recorded by Create.
type Host interface {
	Create(location string, owner SubmitterID, size int, init func(region []byte) error) error
	Mutate(location string, fn func(region []byte) error) error
	View(location string, fn func(region []byte) error) error
	Owner(location string) (SubmitterID, error)
	Close() error
}

// NewLocation returns a fresh time-ordered location name.
func NewLocation() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ValidLocation reports whether loc can name a region on every host. Only
// ASCII letters, digits, '-', '_' and '.' are allowed, and the name may not
// start with '.'.
func ValidLocation(loc string) bool {
	if loc == "" || len(loc) > MaxLocationSize || loc[0] == '.' {
		return false
	}
	for i := 0; i < len(loc); i++ {
		c := loc[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}
