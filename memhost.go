// In-memory host.
//
// MemHost keeps regions in a map guarded by a single mutex. Mutations run
// against a copy which replaces the stored slice only when the callback
// succeeds.
package linkstore

import (
	"fmt"
	"sync"
)

type memRegion struct {
	owner SubmitterID
	data  []byte
}

// MemHost is a Host that keeps regions in memory.
type MemHost struct {
	mu      sync.Mutex
	regions map[string]*memRegion
	closed  bool
}

// NewMemHost returns an empty in-memory host.
func NewMemHost() *MemHost {
	return &MemHost{regions: make(map[string]*memRegion)}
}

// Create implements Host.
func (h *MemHost) Create(location string, owner SubmitterID, size int, init func([]byte) error) error {
	if !ValidLocation(location) {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}
	if size <= 0 || size > RegionCeiling {
		return fmt.Errorf("%w: %d bytes", ErrRegionSize, size)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if _, ok := h.regions[location]; ok {
		return ErrRegionExists
	}

	data := make([]byte, size)
	if init != nil {
		if err := init(data); err != nil {
			return err
		}
	}
	h.regions[location] = &memRegion{owner: owner, data: data}
	return nil
}

// Mutate implements Host.
func (h *MemHost) Mutate(location string, fn func([]byte) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	r, ok := h.regions[location]
	if !ok {
		return ErrRegionNotFound
	}

	work := make([]byte, len(r.data))
	copy(work, r.data)
	if err := fn(work); err != nil {
		return err
	}
	r.data = work
	return nil
}

// View implements Host.
func (h *MemHost) View(location string, fn func([]byte) error) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	r, ok := h.regions[location]
	if !ok {
		h.mu.Unlock()
		return ErrRegionNotFound
	}
	snapshot := make([]byte, len(r.data))
	copy(snapshot, r.data)
	h.mu.Unlock()

	return fn(snapshot)
}

// Owner returns the payer recorded when the region was created.
func (h *MemHost) Owner(location string) (SubmitterID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return SubmitterID{}, ErrClosed
	}
	r, ok := h.regions[location]
	if !ok {
		return SubmitterID{}, ErrRegionNotFound
	}
	return r.owner, nil
}

// Close implements Host. Regions are discarded.
func (h *MemHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.regions = nil
	return nil
}
