// File-backed host.
//
// FileHost keeps each region in its own file inside one directory:
//
//	<location>.region      header (HeaderSize bytes) + region bytes
//	<location>.region.tmp  next version while a commit is in flight
//	<location>.lock        flock target, never replaced
//
// Regions are never patched in place. A commit writes the complete new
// file to .tmp and renames it over the old one, so a crash at any point
// leaves either the old region or the new one, never a mixture. Leftover
// .tmp files are removed by Recover when the host is opened.
package linkstore

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// File name suffixes.
const (
	regionExt = ".region"
	tmpExt    = ".tmp"
	lockExt   = ".lock"
)

// FileConfig holds file host configuration options.
type FileConfig struct {
	SyncWrites bool        // Call fsync before each commit rename
	Logger     *zap.Logger // Defaults to a no-op logger
}

// FileHost is a Host that stores one file per region.
type FileHost struct {
	root   *os.Root // Sandboxed filesystem access
	dir    string
	config FileConfig
	log    *zap.Logger
	mu     sync.RWMutex // read-held by operations, write-held by Close
	closed bool
}

// OpenFileHost opens or creates a region directory and recovers from any
// interrupted commits.
func OpenFileHost(dir string, config FileConfig) (*FileHost, error) {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}

	h := &FileHost{
		root:   root,
		dir:    dir,
		config: config,
		log:    config.Logger.Named("filehost").With(zap.String("dir", dir)),
	}
	if _, err := h.Recover(); err != nil {
		root.Close()
		return nil, err
	}
	return h, nil
}

// Dir returns the directory the host was opened on.
func (h *FileHost) Dir() string {
	return h.dir
}

// Close releases the directory handle. Operations after Close return
// ErrClosed.
func (h *FileHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.root.Close()
}

// enter marks the start of an operation. The caller must call h.mu.RUnlock.
func (h *FileHost) enter() error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	return nil
}

// Create implements Host.
func (h *FileHost) Create(location string, owner SubmitterID, size int, init func([]byte) error) error {
	if !ValidLocation(location) {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}
	if size <= 0 || size > RegionCeiling {
		return fmt.Errorf("%w: %d bytes", ErrRegionSize, size)
	}
	if err := h.enter(); err != nil {
		return err
	}
	defer h.mu.RUnlock()

	lock, err := acquire(h.root, location+lockExt, LockExclusive)
	if err != nil {
		return fmt.Errorf("create: lock: %w", err)
	}
	defer lock.release()

	if _, err := h.root.Stat(location + regionExt); err == nil {
		return ErrRegionExists
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("create: stat: %w", err)
	}

	data := make([]byte, size)
	if init != nil {
		if err := init(data); err != nil {
			return err
		}
	}

	ts := now()
	hdr := &Header{
		Version:   HeaderVersion,
		Size:      size,
		Owner:     owner.String(),
		Timestamp: ts,
		Created:   ts,
	}
	if err := h.commit(location, hdr, data); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	h.log.Debug("region created", zap.String("location", location), zap.Int("size", size))
	return nil
}

// Mutate implements Host.
func (h *FileHost) Mutate(location string, fn func([]byte) error) error {
	if !ValidLocation(location) {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}
	if err := h.enter(); err != nil {
		return err
	}
	defer h.mu.RUnlock()

	if err := h.present(location); err != nil {
		return err
	}
	lock, err := acquire(h.root, location+lockExt, LockExclusive)
	if err != nil {
		return fmt.Errorf("mutate: lock: %w", err)
	}
	defer lock.release()

	hdr, data, err := h.read(location)
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	if len(data) != hdr.Size {
		return fmt.Errorf("%w: callback resized region", ErrRegionSize)
	}

	hdr.Timestamp = now()
	if err := h.commit(location, hdr, data); err != nil {
		return fmt.Errorf("mutate: %w", err)
	}
	h.log.Debug("region committed", zap.String("location", location))
	return nil
}

// View implements Host.
func (h *FileHost) View(location string, fn func([]byte) error) error {
	if !ValidLocation(location) {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}
	if err := h.enter(); err != nil {
		return err
	}

	if err := h.present(location); err != nil {
		h.mu.RUnlock()
		return err
	}
	lock, err := acquire(h.root, location+lockExt, LockShared)
	if err != nil {
		h.mu.RUnlock()
		return fmt.Errorf("view: lock: %w", err)
	}
	_, data, err := h.read(location)
	lock.release()
	h.mu.RUnlock()
	if err != nil {
		return err
	}
	return fn(data)
}

// Owner returns the payer recorded in the region header.
func (h *FileHost) Owner(location string) (SubmitterID, error) {
	hdr, err := h.Stat(location)
	if err != nil {
		return SubmitterID{}, err
	}
	return hdr.owner()
}

// Stat returns the header of the region at location.
func (h *FileHost) Stat(location string) (*Header, error) {
	if !ValidLocation(location) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}
	if err := h.enter(); err != nil {
		return nil, err
	}
	defer h.mu.RUnlock()

	if err := h.present(location); err != nil {
		return nil, err
	}
	lock, err := acquire(h.root, location+lockExt, LockShared)
	if err != nil {
		return nil, fmt.Errorf("stat: lock: %w", err)
	}
	defer lock.release()

	hdr, _, err := h.read(location)
	return hdr, err
}
