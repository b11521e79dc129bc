// Store manager: the two mutating operations plus read-only loading.
//
// Every operation borrows the region from the Host for the duration of one
// callback. Validation that needs no stored state (link length, UTF-8) runs
// before the host is contacted at all; validation that does (initialized,
// full) runs inside the callback before anything is written.
package linkstore

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Config holds manager configuration options.
type Config struct {
	HashAlgorithm int         // 1=xxHash3, 2=FNV1a, 3=Blake2b
	Logger        *zap.Logger // Defaults to a no-op logger
}

// Manager initializes and appends to stores held by a Host.
type Manager struct {
	host   Host
	tag    Discriminator
	config Config
	log    *zap.Logger
}

// NewManager returns a Manager backed by host.
func NewManager(host Host, config Config) (*Manager, error) {
	if config.HashAlgorithm == 0 {
		config.HashAlgorithm = AlgXXHash3
	}
	if !validAlgorithm(config.HashAlgorithm) {
		return nil, fmt.Errorf("unknown hash algorithm %d", config.HashAlgorithm)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Manager{
		host:   host,
		tag:    discriminator(AccountName, config.HashAlgorithm),
		config: config,
		log:    config.Logger.Named("linkstore"),
	}, nil
}

// Host returns the host the manager writes to.
func (m *Manager) Host() Host {
	return m.host
}

// Initialize creates an empty store at location, paid for by caller. It
// fails with ErrAlreadyInitialized if a region already exists there.
func (m *Manager) Initialize(caller Caller, location string) error {
	err := m.host.Create(location, caller.ID, RegionSize, func(region []byte) error {
		return encodeStore(region, m.tag, newStore())
	})
	if errors.Is(err, ErrRegionExists) {
		return fmt.Errorf("initialize %s: %w", location, ErrAlreadyInitialized)
	}
	if err != nil {
		return fmt.Errorf("initialize %s: %w", location, err)
	}
	m.log.Debug("initialized",
		zap.String("location", location),
		zap.Stringer("owner", caller.ID),
		zap.Int("size", RegionSize))
	return nil
}

// Append adds link to the store at location on behalf of caller. Any
// caller may append; the region owner is not consulted. On failure the
// store is unchanged.
func (m *Manager) Append(caller Caller, location, link string) error {
	if err := checkLink(link); err != nil {
		return fmt.Errorf("append %s: %w", location, err)
	}

	var count uint64
	err := m.host.Mutate(location, func(region []byte) error {
		s, err := decodeStore(region, m.tag)
		if err != nil {
			return err
		}
		if err := s.append(Record{Link: link, Submitter: caller.ID}); err != nil {
			return err
		}
		count = s.Count
		return encodeStore(region, m.tag, s)
	})
	if errors.Is(err, ErrRegionNotFound) {
		return fmt.Errorf("append %s: %w", location, ErrNotInitialized)
	}
	if err != nil {
		if errors.Is(err, ErrRegionOverflow) || errors.Is(err, ErrCorruptRegion) {
			m.log.Warn("consistency check failed", zap.String("location", location), zap.Error(err))
		}
		return fmt.Errorf("append %s: %w", location, err)
	}
	m.log.Debug("appended",
		zap.String("location", location),
		zap.Stringer("submitter", caller.ID),
		zap.Uint64("count", count))
	return nil
}

// Load returns the store at location. The result is a copy; changing it
// does not affect the region.
func (m *Manager) Load(location string) (*Store, error) {
	var s *Store
	err := m.host.View(location, func(region []byte) error {
		var err error
		s, err = decodeStore(region, m.tag)
		return err
	})
	if errors.Is(err, ErrRegionNotFound) {
		return nil, fmt.Errorf("load %s: %w", location, ErrNotInitialized)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}
	return s, nil
}
