// Crash recovery for the region directory.
//
// A commit that dies before its rename leaves <location>.region.tmp
// behind and the previous region untouched, so recovery only has to
// delete the orphan. Each orphan is removed under its location's
// exclusive lock to avoid deleting a .tmp that another process is still
// writing. Recover then reads every region and reports those whose header
// or checksum no longer match; it does not try to repair them, because a
// region's bytes cannot be reconstructed from anything else on disk.
package linkstore

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Report describes what Recover found.
type Report struct {
	Orphans []string         // Locations whose in-flight commit was discarded
	Corrupt map[string]error // Locations that failed verification
}

// Recover removes orphaned temporary files and verifies every region.
// Corrupt regions are reported, not returned as an error.
func (h *FileHost) Recover() (*Report, error) {
	if err := h.enter(); err != nil {
		return nil, err
	}
	defer h.mu.RUnlock()

	names, err := h.names()
	if err != nil {
		return nil, fmt.Errorf("recover: %w", err)
	}

	report := &Report{Corrupt: map[string]error{}}
	for _, name := range names {
		location, ok := strings.CutSuffix(name, regionExt+tmpExt)
		if !ok || !ValidLocation(location) {
			continue
		}
		lock, err := acquire(h.root, location+lockExt, LockExclusive)
		if err != nil {
			return nil, fmt.Errorf("recover: lock %s: %w", location, err)
		}
		err = h.root.Remove(name)
		lock.release()
		if err != nil {
			return nil, fmt.Errorf("recover: remove %s: %w", name, err)
		}
		report.Orphans = append(report.Orphans, location)
		h.log.Info("discarded interrupted commit", zap.String("location", location))
	}

	for _, name := range names {
		location, ok := strings.CutSuffix(name, regionExt)
		if !ok || !ValidLocation(location) {
			continue
		}
		if err := h.verify(location); err != nil {
			report.Corrupt[location] = err
		}
	}
	return report, nil
}

// Verify reads the region at location and checks its header, size and
// checksum.
func (h *FileHost) Verify(location string) error {
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
	return h.verify(location)
}

func (h *FileHost) verify(location string) error {
	lock, err := acquire(h.root, location+lockExt, LockShared)
	if err != nil {
		return err
	}
	defer lock.release()
	_, _, err = h.read(location)
	return err
}

// names returns the sorted directory entries.
func (h *FileHost) names() ([]string, error) {
	d, err := h.root.Open(".")
	if err != nil {
		return nil, err
	}
	defer d.Close()
	names, err := d.Readdirnames(-1)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}
