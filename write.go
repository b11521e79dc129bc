// Write primitives for region files.
//
// A commit never touches the live region file. The header and region are
// concatenated into one buffer, written to <location>.region.tmp with a
// single WriteAt, optionally fsynced, and renamed over <location>.region.
// The caller holds the location's exclusive lock.
package linkstore

import (
	"fmt"
	"os"
	"time"
)

// commit replaces the region at location with data. hdr.Checksum is
// recomputed here; the other fields are written as given.
func (h *FileHost) commit(location string, hdr *Header, data []byte) error {
	hdr.Checksum = Checksum(data)
	hdrBytes, err := hdr.encode()
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	combined := make([]byte, 0, len(hdrBytes)+len(data))
	combined = append(combined, hdrBytes...)
	combined = append(combined, data...)

	name := location + regionExt
	tmp, err := h.root.OpenFile(name+tmpExt, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.WriteAt(combined, 0); err != nil {
		tmp.Close()
		h.root.Remove(name + tmpExt)
		return fmt.Errorf("write temp: %w", err)
	}
	if h.config.SyncWrites {
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			h.root.Remove(name + tmpExt)
			return fmt.Errorf("sync temp: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		h.root.Remove(name + tmpExt)
		return fmt.Errorf("close temp: %w", err)
	}

	if err := h.root.Rename(name+tmpExt, name); err != nil {
		h.root.Remove(name + tmpExt)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// now returns the current time in unix milliseconds.
func now() int64 {
	return time.Now().UnixMilli()
}
