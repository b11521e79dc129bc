// Region backups.
//
// A backup is a single CBOR-encoded Snapshot carrying the region's
// location, owner and checksum alongside the region bytes. The bytes are
// Zstd-compressed first: an initialized region is mostly zero fill until
// it approaches MaxItems, so a young store compresses to a few dozen
// bytes. Backups work against any Host because they only use Owner, View
// and Create.
package linkstore

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// SnapshotVersion is the current backup envelope format.
const SnapshotVersion = 1

// Shared encoder/decoder, both documented as safe for concurrent use.
// Construction is expensive so they are allocated once. The decoder
// refuses to produce more than one region's worth of output, so a hostile
// snapshot cannot inflate past RegionCeiling.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(RegionCeiling))
)

// Snapshot is the backup envelope.
type Snapshot struct {
	Version  int         `cbor:"1,keyasint"`
	Location string      `cbor:"2,keyasint"`
	Owner    SubmitterID `cbor:"3,keyasint"`
	Size     int         `cbor:"4,keyasint"`
	Checksum uint64      `cbor:"5,keyasint"`
	Taken    int64       `cbor:"6,keyasint"` // Unix milliseconds
	Data     []byte      `cbor:"7,keyasint"` // Zstd-compressed region
}

// Backup writes a snapshot of the region at location to w.
func Backup(h Host, location string, w io.Writer) error {
	owner, err := h.Owner(location)
	if err != nil {
		return fmt.Errorf("backup %s: %w", location, err)
	}
	var snap *Snapshot
	err = h.View(location, func(region []byte) error {
		snap = &Snapshot{
			Version:  SnapshotVersion,
			Location: location,
			Owner:    owner,
			Size:     len(region),
			Checksum: Checksum(region),
			Taken:    now(),
			Data:     compress(region),
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("backup %s: %w", location, err)
	}
	if err := cbor.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("backup %s: encode: %w", location, err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot from r and verifies its payload. The
// returned Snapshot carries the decompressed region in Data.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("read snapshot: unsupported version %d", snap.Version)
	}
	if snap.Size <= 0 || snap.Size > RegionCeiling {
		return nil, fmt.Errorf("read snapshot: %w: %d bytes", ErrRegionSize, snap.Size)
	}
	region, err := decompress(snap.Data)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(region) != snap.Size {
		return nil, fmt.Errorf("read snapshot: %w: %d bytes, want %d", ErrRegionSize, len(region), snap.Size)
	}
	if Checksum(region) != snap.Checksum {
		return nil, fmt.Errorf("read snapshot: %w", ErrChecksum)
	}
	snap.Data = region
	return &snap, nil
}

// Restore recreates the region described by the snapshot in r on h. If
// location is empty the snapshot's own location is used. The target must
// not exist. Returns the location written.
func Restore(h Host, r io.Reader, location string) (string, error) {
	snap, err := ReadSnapshot(r)
	if err != nil {
		return "", err
	}
	if location == "" {
		location = snap.Location
	}
	err = h.Create(location, snap.Owner, snap.Size, func(region []byte) error {
		copy(region, snap.Data)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("restore %s: %w", location, err)
	}
	return location, nil
}

func compress(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, nil)
}

// decompress inflates data. Output beyond RegionCeiling bytes is an error.
func decompress(data []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, RegionCeiling))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrDecompress, err)
	}
	if len(out) > RegionCeiling {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrDecompress, len(out), RegionCeiling)
	}
	return out, nil
}
