// Region codec.
//
// A region is exactly RegionSize bytes:
//
//	discriminator(8) | count u64 | list length u32 | records... | zero fill
//	record: link length u32 | link bytes | submitter(32)
//
// All integers are little-endian. Encoding builds the whole region in a
// scratch buffer and copies it over the destination only once every check
// has passed, so a failed encode never leaves a half-written region.
package linkstore

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Byte offsets of the fixed prefix.
const (
	countOff   = DiscriminatorBytes
	listLenOff = countOff + CountBytes
	recordsOff = listLenOff + ListLenBytes
)

// encodeStore writes s into region under tag.
func encodeStore(region []byte, tag Discriminator, s *Store) error {
	if len(region) != RegionSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrRegionSize, len(region), RegionSize)
	}
	if err := s.check(); err != nil {
		return err
	}
	if s.Size() > len(region) {
		return fmt.Errorf("%w: %d bytes, region %d", ErrRegionOverflow, s.Size(), len(region))
	}

	buf := make([]byte, RegionSize)
	copy(buf, tag[:])
	binary.LittleEndian.PutUint64(buf[countOff:], s.Count)
	binary.LittleEndian.PutUint32(buf[listLenOff:], uint32(len(s.Records)))

	off := recordsOff
	for i, r := range s.Records {
		if err := checkLink(r.Link); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(r.Link)))
		off += LinkLenBytes
		off += copy(buf[off:], r.Link)
		off += copy(buf[off:], r.Submitter[:])
	}

	copy(region, buf)
	return nil
}

// decodeStore reads the store held in region. A zero discriminator means
// the region was allocated but never initialized.
func decodeStore(region []byte, tag Discriminator) (*Store, error) {
	if len(region) != RegionSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrRegionSize, len(region), RegionSize)
	}

	var disc Discriminator
	copy(disc[:], region)
	if disc.IsZero() {
		return nil, ErrNotInitialized
	}
	if disc != tag {
		return nil, fmt.Errorf("%w: %x", ErrBadDiscriminator, disc[:])
	}

	count := binary.LittleEndian.Uint64(region[countOff:])
	listLen := binary.LittleEndian.Uint32(region[listLenOff:])
	if count != uint64(listLen) {
		return nil, fmt.Errorf("%w: count %d, list length %d", ErrCorruptRegion, count, listLen)
	}
	if count > MaxItems {
		return nil, fmt.Errorf("%w: count %d exceeds %d", ErrCorruptRegion, count, MaxItems)
	}

	s := newStore()
	off := recordsOff
	for i := range int(count) {
		if off+LinkLenBytes > len(region) {
			return nil, fmt.Errorf("%w: record %d truncated", ErrCorruptRegion, i)
		}
		n := int(binary.LittleEndian.Uint32(region[off:]))
		off += LinkLenBytes
		if n > MaxURLLen {
			return nil, fmt.Errorf("%w: record %d link length %d", ErrCorruptRegion, i, n)
		}
		if off+n+SubmitterBytes > len(region) {
			return nil, fmt.Errorf("%w: record %d truncated", ErrCorruptRegion, i)
		}
		link := region[off : off+n]
		if !utf8.Valid(link) {
			return nil, fmt.Errorf("%w: record %d link is not UTF-8", ErrCorruptRegion, i)
		}
		off += n

		var rec Record
		rec.Link = string(link)
		off += copy(rec.Submitter[:], region[off:off+SubmitterBytes])
		s.Records = append(s.Records, rec)
	}
	s.Count = count
	return s, nil
}
