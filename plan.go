// Capacity planning for the store region.
//
// The region is allocated once and never grows, so its size must hold the
// worst case: MaxItems records, each carrying a link of MaxURLLen bytes.
// RegionSize is the only number handed to a Host when a region is created
// and the only number the codec checks against when encoding. Both sites
// reference the constant; neither recomputes it.
package linkstore

import "math/bits"

// Capacity limits.
const (
	MaxURLLen = 200 // maximum link length in bytes
	MaxItems  = 40  // maximum number of records
)

// Field widths of the persisted layout, all little-endian.
const (
	DiscriminatorBytes = 8  // account type tag written at initialization
	CountBytes         = 8  // u64 record count
	ListLenBytes       = 4  // u32 collection length prefix
	LinkLenBytes       = 4  // u32 link length prefix, per record
	SubmitterBytes     = 32 // submitter identifier, per record
)

// RegionCeiling is the largest region a host will allocate in one call.
const RegionCeiling = 10240

// Derived layout sizes.
const (
	// PrefixSize covers everything before the first record.
	PrefixSize = DiscriminatorBytes + CountBytes + ListLenBytes

	// MaxRecordSize is the encoded width of a record whose link is full.
	MaxRecordSize = LinkLenBytes + MaxURLLen + SubmitterBytes

	// RegionSize is 8 + 8 + 4 + MaxItems*(4 + MaxURLLen + 32).
	RegionSize = PrefixSize + MaxItems*MaxRecordSize
)

// Build fails here if RegionSize grows past the host ceiling: the array
// length goes negative.
var _ [RegionCeiling - RegionSize]struct{}

// The u32 length prefixes must be able to hold both limits. A constant
// that does not fit its declared type is a compile error.
const (
	_ uint32 = MaxItems
	_ uint32 = MaxURLLen
)

// Plan returns the region size for an arbitrary pairing of link length and
// item count using the same formula as RegionSize. It is for tooling that
// explores other pairings; the store itself only uses RegionSize.
// ErrPlanOverflow is returned when the result does not fit in a uint64.
func Plan(maxURLLen, maxItems uint64) (uint64, error) {
	record, carry := bits.Add64(LinkLenBytes+SubmitterBytes, maxURLLen, 0)
	if carry != 0 {
		return 0, ErrPlanOverflow
	}
	hi, body := bits.Mul64(maxItems, record)
	if hi != 0 {
		return 0, ErrPlanOverflow
	}
	total, carry := bits.Add64(PrefixSize, body, 0)
	if carry != 0 {
		return 0, ErrPlanOverflow
	}
	return total, nil
}

// Fits reports whether a planned size is within the host ceiling.
func Fits(size uint64) bool {
	return size <= RegionCeiling
}

// RecordSize returns the encoded width of a single record with the given
// link. It does not check the link against MaxURLLen.
func RecordSize(link string) int {
	return LinkLenBytes + len(link) + SubmitterBytes
}
