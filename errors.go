// Package linkstore provides an append-only record store that lives inside
// a single fixed-size region. Each record is a short link plus the 32-byte
// identifier of the caller that submitted it.
//
// The region size is fixed when the store is initialized (see RegionSize)
// and every append is checked against it, so a store can never outgrow the
// space its host allocated. Regions themselves are provided by a Host:
// MemHost keeps them in memory, FileHost keeps one file per region, and the
// sqlitehost package keeps them as rows in a SQLite database. The Manager
// ties the two together and exposes the two mutating operations, Initialize
// and Append.
package linkstore

import "errors"

// Sentinel errors for programmatic handling. Callers can use errors.Is to
// distinguish caller mistakes (ErrLinkTooLong, ErrStoreFull) from host and
// corruption conditions (ErrCorruptRegion, ErrChecksum).
var (
	ErrAlreadyInitialized = errors.New("store already initialized")
	ErrNotInitialized     = errors.New("store not initialized")
	ErrLinkTooLong        = errors.New("link exceeds maximum length")
	ErrInvalidLink        = errors.New("link is not valid UTF-8")
	ErrStoreFull          = errors.New("store is full")
	ErrRegionOverflow     = errors.New("store does not fit region")
	ErrPlanOverflow       = errors.New("region size overflows uint64")

	ErrRegionExists     = errors.New("region already exists")
	ErrRegionNotFound   = errors.New("region not found")
	ErrRegionSize       = errors.New("region has unexpected size")
	ErrBadDiscriminator = errors.New("region holds a different account type")
	ErrCorruptRegion    = errors.New("corrupt region")
	ErrCorruptHeader    = errors.New("corrupt header")
	ErrChecksum         = errors.New("region checksum mismatch")
	ErrInvalidLocation  = errors.New("invalid region location")
	ErrClosed           = errors.New("host is closed")
	ErrDecompress       = errors.New("decompression failed")
)
