// Hash algorithms for the region discriminator and file checksums.
//
// The discriminator is an 8-byte tag derived from the account type name and
// written at the start of every initialized region. Three algorithms are
// supported, selectable via Config.HashAlgorithm. A region written under one
// algorithm reads as ErrBadDiscriminator under another.
package linkstore

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// Hash algorithm constants.
const (
	AlgXXHash3 = 1 // Default, fastest
	AlgFNV1a   = 2 // No external dependencies
	AlgBlake2b = 3 // Best distribution
)

// AccountName is the type name the discriminator is derived from.
const AccountName = "account:Store"

// Discriminator tags an initialized region. All zeros means the region was
// allocated but never initialized.
type Discriminator [DiscriminatorBytes]byte

// IsZero reports whether the discriminator is unset.
func (d Discriminator) IsZero() bool {
	return d == Discriminator{}
}

// discriminator derives the tag for name under alg. Unknown algorithms
// yield the zero tag, which no region accepts as initialized.
func discriminator(name string, alg int) Discriminator {
	var d Discriminator
	switch alg {
	case AlgXXHash3:
		binary.LittleEndian.PutUint64(d[:], xxh3.HashString(name))
	case AlgFNV1a:
		h := fnv.New64a()
		h.Write([]byte(name))
		binary.LittleEndian.PutUint64(d[:], h.Sum64())
	case AlgBlake2b:
		h, _ := blake2b.New(DiscriminatorBytes, nil)
		h.Write([]byte(name))
		copy(d[:], h.Sum(nil))
	}
	return d
}

// validAlgorithm reports whether alg is one of the known constants.
func validAlgorithm(alg int) bool {
	return alg == AlgXXHash3 || alg == AlgFNV1a || alg == AlgBlake2b
}

// Checksum hashes region bytes for host-level integrity checks.
func Checksum(data []byte) uint64 {
	return xxh3.Hash(data)
}
