// Records and the identity of the caller that submits them.
//
// A record is a link plus the submitter's 32-byte identifier. The
// submitter never arrives as a data argument: it is taken from the Caller
// that the host boundary hands to Append, so a record always names whoever
// actually made the call.
package linkstore

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"
)

// SubmitterID is an opaque 32-byte caller identifier.
type SubmitterID [SubmitterBytes]byte

// String returns the identifier as lowercase hex.
func (id SubmitterID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether every byte of the identifier is zero.
func (id SubmitterID) IsZero() bool {
	return id == SubmitterID{}
}

// MarshalText encodes the identifier as hex so JSON and YAML output stay
// readable.
func (id SubmitterID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex identifier.
func (id *SubmitterID) UnmarshalText(text []byte) error {
	parsed, err := ParseSubmitterID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseSubmitterID decodes a 64 character hex string.
func ParseSubmitterID(s string) (SubmitterID, error) {
	var id SubmitterID
	if hex.DecodedLen(len(s)) != SubmitterBytes {
		return id, fmt.Errorf("submitter id: want %d hex chars, got %d", 2*SubmitterBytes, len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("submitter id: %w", err)
	}
	return id, nil
}

// Caller is the authenticated identity on whose behalf an operation runs.
// Hosts construct it after authenticating the request; the store only
// reads the ID.
type Caller struct {
	ID SubmitterID
}

// CallerFromKey uses an ed25519 public key as the caller identity. The key
// bytes are the identifier, so a caller is addressed by its public key.
func CallerFromKey(pub ed25519.PublicKey) (Caller, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Caller{}, fmt.Errorf("caller key: want %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	var c Caller
	copy(c.ID[:], pub)
	return c, nil
}

// CallerFromName derives a stable identity from a name using BLAKE2b-256.
// Used by tooling where no key pair exists.
func CallerFromName(name string) Caller {
	return Caller{ID: blake2b.Sum256([]byte(name))}
}

// Record is one submitted link.
type Record struct {
	Link      string      `json:"link"`
	Submitter SubmitterID `json:"submitter"`
}

// size returns the encoded width of the record.
func (r Record) size() int {
	return RecordSize(r.Link)
}

// checkLink validates a link before any state is touched.
func checkLink(link string) error {
	if len(link) > MaxURLLen {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrLinkTooLong, len(link), MaxURLLen)
	}
	if !utf8.ValidString(link) {
		return ErrInvalidLink
	}
	return nil
}
