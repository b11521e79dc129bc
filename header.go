// Region file header.
//
// Every region file starts with a header of exactly HeaderSize bytes:
// compact JSON padded with spaces and terminated with a newline, followed
// immediately by the region bytes. The header records who paid for the
// region, how large it is, and a checksum of the region bytes so a torn or
// tampered file is detected on read.
package linkstore

import (
	"bytes"
	"io"

	json "github.com/goccy/go-json"
)

// HeaderSize is the fixed size of the region file header in bytes.
const HeaderSize = 256

// HeaderVersion is the current header format.
const HeaderVersion = 1

// Header contains region metadata stored at the start of a region file.
type Header struct {
	Version   int    `json:"_v"`   // Header format
	Size      int    `json:"_s"`   // Region size in bytes
	Owner     string `json:"_o"`   // Payer submitter ID, hex
	Checksum  uint64 `json:"_c"`   // xxHash3 of the region bytes
	Timestamp int64  `json:"_ts"`  // Unix milliseconds of last commit
	Created   int64  `json:"_cts"` // Unix milliseconds of creation
}

// header reads and parses the header from r.
func header(r io.ReaderAt) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		if err == io.EOF {
			return nil, ErrCorruptHeader
		}
		return nil, err
	}
	if buf[HeaderSize-1] != '\n' {
		return nil, ErrCorruptHeader
	}

	var hdr Header
	if err := json.Unmarshal(bytes.TrimSpace(buf), &hdr); err != nil {
		return nil, ErrCorruptHeader
	}
	if hdr.Version != HeaderVersion || hdr.Size <= 0 || hdr.Size > RegionCeiling {
		return nil, ErrCorruptHeader
	}
	return &hdr, nil
}

// encode serialises the header to exactly HeaderSize bytes with padding.
func (h *Header) encode() ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}

	// Pad with spaces to HeaderSize-1, then add newline
	if len(data) > HeaderSize-1 {
		return nil, ErrCorruptHeader // header too large
	}

	buf := make([]byte, HeaderSize)
	copy(buf, data)
	for i := len(data); i < HeaderSize-1; i++ {
		buf[i] = ' '
	}
	buf[HeaderSize-1] = '\n'

	return buf, nil
}

// owner decodes the Owner field.
func (h *Header) owner() (SubmitterID, error) {
	id, err := ParseSubmitterID(h.Owner)
	if err != nil {
		return SubmitterID{}, ErrCorruptHeader
	}
	return id, nil
}
