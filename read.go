// Read primitives for region files.
//
// Reads go through ReadAt on a fresh handle so concurrent readers never
// share a file offset. The caller holds the location lock.
package linkstore

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// present returns ErrRegionNotFound if no region file exists at location.
// It lets lookups of unknown locations fail without creating a lock file.
func (h *FileHost) present(location string) error {
	_, err := h.root.Stat(location + regionExt)
	if os.IsNotExist(err) {
		return ErrRegionNotFound
	}
	return err
}

// read loads the header and region bytes for location and checks them
// against each other.
func (h *FileHost) read(location string) (*Header, []byte, error) {
	f, err := h.root.Open(location + regionExt)
	if os.IsNotExist(err) {
		return nil, nil, ErrRegionNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	hdr, data, err := load(f)
	if err != nil {
		h.log.Warn("unreadable region", zap.String("location", location), zap.Error(err))
		return nil, nil, fmt.Errorf("read %s: %w", location, err)
	}
	return hdr, data, nil
}

// load parses a region file: header, then exactly hdr.Size bytes, then
// end of file.
func load(f *os.File) (*Header, []byte, error) {
	hdr, err := header(f)
	if err != nil {
		return nil, nil, err
	}

	sz, err := size(f)
	if err != nil {
		return nil, nil, err
	}
	if sz != int64(HeaderSize+hdr.Size) {
		return nil, nil, fmt.Errorf("%w: file is %d bytes, header says %d", ErrRegionSize, sz, HeaderSize+hdr.Size)
	}

	data := make([]byte, hdr.Size)
	if _, err := io.ReadFull(io.NewSectionReader(f, HeaderSize, int64(hdr.Size)), data); err != nil {
		return nil, nil, err
	}
	if Checksum(data) != hdr.Checksum {
		return nil, nil, ErrChecksum
	}
	return hdr, data, nil
}

func size(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
