// Location enumeration for a file host.
package linkstore

import (
	"fmt"
	"iter"
	"strings"
)

// Locations yields the location of every region in the directory in
// lexical order. In-flight temporary files and lock files are skipped.
// Callers consume results lazily via range and can break early.
func (h *FileHost) Locations() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := h.enter(); err != nil {
			yield("", err)
			return
		}
		names, err := h.names()
		h.mu.RUnlock()
		if err != nil {
			yield("", fmt.Errorf("locations: %w", err))
			return
		}

		for _, name := range names {
			location, ok := strings.CutSuffix(name, regionExt)
			if !ok || !ValidLocation(location) {
				continue
			}
			if !yield(location, nil) {
				return
			}
		}
	}
}
