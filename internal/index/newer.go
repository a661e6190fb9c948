package index

import (
	"fmt"
	"io"
	"slices"

	"github.com/roach88/births/internal/ir"
)

// WriteNewer encodes the newer index: locale → newer set.
// Locales are written in ascending order, each set in ascending key order.
// A locale named like the sentinel is rejected since it would end the stream.
func WriteNewer(w io.Writer, newer map[string][]ir.ItemKey) error {
	locales := make([]string, 0, len(newer))
	for locale := range newer {
		if locale == Sentinel {
			return fmt.Errorf("write newer index: locale %q collides with the sentinel", locale)
		}
		locales = append(locales, locale)
	}
	slices.Sort(locales)

	enc := newEncoder(w)
	for _, locale := range locales {
		keys := slices.Clone(newer[locale])
		slices.Sort(keys)

		enc.text(locale)
		enc.int32(len(keys))
		for _, key := range keys {
			enc.int64(int64(ir.KeyIDOf(key)))
		}
	}
	enc.text(Sentinel)

	if err := enc.flush(); err != nil {
		return fmt.Errorf("write newer index: %w", err)
	}
	return nil
}

// ReadNewer decodes a newer index into locale → KeyIDs, in stream order.
func ReadNewer(r io.Reader) (map[string][]ir.KeyID, error) {
	dec := newDecoder(r)
	newer := make(map[string][]ir.KeyID)

	for {
		locale, err := dec.text("locale")
		if err != nil {
			return nil, fmt.Errorf("read newer index: %w", err)
		}
		if locale == Sentinel {
			break
		}
		if _, dup := newer[locale]; dup {
			return nil, fmt.Errorf("read newer index: %w: locale %q appears twice", ErrCorrupt, locale)
		}

		n, err := dec.count("count for " + locale)
		if err != nil {
			return nil, fmt.Errorf("read newer index: %w", err)
		}

		ids := make([]ir.KeyID, 0, capHint(n))
		for i := 0; i < n; i++ {
			id, err := dec.int64("id")
			if err != nil {
				return nil, fmt.Errorf("read newer index: %s[%d]: %w", locale, i, err)
			}
			ids = append(ids, ir.KeyID(id))
		}
		newer[locale] = ids
	}

	if err := dec.end(); err != nil {
		return nil, fmt.Errorf("read newer index: %w", err)
	}
	return newer, nil
}
