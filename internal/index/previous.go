package index

import (
	"fmt"
	"io"

	"github.com/roach88/births/internal/ir"
)

// Births is the read side of a resolution result that WritePrevious needs.
// *birth.Births satisfies it.
type Births interface {
	// Keys returns every key, sorted by key text.
	Keys() []ir.ItemKey
	Record(key ir.ItemKey) (ir.BirthRecord, bool)
}

// WritePrevious encodes the previous-value index for every key of b.
// Absent previous values are written as "".
func WritePrevious(w io.Writer, b Births) error {
	keys := b.Keys()

	enc := newEncoder(w)
	enc.int32(len(keys))
	for _, key := range keys {
		rec, ok := b.Record(key)
		if !ok {
			return fmt.Errorf("write previous index: no record for %q", key)
		}
		enc.int64(int64(ir.KeyIDOf(key)))
		enc.text(rec.Previous().OrEmpty())
	}
	enc.text(Sentinel)

	if err := enc.flush(); err != nil {
		return fmt.Errorf("write previous index: %w", err)
	}
	return nil
}

// ReadPrevious decodes a previous-value index into KeyID → previous text.
func ReadPrevious(r io.Reader) (map[ir.KeyID]string, error) {
	dec := newDecoder(r)

	n, err := dec.count("entry count")
	if err != nil {
		return nil, fmt.Errorf("read previous index: %w", err)
	}

	previous := make(map[ir.KeyID]string, capHint(n))
	for i := 0; i < n; i++ {
		raw, err := dec.int64("id")
		if err != nil {
			return nil, fmt.Errorf("read previous index: entry %d: %w", i, err)
		}
		text, err := dec.text("previous value")
		if err != nil {
			return nil, fmt.Errorf("read previous index: entry %d: %w", i, err)
		}

		id := ir.KeyID(raw)
		if _, dup := previous[id]; dup {
			return nil, fmt.Errorf("read previous index: %w: id %d appears twice", ErrCorrupt, id)
		}
		previous[id] = text
	}

	end, err := dec.text("sentinel")
	if err != nil {
		return nil, fmt.Errorf("read previous index: %w", err)
	}
	if end != Sentinel {
		return nil, fmt.Errorf("read previous index: %w: expected %s, found %q", ErrCorrupt, Sentinel, end)
	}

	if err := dec.end(); err != nil {
		return nil, fmt.Errorf("read previous index: %w", err)
	}
	return previous, nil
}
