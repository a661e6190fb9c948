package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Sentinel terminates both streams.
const Sentinel = "$END$"

// MaxTextLen is the longest text, in bytes, a uint16 length prefix can carry.
const MaxTextLen = math.MaxUint16

// ErrCorrupt is wrapped by every decoding error caused by malformed input.
var ErrCorrupt = errors.New("corrupt index")

// encoder writes big-endian primitives. The first error sticks and later
// writes become no-ops, so callers check err once at the end.
type encoder struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func newEncoder(w io.Writer) *encoder {
	return &encoder{w: bufio.NewWriter(w)}
}

func (e *encoder) text(s string) {
	if e.err != nil {
		return
	}
	if len(s) > MaxTextLen {
		e.err = fmt.Errorf("text of %d bytes exceeds %d byte limit", len(s), MaxTextLen)
		return
	}
	if !utf8.ValidString(s) {
		e.err = fmt.Errorf("text %q is not valid UTF-8", s)
		return
	}
	binary.BigEndian.PutUint16(e.buf[:2], uint16(len(s)))
	if _, e.err = e.w.Write(e.buf[:2]); e.err != nil {
		return
	}
	_, e.err = e.w.WriteString(s)
}

func (e *encoder) int32(n int) {
	if e.err != nil {
		return
	}
	if n < 0 || n > math.MaxInt32 {
		e.err = fmt.Errorf("count %d out of range", n)
		return
	}
	binary.BigEndian.PutUint32(e.buf[:4], uint32(n))
	_, e.err = e.w.Write(e.buf[:4])
}

func (e *encoder) int64(n int64) {
	if e.err != nil {
		return
	}
	binary.BigEndian.PutUint64(e.buf[:8], uint64(n))
	_, e.err = e.w.Write(e.buf[:8])
}

func (e *encoder) flush() error {
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

// decoder reads big-endian primitives. Short reads become ErrCorrupt.
type decoder struct {
	r   *bufio.Reader
	buf [8]byte
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{r: bufio.NewReader(r)}
}

func (d *decoder) full(n int, what string) error {
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated reading %s", ErrCorrupt, what)
		}
		return fmt.Errorf("read %s: %w", what, err)
	}
	return nil
}

func (d *decoder) text(what string) (string, error) {
	if err := d.full(2, what+" length"); err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint16(d.buf[:2]))

	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("%w: truncated reading %s", ErrCorrupt, what)
		}
		return "", fmt.Errorf("read %s: %w", what, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrCorrupt, what)
	}
	return string(b), nil
}

func (d *decoder) count(what string) (int, error) {
	if err := d.full(4, what); err != nil {
		return 0, err
	}
	n := int32(binary.BigEndian.Uint32(d.buf[:4]))
	if n < 0 {
		return 0, fmt.Errorf("%w: negative %s %d", ErrCorrupt, what, n)
	}
	return int(n), nil
}

func (d *decoder) int64(what string) (int64, error) {
	if err := d.full(8, what); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(d.buf[:8])), nil
}

// end checks that nothing follows the sentinel.
func (d *decoder) end() error {
	if _, err := d.r.ReadByte(); err == nil {
		return fmt.Errorf("%w: trailing bytes after %s", ErrCorrupt, Sentinel)
	} else if !errors.Is(err, io.EOF) {
		return fmt.Errorf("read after %s: %w", Sentinel, err)
	}
	return nil
}

// capHint bounds slice preallocation so a corrupt count cannot force a huge
// allocation before the data runs out.
func capHint(n int) int {
	return min(n, 1<<16)
}
