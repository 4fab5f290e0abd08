package gpsenc

import (
	"fmt"
	"math"
)

// Epoch2010 is the anchor (2010-01-01T00:00:00Z, in seconds) the first time delta
// of a track is measured from.
const Epoch2010 int64 = 1262304000

// CoordScale converts degrees to the integer units stored on the wire (1e-5°).
const CoordScale = 1e5

// Format selects how the time field of the first record is encoded.
type Format int

const (
	// FormatCurrent encodes the first time delta as signed, so tracks may start
	// before Epoch2010. Every later time delta is unsigned.
	FormatCurrent Format = iota
	// FormatLegacy encodes every time delta as unsigned. Read-only in practice,
	// kept for historical payloads.
	FormatLegacy
)

func (f Format) String() string {
	switch f {
	case FormatCurrent:
		return "current"
	case FormatLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Quantize converts a position to wire units: seconds and 1e-5 degree steps.
func Quantize(timestampMillis int64, lat, lon float64) (t, qlat, qlon int64) {
	t = int64(math.Round(float64(timestampMillis) / 1000))
	qlat = int64(math.Round(lat * CoordScale))
	qlon = int64(math.Round(lon * CoordScale))
	return t, qlat, qlon
}

// Writer delta-encodes a sequence of quantized points.
type Writer struct {
	format  Format
	buf     []byte
	prev    [3]int64
	started bool
}

// NewWriter creates a writer for the given format
func NewWriter(format Format) *Writer {
	return &Writer{
		format: format,
		prev:   [3]int64{Epoch2010, 0, 0},
	}
}

// WriteRaw appends one (seconds, lat×1e5, lon×1e5) record.
// Time must not go backwards after the first record.
func (w *Writer) WriteRaw(t, lat, lon int64) error {
	dt := t - w.prev[0]

	if !w.started && w.format == FormatCurrent {
		w.buf = AppendSigned(w.buf, dt)
	} else {
		if dt < 0 {
			return fmt.Errorf("gpsenc: time delta %d is negative", dt)
		}
		w.buf = AppendUnsigned(w.buf, uint64(dt))
	}
	w.buf = AppendSigned(w.buf, lat-w.prev[1])
	w.buf = AppendSigned(w.buf, lon-w.prev[2])

	w.prev = [3]int64{t, lat, lon}
	w.started = true
	return nil
}

// Len returns the number of bytes written so far
func (w *Writer) Len() int {
	return len(w.buf)
}

// String returns the encoded track
func (w *Writer) String() string {
	return string(w.buf)
}

// Reader decodes records written by Writer.
type Reader struct {
	s       string
	off     int
	format  Format
	prev    [3]int64
	started bool
}

// NewReader creates a reader over an encoded track
func NewReader(s string, format Format) *Reader {
	return &Reader{
		s:      s,
		format: format,
		prev:   [3]int64{Epoch2010, 0, 0},
	}
}

// More reports whether unread input remains
func (r *Reader) More() bool {
	return r.off < len(r.s)
}

// Offset returns the number of bytes consumed by complete records
func (r *Reader) Offset() int {
	return r.off
}

// Next decodes the next record. On error the reader state is left at the last
// complete record, so everything returned before stays valid.
func (r *Reader) Next() (t, lat, lon int64, err error) {
	off := r.off
	var vals [3]int64

	for i := range vals {
		var delta int64
		var n int

		switch {
		case i == 0 && r.format == FormatCurrent && !r.started:
			delta, n, err = DecodeSigned(r.s, off)
		case i == 0:
			var u uint64
			u, n, err = DecodeUnsigned(r.s, off)
			if err == nil && u > math.MaxInt64 {
				err = &DecodeError{Offset: off, Err: ErrOverflow}
			}
			delta = int64(u)
		default:
			delta, n, err = DecodeSigned(r.s, off)
		}
		if err != nil {
			return 0, 0, 0, err
		}

		v, ok := addChecked(r.prev[i], delta)
		if !ok {
			return 0, 0, 0, &DecodeError{Offset: off, Err: ErrOverflow}
		}
		vals[i] = v
		off += n
	}

	r.off = off
	r.prev = vals
	r.started = true
	return vals[0], vals[1], vals[2], nil
}

func addChecked(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}
