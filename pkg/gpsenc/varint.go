// Package gpsenc implements the compact printable-ASCII varint encoding used to
// ship GPS tracks between the backend and its clients.
//
// Integers are split into 5-bit groups, least significant first. Every group but
// the last carries the continuation bit (0x20) and each group is biased by 63,
// so the output only contains characters in the range '?'..'~'. Signed values
// are zig-zag transformed first so small negative deltas stay short.
package gpsenc

import (
	"errors"
	"fmt"
)

const (
	charBias        = 63
	groupBits       = 5
	groupMask       = 0x1f
	continuationBit = 0x20

	// alphabet is '?'..'~'
	minChar = charBias
	maxChar = charBias + continuationBit + groupMask
)

var (
	// ErrTruncated is returned when the input ends in the middle of a value.
	ErrTruncated = errors.New("gpsenc: truncated input")
	// ErrOverflow is returned when a decoded value does not fit in 64 bits.
	ErrOverflow = errors.New("gpsenc: value overflows 64 bits")
	// ErrInvalidChar is returned for bytes outside the encoding alphabet.
	ErrInvalidChar = errors.New("gpsenc: invalid character")
	// ErrOutOfRange is returned for a well-formed record that does not describe
	// a valid position (latitude beyond ±90°, longitude beyond ±180° or a time
	// before 1970).
	ErrOutOfRange = errors.New("gpsenc: position out of range")
)

// DecodeError reports where in the input a decode failed.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeUnsigned encodes a non-negative integer
func EncodeUnsigned(n uint64) string {
	return string(AppendUnsigned(make([]byte, 0, 8), n))
}

// EncodeSigned encodes a signed integer using the zig-zag transform
func EncodeSigned(n int64) string {
	return string(AppendSigned(make([]byte, 0, 8), n))
}

// AppendUnsigned appends the encoding of n to dst and returns the extended slice
func AppendUnsigned(dst []byte, n uint64) []byte {
	for n >= continuationBit {
		dst = append(dst, byte((continuationBit|(n&groupMask))+charBias))
		n >>= groupBits
	}
	return append(dst, byte(n+charBias))
}

// AppendSigned appends the zig-zag encoding of n to dst
func AppendSigned(dst []byte, n int64) []byte {
	return AppendUnsigned(dst, zigzag(n))
}

// DecodeUnsigned decodes one unsigned value starting at offset.
// It returns the value and the number of characters consumed.
func DecodeUnsigned(s string, offset int) (uint64, int, error) {
	if offset < 0 || offset >= len(s) {
		return 0, 0, &DecodeError{Offset: offset, Err: ErrTruncated}
	}

	var result uint64
	var shift uint
	i := offset
	for {
		if i >= len(s) {
			return 0, i - offset, &DecodeError{Offset: i, Err: ErrTruncated}
		}

		c := s[i]
		if c < minChar || c > maxChar {
			return 0, i - offset, &DecodeError{Offset: i, Err: ErrInvalidChar}
		}
		b := uint64(c - charBias)
		i++

		group := b & groupMask
		// the 13th group only has room for the top 4 bits
		if shift >= 64 || (shift > 64-groupBits && group>>(64-shift) != 0) {
			return 0, i - offset, &DecodeError{Offset: i - 1, Err: ErrOverflow}
		}
		result |= group << shift
		shift += groupBits

		if b&continuationBit == 0 {
			return result, i - offset, nil
		}
	}
}

// DecodeSigned decodes one zig-zag encoded value starting at offset.
// It returns the value and the number of characters consumed.
func DecodeSigned(s string, offset int) (int64, int, error) {
	u, n, err := DecodeUnsigned(s, offset)
	if err != nil {
		return 0, n, err
	}
	return unzigzag(u), n, nil
}

func zigzag(n int64) uint64 {
	u := uint64(n) << 1
	if n < 0 {
		u = ^u
	}
	return u
}

func unzigzag(u uint64) int64 {
	if u&1 != 0 {
		return int64(^(u >> 1))
	}
	return int64(u >> 1)
}
