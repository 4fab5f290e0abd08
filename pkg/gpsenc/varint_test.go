package gpsenc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeKnownValues(t *testing.T) {
	tests := []struct {
		name     string
		value    int64
		signed   bool
		expected string
	}{
		{name: "unsigned zero", value: 0, expected: "?"},
		{name: "unsigned largest single group", value: 31, expected: "^"},
		{name: "unsigned needs continuation", value: 32, expected: "_@"},
		{name: "signed zero", value: 0, signed: true, expected: "?"},
		{name: "signed one", value: 1, signed: true, expected: "A"},
		{name: "signed minus one", value: -1, signed: true, expected: "@"},
		// same layout as the polyline algorithm, so its reference values apply
		{name: "polyline latitude", value: 3850000, signed: true, expected: "_p~iF"},
		{name: "polyline longitude", value: -12020000, signed: true, expected: "~ps|U"},
		{name: "polyline large negative", value: -17998321, signed: true, expected: "`~oia@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.signed {
				got = EncodeSigned(tt.value)
			} else {
				got = EncodeUnsigned(uint64(tt.value))
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRoundTripRepresentativeValues(t *testing.T) {
	values := []int64{0, 1, -1, 1 << 20, -(1 << 20), math.MaxInt32, math.MinInt32, 1 << 40, math.MaxInt64, math.MinInt64}

	for _, v := range values {
		enc := EncodeSigned(v)
		got, n, err := DecodeSigned(enc, 0)
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
		assert.Equal(t, len(enc), n)

		if v >= 0 {
			enc = EncodeUnsigned(uint64(v))
			u, n, err := DecodeUnsigned(enc, 0)
			require.NoError(t, err, "value %d", v)
			assert.Equal(t, uint64(v), u)
			assert.Equal(t, len(enc), n)
		}
	}
}

func TestRoundTripMaxUint64(t *testing.T) {
	enc := EncodeUnsigned(math.MaxUint64)
	assert.Len(t, enc, 13)

	got, n, err := DecodeUnsigned(enc, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got)
	assert.Equal(t, 13, n)
}

func TestEncodedAlphabet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Int64().Draw(t, "v")
		for _, c := range []byte(EncodeSigned(v)) {
			if c < '?' || c > '~' {
				t.Fatalf("character %q outside alphabet", c)
			}
		}
	})
}

func TestSignedRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Int64().Draw(t, "v")
		got, n, err := DecodeSigned(EncodeSigned(v), 0)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != v || n != len(EncodeSigned(v)) {
			t.Fatalf("got %d (%d bytes), want %d", got, n, v)
		}
	})
}

func TestUnsignedRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint64().Draw(t, "v")
		got, _, err := DecodeUnsigned(EncodeUnsigned(v), 0)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != v {
			t.Fatalf("got %d, want %d", got, v)
		}
	})
}

func TestDecodeSequentialStream(t *testing.T) {
	stream := EncodeUnsigned(12345) + EncodeSigned(-77) + EncodeSigned(1<<33)

	u, n1, err := DecodeUnsigned(stream, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), u)

	s1, n2, err := DecodeSigned(stream, n1)
	require.NoError(t, err)
	assert.Equal(t, int64(-77), s1)

	s2, n3, err := DecodeSigned(stream, n1+n2)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<33), s2)
	assert.Equal(t, len(stream), n1+n2+n3)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		offset int
		err    error
	}{
		{name: "empty input", input: "", err: ErrTruncated},
		{name: "offset past end", input: "?", offset: 1, err: ErrTruncated},
		{name: "negative offset", input: "?", offset: -1, err: ErrTruncated},
		{name: "continuation without tail", input: "_", err: ErrTruncated},
		{name: "character below alphabet", input: " ", err: ErrInvalidChar},
		{name: "character inside value", input: "_!", err: ErrInvalidChar},
		{name: "fourteen groups", input: "~~~~~~~~~~~~~?", err: ErrOverflow},
		{name: "thirteenth group too wide", input: "~~~~~~~~~~~~O", err: ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeUnsigned(tt.input, tt.offset)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)

			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		})
	}
}
