package asn1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeLengthShortForm(t *testing.T) {
	require.Equal(t, []byte{0x00}, EncodeLength(0, false))
	require.Equal(t, []byte{0x7F}, EncodeLength(127, false))
}

func TestEncodeLengthLongFormBoundary(t *testing.T) {
	require.Equal(t, []byte{0x81, 0x80}, EncodeLength(128, false))
}

func TestEncodeLengthWorkedExample(t *testing.T) {
	require.Equal(t, []byte{0x82, 0x01, 0xF9}, EncodeLength(0x01F9, false))
}

func TestEncodeLengthForcedLongForm(t *testing.T) {
	b := EncodeLength(5, true)
	require.GreaterOrEqual(t, len(b), 2)
	length, consumed, err := DecodeLength(b)
	require.NoError(t, err)
	require.Equal(t, 5, length)
	require.Equal(t, len(b), consumed)
}

func TestDecodeLengthRoundTrip(t *testing.T) {
	cases := []int{0, 1, 127, 128, 255, 256, 65535, 1 << 20}
	for _, l := range cases {
		enc := EncodeLength(l, false)
		dec, consumed, err := DecodeLength(enc)
		require.NoError(t, err)
		require.Equal(t, l, dec)
		require.Equal(t, len(enc), consumed)
	}
}

func TestDecodeLengthRejectsTooManyLongFormOctets(t *testing.T) {
	data := append([]byte{0x80 | 127}, make([]byte, 127)...)
	_, _, err := DecodeLength(data)
	require.Error(t, err)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, KindMalformedLength, aerr.Kind)
}

func TestDecodeLengthRejectsTruncatedInput(t *testing.T) {
	_, _, err := DecodeLength([]byte{0x82, 0x01})
	require.Error(t, err)
}

func TestDecodeLengthRejectsIndefiniteForm(t *testing.T) {
	_, _, err := DecodeLength([]byte{0x80})
	require.Error(t, err)
}
