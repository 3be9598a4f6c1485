package asn1

// EncodeLength encodes a non-negative length as BER: short form (a single
// byte equal to l) when l < 128, long form (0x80|n followed by l in n
// big-endian bytes) otherwise. Passing longForm forces the long form even
// when l would fit in a single short-form byte, which is needed to
// round-trip DER-canonical peers that never emit short form for values that
// happen to also be representable in long form (producers that always use
// a fixed-width length prefix, for instance).
func EncodeLength(l int, longForm bool) []byte {
	if l < 0 {
		panic("asn1: negative length")
	}
	if l < 128 && !longForm {
		return []byte{byte(l)}
	}

	var content []byte
	if l == 0 {
		content = []byte{0}
	}
	for v := l; v > 0; v >>= 8 {
		content = append([]byte{byte(v)}, content...)
	}
	if len(content) > 126 {
		panic("asn1: length too large to encode")
	}
	out := make([]byte, 0, len(content)+1)
	out = append(out, 0x80|byte(len(content)))
	out = append(out, content...)
	return out
}

// DecodeLength decodes a BER length prefix from the start of data, returning
// the decoded length and the number of bytes consumed. It requires that the
// long-form byte count does not exceed 126 and that enough bytes remain to
// satisfy it.
func DecodeLength(data []byte) (length int, consumed int, err error) {
	if len(data) == 0 {
		return 0, 0, newErr(KindMalformedLength, "empty input")
	}
	first := data[0]
	if first&0x80 == 0 {
		return int(first), 1, nil
	}
	n := int(first & 0x7F)
	if n > 126 {
		return 0, 0, newErr(KindMalformedLength, "long form length of %d octets exceeds maximum of 126", n)
	}
	if n == 0 {
		// 0x80 alone denotes indefinite length, which this codec does not
		// support (definite-length only, per the BER subset in scope).
		return 0, 0, newErr(KindMalformedLength, "indefinite length form is not supported")
	}
	if len(data) < 1+n {
		return 0, 0, newErr(KindMalformedLength, "need %d length octets, have %d", n, len(data)-1)
	}
	for _, b := range data[1 : 1+n] {
		length = length<<8 | int(b)
	}
	return length, 1 + n, nil
}
