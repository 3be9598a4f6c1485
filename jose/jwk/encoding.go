package jwk

import (
	"encoding/base64"
	"math/big"
)

// b64Encode renders bytes as unpadded base64url, the encoding every JOSE
// member (RFC 7515 §2, RFC 7517 §3) uses on the wire.
func b64Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func b64Decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// b64EncodeBigInt renders a non-negative big.Int as a minimal-length,
// unsigned big-endian base64url string (RFC 7518 §6.3.1 note).
func b64EncodeBigInt(n *big.Int) string {
	return b64Encode(n.Bytes())
}

func b64DecodeBigInt(s string) (*big.Int, error) {
	b, err := b64Decode(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// b64EncodeFixed renders an unsigned big-endian value zero-padded to size
// bytes, as EC/OKP coordinates require (RFC 7518 §6.2.1.2).
func b64EncodeFixed(n *big.Int, size int) string {
	raw := n.Bytes()
	if len(raw) >= size {
		return b64Encode(raw)
	}
	padded := make([]byte, size)
	copy(padded[size-len(raw):], raw)
	return b64Encode(padded)
}
