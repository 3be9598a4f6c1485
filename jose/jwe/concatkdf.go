package jwe

import (
	"crypto/sha256"
	"encoding/binary"
)

// concatKDF implements the Concat KDF (NIST SP 800-56A §5.8.1) the way
// ECDH-ES derives its key-encryption/content-encryption bytes from a
// shared secret: SHA-256 hashed in rounds over a counter, Z, and the
// OtherInfo fields, truncated to keydatalen bits. algorithmID,
// partyUInfo, and partyVInfo are each applied through LengthPrefix
// before being concatenated into OtherInfo, per §4.8.
func concatKDF(z []byte, keydatalenBits int, algorithmID, partyUInfo, partyVInfo []byte) []byte {
	algorithmID = lengthPrefix(algorithmID)
	partyUInfo = lengthPrefix(partyUInfo)
	partyVInfo = lengthPrefix(partyVInfo)

	suppPubInfo := make([]byte, 4)
	binary.BigEndian.PutUint32(suppPubInfo, uint32(keydatalenBits))

	otherInfo := make([]byte, 0, len(algorithmID)+len(partyUInfo)+len(partyVInfo)+len(suppPubInfo))
	otherInfo = append(otherInfo, algorithmID...)
	otherInfo = append(otherInfo, partyUInfo...)
	otherInfo = append(otherInfo, partyVInfo...)
	otherInfo = append(otherInfo, suppPubInfo...)

	keydatalenBytes := (keydatalenBits + 7) / 8
	rounds := (keydatalenBytes + sha256.Size - 1) / sha256.Size

	out := make([]byte, 0, rounds*sha256.Size)
	for i := 1; i <= rounds; i++ {
		h := sha256.New()
		var counter [4]byte
		binary.BigEndian.PutUint32(counter[:], uint32(i))
		h.Write(counter[:])
		h.Write(z)
		h.Write(otherInfo)
		out = append(out, h.Sum(nil)...)
	}
	return out[:keydatalenBytes]
}

// lengthPrefix renders x as a 32-bit big-endian length prefix followed by
// x itself, the "LengthPrefix" helper §4.8 defines for AlgorithmID,
// PartyUInfo, and PartyVInfo.
func lengthPrefix(x []byte) []byte {
	out := make([]byte, 4+len(x))
	binary.BigEndian.PutUint32(out, uint32(len(x)))
	copy(out[4:], x)
	return out
}
