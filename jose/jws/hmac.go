package jws

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"hash"

	"github.com/anttk/idcore/jose/jwk"
)

type hmacBackend struct {
	alg    string
	key    []byte
	hasher func() hash.Hash
}

func newHMACBackend(alg string, key jwk.Key) (backend, error) {
	raw, ok := key.CryptoKey().([]byte)
	if !ok {
		return nil, errf(KindInvalidKey, "HMAC alg %q requires an oct key", alg)
	}
	var hasher func() hash.Hash
	switch alg {
	case "HS256":
		hasher = sha256.New
	case "HS384":
		hasher = sha512.New384
	case "HS512":
		hasher = sha512.New
	default:
		return nil, errf(KindUnsupportedAlgorithm, "unsupported HMAC alg %q", alg)
	}
	if len(raw) < hasher().Size() {
		return nil, errf(KindInvalidKey, "HMAC alg %q requires a key of at least %d bytes, got %d", alg, hasher().Size(), len(raw))
	}
	return &hmacBackend{alg: alg, key: raw, hasher: hasher}, nil
}

func (b *hmacBackend) Alg() string { return b.alg }

func (b *hmacBackend) Sign(signingInput []byte) ([]byte, error) {
	mac := hmac.New(b.hasher, b.key)
	mac.Write(signingInput)
	return mac.Sum(nil), nil
}

func (b *hmacBackend) Verify(signingInput, signature []byte) error {
	expected, _ := b.Sign(signingInput)
	if subtle.ConstantTimeCompare(expected, signature) != 1 {
		return errf(KindInvalidSignature, "HMAC signature does not match")
	}
	return nil
}
