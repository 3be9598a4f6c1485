package jws

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"math/big"

	"github.com/anttk/idcore/jose/jwk"
)

type ecdsaBackend struct {
	alg    string
	priv   *ecdsa.PrivateKey // nil when only verification is possible
	pub    *ecdsa.PublicKey
	hasher func() hash.Hash
	size   int // coordinate size in bytes, per RFC 7518 §3.4
}

func newECDSABackend(alg string, key jwk.Key) (backend, error) {
	var hasher func() hash.Hash
	var size int
	var curve elliptic.Curve
	switch alg {
	case "ES256":
		hasher, size, curve = sha256.New, 32, elliptic.P256()
	case "ES384":
		hasher, size, curve = sha512.New384, 48, elliptic.P384()
	case "ES512":
		hasher, size, curve = sha512.New, 66, elliptic.P521()
	default:
		return nil, errf(KindUnsupportedAlgorithm, "unsupported ECDSA alg %q", alg)
	}

	b := &ecdsaBackend{alg: alg, hasher: hasher, size: size}
	switch k := key.CryptoKey().(type) {
	case *ecdsa.PrivateKey:
		b.priv, b.pub = k, &k.PublicKey
	case *ecdsa.PublicKey:
		b.pub = k
	default:
		return nil, errf(KindInvalidKey, "ECDSA alg %q requires an EC key", alg)
	}
	if b.pub.Curve != curve {
		return nil, errf(KindInvalidKey, "ECDSA alg %q requires curve %s, got %s", alg, curve.Params().Name, b.pub.Curve.Params().Name)
	}
	return b, nil
}

func (b *ecdsaBackend) Alg() string { return b.alg }

func (b *ecdsaBackend) digest(signingInput []byte) []byte {
	h := b.hasher()
	h.Write(signingInput)
	return h.Sum(nil)
}

// Sign produces the JWS fixed-width R||S signature format (RFC 7518
// §3.4), not the ASN.1 DER encoding ecdsa.Sign's ASN.1 wrapper would give.
func (b *ecdsaBackend) Sign(signingInput []byte) ([]byte, error) {
	if b.priv == nil {
		return nil, errf(KindInvalidKey, "signing with alg %q requires a private key", b.alg)
	}
	r, s, err := ecdsa.Sign(rand.Reader, b.priv, b.digest(signingInput))
	if err != nil {
		return nil, errf(KindInvalidKey, "ECDSA signing failed: %v", err)
	}
	sig := make([]byte, 2*b.size)
	r.FillBytes(sig[:b.size])
	s.FillBytes(sig[b.size:])
	return sig, nil
}

func (b *ecdsaBackend) Verify(signingInput, signature []byte) error {
	if len(signature) != 2*b.size {
		return errf(KindInvalidSignature, "ECDSA signature must be %d bytes, got %d", 2*b.size, len(signature))
	}
	r := new(big.Int).SetBytes(signature[:b.size])
	s := new(big.Int).SetBytes(signature[b.size:])
	if !ecdsa.Verify(b.pub, b.digest(signingInput), r, s) {
		return errf(KindInvalidSignature, "ECDSA signature verification failed")
	}
	return nil
}
