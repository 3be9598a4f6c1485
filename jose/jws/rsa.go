package jws

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/anttk/idcore/jose/jwk"
)

type rsaBackend struct {
	alg     string
	priv    *rsa.PrivateKey // nil when only verification is possible
	pub     *rsa.PublicKey
	hash    crypto.Hash
	hasher  func() hash.Hash
	pss     bool
}

func newRSABackend(alg string, key jwk.Key, pss bool) (backend, error) {
	var hsh crypto.Hash
	var hasher func() hash.Hash
	switch alg {
	case "RS256", "PS256":
		hsh, hasher = crypto.SHA256, sha256.New
	case "RS384", "PS384":
		hsh, hasher = crypto.SHA384, sha512.New384
	case "RS512", "PS512":
		hsh, hasher = crypto.SHA512, sha512.New
	default:
		return nil, errf(KindUnsupportedAlgorithm, "unsupported RSA alg %q", alg)
	}

	b := &rsaBackend{alg: alg, hash: hsh, hasher: hasher, pss: pss}
	switch k := key.CryptoKey().(type) {
	case *rsa.PrivateKey:
		b.priv, b.pub = k, &k.PublicKey
	case *rsa.PublicKey:
		b.pub = k
	default:
		return nil, errf(KindInvalidKey, "RSA alg %q requires an RSA key", alg)
	}
	return b, nil
}

func (b *rsaBackend) Alg() string { return b.alg }

func (b *rsaBackend) digest(signingInput []byte) []byte {
	h := b.hasher()
	h.Write(signingInput)
	return h.Sum(nil)
}

func (b *rsaBackend) Sign(signingInput []byte) ([]byte, error) {
	if b.priv == nil {
		return nil, errf(KindInvalidKey, "signing with alg %q requires a private key", b.alg)
	}
	digest := b.digest(signingInput)
	if b.pss {
		return rsa.SignPSS(rand.Reader, b.priv, b.hash, digest, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: b.hash})
	}
	return rsa.SignPKCS1v15(rand.Reader, b.priv, b.hash, digest)
}

func (b *rsaBackend) Verify(signingInput, signature []byte) error {
	digest := b.digest(signingInput)
	var err error
	if b.pss {
		err = rsa.VerifyPSS(b.pub, b.hash, digest, signature, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: b.hash})
	} else {
		err = rsa.VerifyPKCS1v15(b.pub, b.hash, digest, signature)
	}
	if err != nil {
		return errf(KindInvalidSignature, "RSA signature verification failed: %v", err)
	}
	return nil
}
