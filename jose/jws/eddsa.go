package jws

import (
	"crypto/ed25519"

	"github.com/anttk/idcore/jose/jwk"
)

type eddsaBackend struct {
	priv ed25519.PrivateKey // nil when only verification is possible
	pub  ed25519.PublicKey
}

func newEdDSABackend(key jwk.Key) (backend, error) {
	b := &eddsaBackend{}
	switch k := key.CryptoKey().(type) {
	case ed25519.PrivateKey:
		b.priv, b.pub = k, k.Public().(ed25519.PublicKey)
	case ed25519.PublicKey:
		b.pub = k
	default:
		return nil, errf(KindInvalidKey, "EdDSA requires an Ed25519 OKP key")
	}
	return b, nil
}

func (b *eddsaBackend) Alg() string { return "EdDSA" }

func (b *eddsaBackend) Sign(signingInput []byte) ([]byte, error) {
	if b.priv == nil {
		return nil, errf(KindInvalidKey, "signing with EdDSA requires a private key")
	}
	return ed25519.Sign(b.priv, signingInput), nil
}

func (b *eddsaBackend) Verify(signingInput, signature []byte) error {
	if !ed25519.Verify(b.pub, signingInput, signature) {
		return errf(KindInvalidSignature, "EdDSA signature verification failed")
	}
	return nil
}
