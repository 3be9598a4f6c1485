package jwk

import (
	icrypto "github.com/anttk/idcore/pkg/crypto"
)

// octKey is a symmetric key: the raw octets carried in the "k" member.
type octKey struct {
	params Params
	key    []byte
}

func loadOct(params Params) (Key, error) {
	if params.K == "" {
		return nil, errf("oct key missing required member \"k\"")
	}
	key, err := b64Decode(params.K)
	if err != nil {
		return nil, errf("oct key \"k\" is not valid base64url: %v", err)
	}
	if len(key) == 0 {
		return nil, errf("oct key \"k\" decodes to zero bytes")
	}
	return &octKey{params: params, key: key}, nil
}

func generateOct(opts GenerateOptions) (Key, error) {
	bits := opts.Bits
	if bits == 0 {
		bits = 256
	}
	if bits%8 != 0 {
		return nil, errf("oct key size must be a whole number of bytes, got %d bits", bits)
	}
	key, err := icrypto.RandBytes(bits / 8)
	if err != nil {
		return nil, errf("generating oct key material: %v", err)
	}
	return &octKey{
		params: Params{Kty: KtyOct, Alg: opts.Alg},
		key:    key,
	}, nil
}

func (k *octKey) Kty() string              { return KtyOct }
func (k *octKey) Alg() string              { return k.params.Alg }
func (k *octKey) Use() string              { return k.params.Use }
func (k *octKey) KeyOps() []string         { return k.params.KeyOps }
func (k *octKey) CryptoKey() interface{}   { return k.key }
func (k *octKey) IsPrivate() bool          { return true }

func (k *octKey) Public() (Key, error) {
	return nil, errf("oct keys are symmetric and have no public projection")
}

func (k *octKey) Export(public bool) Params {
	if public {
		// A symmetric key has no safe public projection; exporting
		// "public" members yields only the non-secret metadata.
		return Params{Kty: KtyOct, Use: k.params.Use, KeyOps: k.params.KeyOps, Kid: k.params.Kid, Alg: k.params.Alg}
	}
	p := k.params
	p.Kty = KtyOct
	p.K = b64Encode(k.key)
	return p
}

func (k *octKey) ThumbprintParams() map[string]string {
	return map[string]string{
		"kty": KtyOct,
		"k":   b64Encode(k.key),
	}
}
