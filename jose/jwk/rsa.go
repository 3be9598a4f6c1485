package jwk

import (
	"crypto/rand"
	"crypto/rsa"
	"math/big"
)

type rsaKey struct {
	params  Params
	priv    *rsa.PrivateKey // nil for a public-only key
	pub     *rsa.PublicKey
}

func loadRSA(params Params) (Key, error) {
	if params.N == "" || params.E == "" {
		return nil, errf("RSA key missing required member \"n\" or \"e\"")
	}
	n, err := b64DecodeBigInt(params.N)
	if err != nil {
		return nil, errf("RSA key \"n\" is not valid base64url: %v", err)
	}
	eBig, err := b64DecodeBigInt(params.E)
	if err != nil {
		return nil, errf("RSA key \"e\" is not valid base64url: %v", err)
	}
	pub := &rsa.PublicKey{N: n, E: int(eBig.Int64())}

	if params.D == "" {
		return &rsaKey{params: params, pub: pub}, nil
	}

	d, err := b64DecodeBigInt(params.D)
	if err != nil {
		return nil, errf("RSA key \"d\" is not valid base64url: %v", err)
	}
	priv := &rsa.PrivateKey{PublicKey: *pub, D: d}

	if params.P != "" && params.Q != "" {
		p, err := b64DecodeBigInt(params.P)
		if err != nil {
			return nil, errf("RSA key \"p\" is not valid base64url: %v", err)
		}
		q, err := b64DecodeBigInt(params.Q)
		if err != nil {
			return nil, errf("RSA key \"q\" is not valid base64url: %v", err)
		}
		priv.Primes = []*big.Int{p, q}
	}
	priv.Precompute()
	if err := priv.Validate(); err != nil {
		return nil, errf("RSA private key failed validation: %v", err)
	}

	return &rsaKey{params: params, priv: priv, pub: pub}, nil
}

func generateRSA(opts GenerateOptions) (Key, error) {
	bits := opts.Bits
	if bits == 0 {
		bits = 2048
	}
	if bits < 2048 {
		return nil, errf("RSA key size must be at least 2048 bits, got %d", bits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errf("generating RSA key: %v", err)
	}
	return &rsaKey{
		params: Params{Kty: KtyRSA, Alg: opts.Alg},
		priv:   priv,
		pub:    &priv.PublicKey,
	}, nil
}

func (k *rsaKey) Kty() string      { return KtyRSA }
func (k *rsaKey) Alg() string      { return k.params.Alg }
func (k *rsaKey) Use() string      { return k.params.Use }
func (k *rsaKey) KeyOps() []string { return k.params.KeyOps }
func (k *rsaKey) IsPrivate() bool  { return k.priv != nil }

func (k *rsaKey) CryptoKey() interface{} {
	if k.priv != nil {
		return k.priv
	}
	return k.pub
}

func (k *rsaKey) Public() (Key, error) {
	return &rsaKey{params: k.params, pub: k.pub}, nil
}

func (k *rsaKey) Export(public bool) Params {
	p := Params{
		Kty: KtyRSA,
		Use: k.params.Use, KeyOps: k.params.KeyOps, Kid: k.params.Kid, Alg: k.params.Alg,
		N: b64EncodeBigInt(k.pub.N),
		E: b64EncodeBigInt(big.NewInt(int64(k.pub.E))),
	}
	if !public && k.priv != nil {
		p.D = b64EncodeBigInt(k.priv.D)
		if len(k.priv.Primes) == 2 {
			p.P = b64EncodeBigInt(k.priv.Primes[0])
			p.Q = b64EncodeBigInt(k.priv.Primes[1])
		}
		if k.priv.Precomputed.Dp != nil {
			p.DP = b64EncodeBigInt(k.priv.Precomputed.Dp)
			p.DQ = b64EncodeBigInt(k.priv.Precomputed.Dq)
			p.QI = b64EncodeBigInt(k.priv.Precomputed.Qinv)
		}
	}
	return p
}

func (k *rsaKey) ThumbprintParams() map[string]string {
	return map[string]string{
		"kty": KtyRSA,
		"n":   b64EncodeBigInt(k.pub.N),
		"e":   b64EncodeBigInt(big.NewInt(int64(k.pub.E))),
	}
}
