package jwk

import (
	"crypto/ed25519"
	"crypto/rand"

	"golang.org/x/crypto/curve25519"

	icrypto "github.com/anttk/idcore/pkg/crypto"
)

// okpKey covers the two Octet Key Pair curves this module supports:
// Ed25519 (JWS signing, RFC 8037) and X25519 (JWE ECDH-ES key agreement,
// §4.8's Concat KDF partner).
type okpKey struct {
	params Params
	crv    string

	ed25519Priv ed25519.PrivateKey
	ed25519Pub  ed25519.PublicKey

	x25519Priv []byte // scalar, 32 bytes
	x25519Pub  []byte // point, 32 bytes
}

func loadOKP(params Params) (Key, error) {
	if params.X == "" {
		return nil, errf("OKP key missing required member \"x\"")
	}
	x, err := b64Decode(params.X)
	if err != nil {
		return nil, errf("OKP key \"x\" is not valid base64url: %v", err)
	}

	switch params.Crv {
	case CrvEd25519:
		if len(x) != ed25519.PublicKeySize {
			return nil, errf("Ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(x))
		}
		k := &okpKey{params: params, crv: params.Crv, ed25519Pub: ed25519.PublicKey(x)}
		if params.D != "" {
			d, err := b64Decode(params.D)
			if err != nil {
				return nil, errf("OKP key \"d\" is not valid base64url: %v", err)
			}
			if len(d) != ed25519.SeedSize {
				return nil, errf("Ed25519 private key \"d\" must be %d bytes, got %d", ed25519.SeedSize, len(d))
			}
			k.ed25519Priv = ed25519.NewKeyFromSeed(d)
		}
		return k, nil

	case CrvX25519:
		if len(x) != 32 {
			return nil, errf("X25519 public key must be 32 bytes, got %d", len(x))
		}
		k := &okpKey{params: params, crv: params.Crv, x25519Pub: x}
		if params.D != "" {
			d, err := b64Decode(params.D)
			if err != nil {
				return nil, errf("OKP key \"d\" is not valid base64url: %v", err)
			}
			if len(d) != 32 {
				return nil, errf("X25519 private key \"d\" must be 32 bytes, got %d", len(d))
			}
			k.x25519Priv = d
		}
		return k, nil

	default:
		return nil, errf("unsupported OKP curve %q", params.Crv)
	}
}

func generateOKP(opts GenerateOptions) (Key, error) {
	crv := opts.Crv
	if crv == "" {
		crv = CrvEd25519
	}
	switch crv {
	case CrvEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, errf("generating Ed25519 key: %v", err)
		}
		return &okpKey{
			params:      Params{Kty: KtyOKP, Crv: crv, Alg: opts.Alg},
			crv:         crv,
			ed25519Priv: priv,
			ed25519Pub:  pub,
		}, nil

	case CrvX25519:
		priv, err := icrypto.RandBytes(32)
		if err != nil {
			return nil, errf("generating X25519 key: %v", err)
		}
		pub, err := curve25519.X25519(priv, curve25519.Basepoint)
		if err != nil {
			return nil, errf("deriving X25519 public key: %v", err)
		}
		return &okpKey{
			params:     Params{Kty: KtyOKP, Crv: crv, Alg: opts.Alg},
			crv:        crv,
			x25519Priv: priv,
			x25519Pub:  pub,
		}, nil

	default:
		return nil, errf("unsupported OKP curve %q", crv)
	}
}

func (k *okpKey) Kty() string      { return KtyOKP }
func (k *okpKey) Alg() string      { return k.params.Alg }
func (k *okpKey) Use() string      { return k.params.Use }
func (k *okpKey) KeyOps() []string { return k.params.KeyOps }

func (k *okpKey) IsPrivate() bool {
	return k.ed25519Priv != nil || k.x25519Priv != nil
}

func (k *okpKey) CryptoKey() interface{} {
	switch k.crv {
	case CrvEd25519:
		if k.ed25519Priv != nil {
			return k.ed25519Priv
		}
		return k.ed25519Pub
	default:
		if k.x25519Priv != nil {
			return k.x25519Priv
		}
		return k.x25519Pub
	}
}

func (k *okpKey) Public() (Key, error) {
	pub := &okpKey{params: k.params, crv: k.crv}
	switch k.crv {
	case CrvEd25519:
		pub.ed25519Pub = k.ed25519Pub
	default:
		pub.x25519Pub = k.x25519Pub
	}
	return pub, nil
}

func (k *okpKey) Export(public bool) Params {
	p := Params{
		Kty: KtyOKP, Crv: k.crv,
		Use: k.params.Use, KeyOps: k.params.KeyOps, Kid: k.params.Kid, Alg: k.params.Alg,
	}
	switch k.crv {
	case CrvEd25519:
		p.X = b64Encode(k.ed25519Pub)
		if !public && k.ed25519Priv != nil {
			p.D = b64Encode(k.ed25519Priv.Seed())
		}
	default:
		p.X = b64Encode(k.x25519Pub)
		if !public && k.x25519Priv != nil {
			p.D = b64Encode(k.x25519Priv)
		}
	}
	return p
}

func (k *okpKey) ThumbprintParams() map[string]string {
	x := k.x25519Pub
	if k.crv == CrvEd25519 {
		x = k.ed25519Pub
	}
	return map[string]string{
		"kty": KtyOKP,
		"crv": k.crv,
		"x":   b64Encode(x),
	}
}
