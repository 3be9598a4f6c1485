// Package jwk implements JSON Web Key (RFC 7517) parameter validation and
// crypto-key materialization for the oct, RSA, EC, and OKP key types, plus
// RFC 7638 thumbprint computation. Each key type is a Key backend
// registered under its "kty" discriminator; Load dispatches on it the way
// a JOSE algorithm registry dispatches on algorithm name.
package jwk

import (
	"crypto"
	"encoding/json"
	"fmt"
)

// Kty values recognized by this package, per §4.5.
const (
	KtyOct = "oct"
	KtyRSA = "RSA"
	KtyEC  = "EC"
	KtyOKP = "OKP"
)

// Curve names recognized for EC and OKP keys. RFC 8037 also names Ed448
// and X448, but no dependency in this module's reach supplies Curve448
// arithmetic (neither crypto/ed25519 nor golang.org/x/crypto/curve25519
// extend to it, and fabricating one is out of bounds) — OKP here is
// Ed25519/X25519 only; see DESIGN.md.
const (
	CrvP256   = "P-256"
	CrvP384   = "P-384"
	CrvP521   = "P-521"
	CrvEd25519 = "Ed25519"
	CrvX25519  = "X25519"
)

// Error is the typed error this package returns; the core's JOSE error
// taxonomy names it InvalidJwk.
type Error struct {
	Message string
}

func (e *Error) Error() string { return "InvalidJwk: " + e.Message }

func errf(format string, a ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, a...)}
}

// Params is the wire representation of a JWK: the full RFC 7517 member set
// across all four key types. Unused members are omitted on marshal.
type Params struct {
	Kty    string   `json:"kty"`
	Use    string   `json:"use,omitempty"`
	KeyOps []string `json:"key_ops,omitempty"`
	Kid    string   `json:"kid,omitempty"`
	Alg    string   `json:"alg,omitempty"`

	// oct
	K string `json:"k,omitempty"`

	// EC / OKP
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	D   string `json:"d,omitempty"`

	// RSA
	N  string `json:"n,omitempty"`
	E  string `json:"e,omitempty"`
	P  string `json:"p,omitempty"`
	Q  string `json:"q,omitempty"`
	DP string `json:"dp,omitempty"`
	DQ string `json:"dq,omitempty"`
	QI string `json:"qi,omitempty"`
}

// Key is a polymorphic JWK: parameter validation plus the crypto handle
// the JWS/JWE backends of this module consume.
type Key interface {
	// Kty returns the key type discriminator.
	Kty() string
	// Alg returns the restricting "alg" member, or "" if unset.
	Alg() string
	// Use returns the "use" member, or "" if unset.
	Use() string
	// KeyOps returns the "key_ops" member.
	KeyOps() []string
	// CryptoKey returns the opaque handle passed to JWS/JWE primitives
	// (e.g. *rsa.PrivateKey, *ecdsa.PublicKey, ed25519.PrivateKey, or a
	// raw []byte for oct).
	CryptoKey() interface{}
	// IsPrivate reports whether this key carries private material.
	IsPrivate() bool
	// Public returns the public projection of this key. For oct keys this
	// returns an error — a symmetric key has no public projection.
	Public() (Key, error)
	// Export renders this key back into wire Params. When public is true,
	// private members are omitted.
	Export(public bool) Params
	// ThumbprintParams returns the canonical, kty-specific member subset
	// used by RFC 7638 thumbprint computation.
	ThumbprintParams() map[string]string
}

// Load dispatches on params.Kty and materializes the matching Key backend,
// validating kty-specific parameters per §4.5.
func Load(params Params) (Key, error) {
	switch params.Kty {
	case KtyOct:
		return loadOct(params)
	case KtyRSA:
		return loadRSA(params)
	case KtyEC:
		return loadEC(params)
	case KtyOKP:
		return loadOKP(params)
	case "":
		return nil, errf("missing required member \"kty\"")
	default:
		return nil, errf("unsupported kty %q", params.Kty)
	}
}

// GenerateOptions configures fresh key material production via Generate.
type GenerateOptions struct {
	// Alg restricts the generated key to a single JOSE algorithm.
	Alg string
	// Crv selects the curve for EC/OKP keys.
	Crv string
	// Bits selects the RSA modulus size (default 2048) or oct key length in
	// bits (default 256).
	Bits int
}

// Generate produces a fresh key of the given kty.
func Generate(kty string, opts GenerateOptions) (Key, error) {
	switch kty {
	case KtyOct:
		return generateOct(opts)
	case KtyRSA:
		return generateRSA(opts)
	case KtyEC:
		return generateEC(opts)
	case KtyOKP:
		return generateOKP(opts)
	default:
		return nil, errf("unsupported kty %q", kty)
	}
}

// Marshal renders a Key's public or private projection as wire JSON.
func Marshal(k Key, public bool) ([]byte, error) {
	return json.Marshal(k.Export(public))
}

// thumbprintHash is always SHA-256 per RFC 7638.
var thumbprintHash = crypto.SHA256
