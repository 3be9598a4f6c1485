package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
)

type ecKey struct {
	params Params
	curve  elliptic.Curve
	priv   *ecdsa.PrivateKey // nil for a public-only key
	pub    *ecdsa.PublicKey
}

func curveByName(crv string) (elliptic.Curve, int, error) {
	switch crv {
	case CrvP256:
		return elliptic.P256(), 32, nil
	case CrvP384:
		return elliptic.P384(), 48, nil
	case CrvP521:
		return elliptic.P521(), 66, nil
	default:
		return nil, 0, errf("unsupported EC curve %q", crv)
	}
}

func loadEC(params Params) (Key, error) {
	curve, size, err := curveByName(params.Crv)
	if err != nil {
		return nil, err
	}
	if params.X == "" || params.Y == "" {
		return nil, errf("EC key missing required member \"x\" or \"y\"")
	}
	x, err := b64DecodeBigInt(params.X)
	if err != nil {
		return nil, errf("EC key \"x\" is not valid base64url: %v", err)
	}
	y, err := b64DecodeBigInt(params.Y)
	if err != nil {
		return nil, errf("EC key \"y\" is not valid base64url: %v", err)
	}
	if !curve.IsOnCurve(x, y) {
		return nil, errf("EC key point (x, y) is not on curve %s", params.Crv)
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	if params.D == "" {
		return &ecKey{params: params, curve: curve, pub: pub}, nil
	}
	d, err := b64DecodeBigInt(params.D)
	if err != nil {
		return nil, errf("EC key \"d\" is not valid base64url: %v", err)
	}
	_ = size
	priv := &ecdsa.PrivateKey{PublicKey: *pub, D: d}
	return &ecKey{params: params, curve: curve, priv: priv, pub: pub}, nil
}

func generateEC(opts GenerateOptions) (Key, error) {
	crv := opts.Crv
	if crv == "" {
		crv = CrvP256
	}
	curve, _, err := curveByName(crv)
	if err != nil {
		return nil, err
	}
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, errf("generating EC key: %v", err)
	}
	return &ecKey{
		params: Params{Kty: KtyEC, Crv: crv, Alg: opts.Alg},
		curve:  curve,
		priv:   priv,
		pub:    &priv.PublicKey,
	}, nil
}

func (k *ecKey) Kty() string      { return KtyEC }
func (k *ecKey) Alg() string      { return k.params.Alg }
func (k *ecKey) Use() string      { return k.params.Use }
func (k *ecKey) KeyOps() []string { return k.params.KeyOps }
func (k *ecKey) IsPrivate() bool  { return k.priv != nil }

func (k *ecKey) CryptoKey() interface{} {
	if k.priv != nil {
		return k.priv
	}
	return k.pub
}

func (k *ecKey) Public() (Key, error) {
	return &ecKey{params: k.params, curve: k.curve, pub: k.pub}, nil
}

func (k *ecKey) coordSize() int {
	_, size, _ := curveByName(k.params.Crv)
	return size
}

func (k *ecKey) Export(public bool) Params {
	size := k.coordSize()
	p := Params{
		Kty: KtyEC, Crv: k.params.Crv,
		Use: k.params.Use, KeyOps: k.params.KeyOps, Kid: k.params.Kid, Alg: k.params.Alg,
		X: b64EncodeFixed(k.pub.X, size),
		Y: b64EncodeFixed(k.pub.Y, size),
	}
	if !public && k.priv != nil {
		p.D = b64EncodeFixed(k.priv.D, size)
	}
	return p
}

func (k *ecKey) ThumbprintParams() map[string]string {
	size := k.coordSize()
	return map[string]string{
		"kty": KtyEC,
		"crv": k.params.Crv,
		"x":   b64EncodeFixed(k.pub.X, size),
		"y":   b64EncodeFixed(k.pub.Y, size),
	}
}
