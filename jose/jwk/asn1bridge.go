package jwk

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"math/big"

	"github.com/anttk/idcore/asn1"
)

// rsaPublicKeyASN1 mirrors the PKCS #1 RSAPublicKey SEQUENCE:
//
//	RSAPublicKey ::= SEQUENCE {
//	    modulus         INTEGER,
//	    publicExponent  INTEGER }
type rsaPublicKeyASN1 struct {
	Modulus        *big.Int
	PublicExponent *big.Int
}

func rsaPublicKeyASN1Schema() *asn1.Schema {
	return asn1.NewSchema(asn1.RootSequence).
		Field("Modulus", asn1.TypeInteger).Add().
		Field("PublicExponent", asn1.TypeInteger).Add().
		Build()
}

// LoadFromASN1 decodes a DER-encoded PKCS #1 RSAPublicKey into an RSA JWK.
// It is the bridge §5's supplement describes between the ASN.1 engine (C4)
// and the JOSE key model: a certificate's SubjectPublicKeyInfo payload can
// be handed here once its own OID-tagged envelope has been stripped by the
// caller.
func LoadFromASN1(der []byte) (Key, error) {
	var rec rsaPublicKeyASN1
	if err := asn1.DecodeDER(rsaPublicKeyASN1Schema(), der, &rec); err != nil {
		return nil, errf("decoding PKCS#1 RSAPublicKey: %v", err)
	}
	return loadRSA(Params{
		Kty: KtyRSA,
		N:   b64EncodeBigInt(rec.Modulus),
		E:   b64EncodeBigInt(rec.PublicExponent),
	})
}

// ExportToASN1 renders an RSA key's public projection as a DER-encoded
// PKCS #1 RSAPublicKey.
func ExportToASN1(k Key) ([]byte, error) {
	rk, ok := k.(*rsaKey)
	if !ok {
		return nil, errf("ASN.1 export is only supported for RSA keys, got kty %q", k.Kty())
	}
	rec := rsaPublicKeyASN1{Modulus: rk.pub.N, PublicExponent: big.NewInt(int64(rk.pub.E))}
	return asn1.EncodeValue(rsaPublicKeyASN1Schema(), rec)
}

// rsaPrivateKeyASN1 mirrors the PKCS #1 RSAPrivateKey SEQUENCE (two-prime
// form only — otherPrimeInfos, used only by multi-prime keys, is out of
// scope: the schema model has no optional-element support, and this
// module never generates or accepts multi-prime RSA keys, §4.5):
//
//	RSAPrivateKey ::= SEQUENCE {
//	    version          INTEGER,
//	    modulus          INTEGER,
//	    publicExponent   INTEGER,
//	    privateExponent  INTEGER,
//	    prime1           INTEGER,
//	    prime2           INTEGER,
//	    exponent1        INTEGER,
//	    exponent2        INTEGER,
//	    coefficient      INTEGER }
type rsaPrivateKeyASN1 struct {
	Version         *big.Int
	Modulus         *big.Int
	PublicExponent  *big.Int
	PrivateExponent *big.Int
	Prime1          *big.Int
	Prime2          *big.Int
	Exponent1       *big.Int
	Exponent2       *big.Int
	Coefficient     *big.Int
}

func rsaPrivateKeyASN1Schema() *asn1.Schema {
	return asn1.NewSchema(asn1.RootSequence).
		Field("Version", asn1.TypeInteger).Add().
		Field("Modulus", asn1.TypeInteger).Add().
		Field("PublicExponent", asn1.TypeInteger).Add().
		Field("PrivateExponent", asn1.TypeInteger).Add().
		Field("Prime1", asn1.TypeInteger).Add().
		Field("Prime2", asn1.TypeInteger).Add().
		Field("Exponent1", asn1.TypeInteger).Add().
		Field("Exponent2", asn1.TypeInteger).Add().
		Field("Coefficient", asn1.TypeInteger).Add().
		Build()
}

// LoadRSAPrivateKeyFromASN1 decodes a DER-encoded PKCS #1 RSAPrivateKey
// (two-prime form) into an RSA JWK.
func LoadRSAPrivateKeyFromASN1(der []byte) (Key, error) {
	var rec rsaPrivateKeyASN1
	if err := asn1.DecodeDER(rsaPrivateKeyASN1Schema(), der, &rec); err != nil {
		return nil, errf("decoding PKCS#1 RSAPrivateKey: %v", err)
	}
	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: rec.Modulus, E: int(rec.PublicExponent.Int64())},
		D:         rec.PrivateExponent,
		Primes:    []*big.Int{rec.Prime1, rec.Prime2},
	}
	priv.Precompute()
	if err := priv.Validate(); err != nil {
		return nil, errf("PKCS#1 RSAPrivateKey failed validation: %v", err)
	}
	return &rsaKey{params: Params{Kty: KtyRSA}, priv: priv, pub: &priv.PublicKey}, nil
}

// ExportRSAPrivateKeyToASN1 renders an RSA private key as a DER-encoded
// PKCS #1 RSAPrivateKey (two-prime form).
func ExportRSAPrivateKeyToASN1(k Key) ([]byte, error) {
	rk, ok := k.(*rsaKey)
	if !ok || rk.priv == nil {
		return nil, errf("ASN.1 private-key export requires an RSA private key, got kty %q", k.Kty())
	}
	priv := rk.priv
	if len(priv.Primes) != 2 {
		return nil, errf("ASN.1 private-key export only supports two-prime RSA keys, got %d primes", len(priv.Primes))
	}
	priv.Precompute()
	rec := rsaPrivateKeyASN1{
		Version:         big.NewInt(0),
		Modulus:         priv.N,
		PublicExponent:  big.NewInt(int64(priv.E)),
		PrivateExponent: priv.D,
		Prime1:          priv.Primes[0],
		Prime2:          priv.Primes[1],
		Exponent1:       priv.Precomputed.Dp,
		Exponent2:       priv.Precomputed.Dq,
		Coefficient:     priv.Precomputed.Qinv,
	}
	return asn1.EncodeValue(rsaPrivateKeyASN1Schema(), rec)
}

// ecPrivateKeyASN1 mirrors a scoped subset of the SEC 1 ECPrivateKey
// SEQUENCE:
//
//	ECPrivateKey ::= SEQUENCE {
//	    version        INTEGER,
//	    privateKey     OCTET STRING,
//	    parameters [0] ECParameters OPTIONAL,
//	    publicKey  [1] BIT STRING OPTIONAL }
//
// parameters and publicKey are both OPTIONAL context-tagged fields; the
// schema model has no optional-element support, so this bridge omits them
// and requires the curve to be supplied out of band (LoadECPrivateKeyFromASN1's
// crv parameter) instead of read from the DER — the public point is
// re-derived from the private scalar rather than carried on the wire.
type ecPrivateKeyASN1 struct {
	Version    *big.Int
	PrivateKey []byte
}

func ecPrivateKeyASN1Schema(scalarSize int) *asn1.Schema {
	return asn1.NewSchema(asn1.RootSequence).
		Field("Version", asn1.TypeInteger).Add().
		Field("PrivateKey", asn1.TypeBytes).ByteLength(scalarSize).Add().
		Build()
}

// LoadECPrivateKeyFromASN1 decodes a DER-encoded SEC 1 ECPrivateKey (scoped
// subset, see ecPrivateKeyASN1) into an EC JWK on curve crv.
func LoadECPrivateKeyFromASN1(der []byte, crv string) (Key, error) {
	curve, size, err := curveByName(crv)
	if err != nil {
		return nil, err
	}
	var rec ecPrivateKeyASN1
	if err := asn1.DecodeDER(ecPrivateKeyASN1Schema(size), der, &rec); err != nil {
		return nil, errf("decoding SEC1 ECPrivateKey: %v", err)
	}
	x, y := curve.ScalarBaseMult(rec.PrivateKey)
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	priv := &ecdsa.PrivateKey{PublicKey: *pub, D: new(big.Int).SetBytes(rec.PrivateKey)}
	return &ecKey{params: Params{Kty: KtyEC, Crv: crv}, curve: curve, priv: priv, pub: pub}, nil
}

// ExportECPrivateKeyToASN1 renders an EC private key as a DER-encoded SEC 1
// ECPrivateKey (scoped subset, see ecPrivateKeyASN1).
func ExportECPrivateKeyToASN1(k Key) ([]byte, error) {
	ek, ok := k.(*ecKey)
	if !ok || ek.priv == nil {
		return nil, errf("ASN.1 private-key export requires an EC private key, got kty %q", k.Kty())
	}
	size := (ek.curve.Params().BitSize + 7) / 8
	rec := ecPrivateKeyASN1{Version: big.NewInt(1), PrivateKey: ek.priv.D.Bytes()}
	return asn1.EncodeValue(ecPrivateKeyASN1Schema(size), rec)
}

// PKCS #8 OIDs this bridge recognizes: rsaEncryption and id-ecPublicKey,
// plus the three NIST named curves this module supports (§4.5).
var (
	oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidECPublicKey   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidP256          = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	oidP384          = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	oidP521          = asn1.ObjectIdentifier{1, 3, 132, 0, 35}
)

func curveOIDForName(crv string) (asn1.ObjectIdentifier, error) {
	switch crv {
	case CrvP256:
		return oidP256, nil
	case CrvP384:
		return oidP384, nil
	case CrvP521:
		return oidP521, nil
	default:
		return nil, errf("no PKCS#8 named-curve OID for curve %q", crv)
	}
}

func curveNameForOID(oid asn1.ObjectIdentifier) (string, error) {
	switch {
	case oid.Equal(oidP256):
		return CrvP256, nil
	case oid.Equal(oidP384):
		return CrvP384, nil
	case oid.Equal(oidP521):
		return CrvP521, nil
	default:
		return "", errf("unsupported named-curve OID %s", oid.String())
	}
}

// pkcs8Probe decodes just enough of a PrivateKeyInfo to read the algorithm
// OID, so LoadPKCS8PrivateKey can pick the RSA or EC schema before
// decoding the rest — the two algorithm identifiers differ in their
// second field (NULL parameters vs. a named-curve OID), so one shared
// schema cannot describe both.
type pkcs8AlgorithmOID struct {
	OID asn1.ObjectIdentifier
}

type pkcs8Probe struct {
	Version   *big.Int
	Algorithm pkcs8AlgorithmOID
}

func pkcs8ProbeAlgorithmSchema() *asn1.Schema {
	return asn1.NewSchema(asn1.RootSequence).
		Field("OID", asn1.TypeObjectIdentifier).Add().
		Build()
}

func pkcs8ProbeSchema() *asn1.Schema {
	return asn1.NewSchema(asn1.RootSequence).
		Field("Version", asn1.TypeInteger).Add().
		Field("Algorithm", asn1.TypeSequence).Nested(pkcs8ProbeAlgorithmSchema()).Add().
		Build()
}

// pkcs8RSAASN1 mirrors PrivateKeyInfo wrapping a PKCS#1 RSAPrivateKey.
type pkcs8RSAAlgorithm struct {
	OID        asn1.ObjectIdentifier
	Parameters []byte // NULL; value is ignored on encode and decode
}

type pkcs8RSAASN1 struct {
	Version    *big.Int
	Algorithm  pkcs8RSAAlgorithm
	PrivateKey []byte
}

func pkcs8RSAAlgorithmSchema() *asn1.Schema {
	return asn1.NewSchema(asn1.RootSequence).
		Field("OID", asn1.TypeObjectIdentifier).Add().
		Field("Parameters", asn1.TypeNull).Add().
		Build()
}

func pkcs8RSASchema() *asn1.Schema {
	return asn1.NewSchema(asn1.RootSequence).
		Field("Version", asn1.TypeInteger).Add().
		Field("Algorithm", asn1.TypeSequence).Nested(pkcs8RSAAlgorithmSchema()).Add().
		Field("PrivateKey", asn1.TypeOctetString).Add().
		Build()
}

// pkcs8ECASN1 mirrors PrivateKeyInfo wrapping a SEC1 ECPrivateKey, with the
// named curve carried in the algorithm identifier's parameters (so the EC
// private key's own scoped SEC1 subset doesn't need to carry it).
type pkcs8ECAlgorithm struct {
	OID   asn1.ObjectIdentifier
	Curve asn1.ObjectIdentifier
}

type pkcs8ECASN1 struct {
	Version    *big.Int
	Algorithm  pkcs8ECAlgorithm
	PrivateKey []byte
}

func pkcs8ECAlgorithmSchema() *asn1.Schema {
	return asn1.NewSchema(asn1.RootSequence).
		Field("OID", asn1.TypeObjectIdentifier).Add().
		Field("Curve", asn1.TypeObjectIdentifier).Add().
		Build()
}

func pkcs8ECSchema() *asn1.Schema {
	return asn1.NewSchema(asn1.RootSequence).
		Field("Version", asn1.TypeInteger).Add().
		Field("Algorithm", asn1.TypeSequence).Nested(pkcs8ECAlgorithmSchema()).Add().
		Field("PrivateKey", asn1.TypeOctetString).Add().
		Build()
}

// LoadPKCS8PrivateKey decodes a DER-encoded PKCS #8 PrivateKeyInfo wrapping
// either an RSA or an EC private key into the corresponding JWK.
func LoadPKCS8PrivateKey(der []byte) (Key, error) {
	var probe pkcs8Probe
	if err := asn1.DecodeDER(pkcs8ProbeSchema(), der, &probe); err != nil {
		return nil, errf("decoding PKCS#8 PrivateKeyInfo: %v", err)
	}

	switch {
	case probe.Algorithm.OID.Equal(oidRSAEncryption):
		var rec pkcs8RSAASN1
		if err := asn1.DecodeDER(pkcs8RSASchema(), der, &rec); err != nil {
			return nil, errf("decoding PKCS#8 RSA PrivateKeyInfo: %v", err)
		}
		return LoadRSAPrivateKeyFromASN1(rec.PrivateKey)

	case probe.Algorithm.OID.Equal(oidECPublicKey):
		var rec pkcs8ECASN1
		if err := asn1.DecodeDER(pkcs8ECSchema(), der, &rec); err != nil {
			return nil, errf("decoding PKCS#8 EC PrivateKeyInfo: %v", err)
		}
		crv, err := curveNameForOID(rec.Algorithm.Curve)
		if err != nil {
			return nil, err
		}
		return LoadECPrivateKeyFromASN1(rec.PrivateKey, crv)

	default:
		return nil, errf("unsupported PKCS#8 algorithm OID %s", probe.Algorithm.OID.String())
	}
}

// ExportPKCS8PrivateKey renders an RSA or EC private key as a DER-encoded
// PKCS #8 PrivateKeyInfo.
func ExportPKCS8PrivateKey(k Key) ([]byte, error) {
	switch kk := k.(type) {
	case *rsaKey:
		inner, err := ExportRSAPrivateKeyToASN1(k)
		if err != nil {
			return nil, err
		}
		rec := pkcs8RSAASN1{
			Version:    big.NewInt(0),
			Algorithm:  pkcs8RSAAlgorithm{OID: oidRSAEncryption},
			PrivateKey: inner,
		}
		return asn1.EncodeValue(pkcs8RSASchema(), rec)

	case *ecKey:
		inner, err := ExportECPrivateKeyToASN1(k)
		if err != nil {
			return nil, err
		}
		curveOID, err := curveOIDForName(kk.params.Crv)
		if err != nil {
			return nil, err
		}
		rec := pkcs8ECASN1{
			Version:    big.NewInt(0),
			Algorithm:  pkcs8ECAlgorithm{OID: oidECPublicKey, Curve: curveOID},
			PrivateKey: inner,
		}
		return asn1.EncodeValue(pkcs8ECSchema(), rec)

	default:
		return nil, errf("PKCS#8 export is only supported for RSA and EC keys, got kty %q", k.Kty())
	}
}
