package jwe

import (
	"crypto/aes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"hash"
	"math/big"
	"strings"

	"golang.org/x/crypto/curve25519"

	icrypto "github.com/anttk/idcore/pkg/crypto"

	"github.com/anttk/idcore/jose/jwk"
)

// b64EncodeFixedBigInt renders an unsigned big-endian value zero-padded to
// size bytes, mirroring jwk's own EC coordinate encoding (RFC 7518
// §6.2.1.2) for the ephemeral key this package places in "epk".
func b64EncodeFixedBigInt(n *big.Int, size int) string {
	raw := n.Bytes()
	if len(raw) >= size {
		return b64.EncodeToString(raw)
	}
	padded := make([]byte, size)
	copy(padded[size-len(raw):], raw)
	return b64.EncodeToString(padded)
}

// wrappedKey is the CEK plus the bytes (possibly empty) to carry as the
// JWE's encrypted-key segment.
type wrappedKey struct {
	cek          []byte
	encryptedKey []byte
}

// wrapKey produces a CEK for enc and wraps it for key under alg, returning
// any header parameters the wrap algorithm contributes (epk/apu/apv, or
// iv/tag for AES-GCM-KW).
func wrapKey(alg, enc string, key jwk.Key, cekSize int) (wrappedKey, Header, error) {
	switch {
	case alg == "dir":
		return wrapDir(key, cekSize)
	case alg == "RSA1_5":
		return wrapRSA(key, cekSize, rsaPKCS1v15{})
	case strings.HasPrefix(alg, "RSA-OAEP"):
		return wrapRSA(key, cekSize, rsaOAEPFor(alg))
	case isAESKW(alg):
		return wrapAESKW(alg, key, cekSize)
	case isAESGCMKW(alg):
		return wrapAESGCMKW(alg, key, cekSize)
	case alg == "ECDH-ES":
		return wrapECDHES(alg, enc, key, cekSize, cekSize*8)
	case strings.HasPrefix(alg, "ECDH-ES+A") && strings.HasSuffix(alg, "KW"):
		kekSize := aesKWKeySize(alg[len("ECDH-ES+"):])
		return wrapECDHESWithKW(alg, key, cekSize, kekSize)
	default:
		return wrappedKey{}, Header{}, errf(KindUnsupportedAlgorithm, "unsupported key management alg %q", alg)
	}
}

func unwrapKey(header Header, key jwk.Key, cekSize int, encryptedKey []byte) ([]byte, error) {
	alg := header.Alg
	switch {
	case alg == "dir":
		return unwrapDir(key, cekSize)
	case alg == "RSA1_5":
		return unwrapRSA(key, encryptedKey, rsaPKCS1v15{})
	case strings.HasPrefix(alg, "RSA-OAEP"):
		return unwrapRSA(key, encryptedKey, rsaOAEPFor(alg))
	case isAESKW(alg):
		return unwrapAESKW(key, encryptedKey)
	case isAESGCMKW(alg):
		return unwrapAESGCMKW(header, key, encryptedKey)
	case alg == "ECDH-ES":
		return unwrapECDHES(header, key, cekSize*8, encryptedKey)
	case strings.HasPrefix(alg, "ECDH-ES+A") && strings.HasSuffix(alg, "KW"):
		kekSize := aesKWKeySize(alg[len("ECDH-ES+"):])
		return unwrapECDHESWithKW(header, key, kekSize, encryptedKey)
	default:
		return nil, errf(KindUnsupportedAlgorithm, "unsupported key management alg %q", alg)
	}
}

// -- dir --------------------------------------------------------------

func wrapDir(key jwk.Key, cekSize int) (wrappedKey, Header, error) {
	raw, ok := key.CryptoKey().([]byte)
	if !ok {
		return wrappedKey{}, Header{}, errf(KindInvalidKey, "alg \"dir\" requires an oct key")
	}
	if len(raw) != cekSize {
		return wrappedKey{}, Header{}, errf(KindInvalidKey, "alg \"dir\" key must be %d bytes, got %d", cekSize, len(raw))
	}
	return wrappedKey{cek: raw}, Header{}, nil
}

func unwrapDir(key jwk.Key, cekSize int) ([]byte, error) {
	raw, ok := key.CryptoKey().([]byte)
	if !ok {
		return nil, errf(KindInvalidKey, "alg \"dir\" requires an oct key")
	}
	if len(raw) != cekSize {
		return nil, errf(KindInvalidKey, "alg \"dir\" key must be %d bytes, got %d", cekSize, len(raw))
	}
	return raw, nil
}

// -- RSA (RSA1_5, RSA-OAEP[-256/384/512]) ------------------------------

type rsaEncScheme interface {
	encrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error)
	decrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error)
}

type rsaPKCS1v15 struct{}

func (rsaPKCS1v15) encrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	return rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
}
func (rsaPKCS1v15) decrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
}

type rsaOAEP struct{ hash hash.Hash }

func rsaOAEPFor(alg string) rsaOAEP {
	switch alg {
	case "RSA-OAEP":
		return rsaOAEP{hash: sha1.New()}
	case "RSA-OAEP-256":
		return rsaOAEP{hash: sha256.New()}
	case "RSA-OAEP-384":
		return rsaOAEP{hash: sha512.New384()}
	case "RSA-OAEP-512":
		return rsaOAEP{hash: sha512.New()}
	default:
		return rsaOAEP{hash: sha1.New()}
	}
}

func (s rsaOAEP) encrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	return rsa.EncryptOAEP(s.hash, rand.Reader, pub, plaintext, nil)
}
func (s rsaOAEP) decrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	return rsa.DecryptOAEP(s.hash, rand.Reader, priv, ciphertext, nil)
}

func wrapRSA(key jwk.Key, cekSize int, scheme rsaEncScheme) (wrappedKey, Header, error) {
	pub, ok := key.CryptoKey().(*rsa.PublicKey)
	if !ok {
		if priv, ok := key.CryptoKey().(*rsa.PrivateKey); ok {
			pub = &priv.PublicKey
		} else {
			return wrappedKey{}, Header{}, errf(KindInvalidKey, "RSA key wrap requires an RSA key")
		}
	}
	cek, err := randBytes(cekSize)
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	encryptedKey, err := scheme.encrypt(pub, cek)
	if err != nil {
		return wrappedKey{}, Header{}, errf(KindInvalidKey, "RSA key wrap failed: %v", err)
	}
	return wrappedKey{cek: cek, encryptedKey: encryptedKey}, Header{}, nil
}

func unwrapRSA(key jwk.Key, encryptedKey []byte, scheme rsaEncScheme) ([]byte, error) {
	priv, ok := key.CryptoKey().(*rsa.PrivateKey)
	if !ok {
		return nil, errf(KindInvalidKey, "RSA key unwrap requires a private RSA key")
	}
	cek, err := scheme.decrypt(priv, encryptedKey)
	if err != nil {
		return nil, errf(KindInvalidKey, "RSA key unwrap failed: %v", err)
	}
	return cek, nil
}

// -- AES-KW (RFC 3394), used directly and as ECDH-ES's second stage ---

func isAESKW(alg string) bool {
	return alg == "A128KW" || alg == "A192KW" || alg == "A256KW"
}

func aesKWKeySize(alg string) int {
	switch alg {
	case "A128KW":
		return 16
	case "A192KW":
		return 24
	case "A256KW":
		return 32
	default:
		return 0
	}
}

var aesKWDefaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// aesKWWrap implements the RFC 3394 key wrap algorithm.
func aesKWWrap(kek, cek []byte) ([]byte, error) {
	if len(cek)%8 != 0 || len(cek) < 16 {
		return nil, errf(KindInvalidJwe, "AES-KW plaintext must be a multiple of 8 bytes, >= 16")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errf(KindInvalidKey, "building AES cipher: %v", err)
	}
	n := len(cek) / 8
	r := make([][]byte, n)
	for i := range r {
		r[i] = append([]byte{}, cek[i*8:(i+1)*8]...)
	}
	a := append([]byte{}, aesKWDefaultIV[:]...)
	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a)
			copy(buf[8:], r[i-1])
			block.Encrypt(buf, buf)
			t := uint64(n*j + i)
			var tBytes [8]byte
			binary.BigEndian.PutUint64(tBytes[:], t)
			for k := range a {
				a[k] = buf[k] ^ tBytes[k]
			}
			r[i-1] = append([]byte{}, buf[8:]...)
		}
	}
	out := make([]byte, 0, 8+len(cek))
	out = append(out, a...)
	for _, blk := range r {
		out = append(out, blk...)
	}
	return out, nil
}

// aesKWUnwrap reverses aesKWWrap, verifying the integrity-check value.
func aesKWUnwrap(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped)%8 != 0 || len(wrapped) < 24 {
		return nil, errf(KindInvalidJwe, "AES-KW ciphertext malformed")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errf(KindInvalidKey, "building AES cipher: %v", err)
	}
	n := len(wrapped)/8 - 1
	a := append([]byte{}, wrapped[:8]...)
	r := make([][]byte, n)
	for i := range r {
		r[i] = append([]byte{}, wrapped[8+i*8:8+(i+1)*8]...)
	}
	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			var tBytes [8]byte
			binary.BigEndian.PutUint64(tBytes[:], t)
			xored := make([]byte, 8)
			for k := 0; k < 8; k++ {
				xored[k] = a[k] ^ tBytes[k]
			}
			copy(buf[:8], xored)
			copy(buf[8:], r[i-1])
			block.Decrypt(buf, buf)
			a = append([]byte{}, buf[:8]...)
			r[i-1] = append([]byte{}, buf[8:]...)
		}
	}
	if subtle.ConstantTimeCompare(a, aesKWDefaultIV[:]) != 1 {
		return nil, errf(KindInvalidJwe, "AES-KW integrity check failed")
	}
	out := make([]byte, 0, n*8)
	for _, blk := range r {
		out = append(out, blk...)
	}
	return out, nil
}

func wrapAESKW(alg string, key jwk.Key, cekSize int) (wrappedKey, Header, error) {
	kek, ok := key.CryptoKey().([]byte)
	if !ok {
		return wrappedKey{}, Header{}, errf(KindInvalidKey, "alg %q requires an oct key", alg)
	}
	if len(kek) != aesKWKeySize(alg) {
		return wrappedKey{}, Header{}, errf(KindInvalidKey, "alg %q key must be %d bytes, got %d", alg, aesKWKeySize(alg), len(kek))
	}
	cek, err := randBytes(cekSize)
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	wrapped, err := aesKWWrap(kek, cek)
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	return wrappedKey{cek: cek, encryptedKey: wrapped}, Header{}, nil
}

func unwrapAESKW(key jwk.Key, encryptedKey []byte) ([]byte, error) {
	kek, ok := key.CryptoKey().([]byte)
	if !ok {
		return nil, errf(KindInvalidKey, "AES-KW unwrap requires an oct key")
	}
	return aesKWUnwrap(kek, encryptedKey)
}

// -- AES-GCM-KW ---------------------------------------------------------

func isAESGCMKW(alg string) bool {
	return alg == "A128GCMKW" || alg == "A192GCMKW" || alg == "A256GCMKW"
}

func aesGCMKWKeySize(alg string) int {
	switch alg {
	case "A128GCMKW":
		return 16
	case "A192GCMKW":
		return 24
	case "A256GCMKW":
		return 32
	default:
		return 0
	}
}

func wrapAESGCMKW(alg string, key jwk.Key, cekSize int) (wrappedKey, Header, error) {
	kek, ok := key.CryptoKey().([]byte)
	if !ok {
		return wrappedKey{}, Header{}, errf(KindInvalidKey, "alg %q requires an oct key", alg)
	}
	if len(kek) != aesGCMKWKeySize(alg) {
		return wrappedKey{}, Header{}, errf(KindInvalidKey, "alg %q key must be %d bytes, got %d", alg, aesGCMKWKeySize(alg), len(kek))
	}
	gcm, err := newGCM(kek)
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	cek, err := randBytes(cekSize)
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	iv, err := randBytes(gcm.NonceSize())
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	sealed := gcm.Seal(nil, iv, cek, nil)
	ciphertext, tag := sealed[:len(sealed)-gcm.Overhead()], sealed[len(sealed)-gcm.Overhead():]
	return wrappedKey{cek: cek, encryptedKey: ciphertext}, Header{IV: b64.EncodeToString(iv), Tag: b64.EncodeToString(tag)}, nil
}

func unwrapAESGCMKW(header Header, key jwk.Key, encryptedKey []byte) ([]byte, error) {
	kek, ok := key.CryptoKey().([]byte)
	if !ok {
		return nil, errf(KindInvalidKey, "AES-GCM-KW unwrap requires an oct key")
	}
	iv, err := b64.DecodeString(header.IV)
	if err != nil {
		return nil, errf(KindInvalidJwe, "header \"iv\" is not valid base64url: %v", err)
	}
	tag, err := b64.DecodeString(header.Tag)
	if err != nil {
		return nil, errf(KindInvalidJwe, "header \"tag\" is not valid base64url: %v", err)
	}
	gcm, err := newGCM(kek)
	if err != nil {
		return nil, err
	}
	cek, err := gcm.Open(nil, iv, append(append([]byte{}, encryptedKey...), tag...), nil)
	if err != nil {
		return nil, errf(KindInvalidJwe, "AES-GCM-KW authentication failed: %v", err)
	}
	return cek, nil
}

// -- ECDH-ES and ECDH-ES+AxxxKW -----------------------------------------

func wrapECDHES(alg, enc string, recipient jwk.Key, cekSize, keydatalenBits int) (wrappedKey, Header, error) {
	z, epkPub, err := ecdhAgreeEphemeral(recipient)
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	derived := concatKDF(z, keydatalenBits, []byte(enc), nil, nil)
	return wrappedKey{cek: derived}, Header{Epk: epkPub}, nil
}

func unwrapECDHES(header Header, recipient jwk.Key, keydatalenBits int, _ []byte) ([]byte, error) {
	z, err := ecdhAgreeFromHeader(header, recipient)
	if err != nil {
		return nil, err
	}
	return concatKDF(z, keydatalenBits, []byte(header.Enc), nil, nil), nil
}

func wrapECDHESWithKW(alg string, recipient jwk.Key, cekSize, kekSize int) (wrappedKey, Header, error) {
	z, epkPub, err := ecdhAgreeEphemeral(recipient)
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	kwAlg := alg[len("ECDH-ES+"):]
	kek := concatKDF(z, kekSize*8, []byte(kwAlg), nil, nil)
	cek, err := randBytes(cekSize)
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	wrapped, err := aesKWWrap(kek, cek)
	if err != nil {
		return wrappedKey{}, Header{}, err
	}
	return wrappedKey{cek: cek, encryptedKey: wrapped}, Header{Epk: epkPub}, nil
}

func unwrapECDHESWithKW(header Header, recipient jwk.Key, kekSize int, encryptedKey []byte) ([]byte, error) {
	z, err := ecdhAgreeFromHeader(header, recipient)
	if err != nil {
		return nil, err
	}
	kwAlg := header.Alg[len("ECDH-ES+"):]
	kek := concatKDF(z, kekSize*8, []byte(kwAlg), nil, nil)
	return aesKWUnwrap(kek, encryptedKey)
}

// ecdhAgreeEphemeral generates an ephemeral key pair on recipient's
// curve, computes the shared secret against recipient's public key, and
// returns the ephemeral public key in JWK form for the "epk" header.
func ecdhAgreeEphemeral(recipient jwk.Key) (z []byte, epkPub *jwk.Params, err error) {
	switch recipient.Kty() {
	case jwk.KtyEC:
		pub, ok := recipientECPublic(recipient)
		if !ok {
			return nil, nil, errf(KindInvalidKey, "ECDH-ES requires an EC key")
		}
		curve := pub.Curve
		ephemeral, genErr := ecdsa.GenerateKey(curve, rand.Reader)
		if genErr != nil {
			return nil, nil, errf(KindInvalidKey, "generating ephemeral EC key: %v", genErr)
		}
		shared, agreeErr := ecdhSharedSecret(ephemeral, pub)
		if agreeErr != nil {
			return nil, nil, agreeErr
		}
		ephKey := &ecKeyAdapter{priv: ephemeral}
		p := ephKey.Export(true)
		return shared, &p, nil

	case jwk.KtyOKP:
		pub, ok := recipient.CryptoKey().([]byte)
		if !ok || len(pub) != 32 {
			return nil, nil, errf(KindInvalidKey, "ECDH-ES with OKP requires an X25519 public key")
		}
		ephPriv, genErr := icrypto.RandBytes(32)
		if genErr != nil {
			return nil, nil, errf(KindInvalidKey, "generating ephemeral X25519 key: %v", genErr)
		}
		ephPub, xErr := curve25519.X25519(ephPriv, curve25519.Basepoint)
		if xErr != nil {
			return nil, nil, errf(KindInvalidKey, "deriving ephemeral X25519 public key: %v", xErr)
		}
		shared, xErr := curve25519.X25519(ephPriv, pub)
		if xErr != nil {
			return nil, nil, errf(KindInvalidKey, "X25519 agreement failed: %v", xErr)
		}
		p := jwk.Params{Kty: jwk.KtyOKP, Crv: jwk.CrvX25519, X: b64.EncodeToString(ephPub)}
		return shared, &p, nil

	default:
		return nil, nil, errf(KindInvalidKey, "ECDH-ES requires an EC or OKP key, got kty %q", recipient.Kty())
	}
}

func ecdhAgreeFromHeader(header Header, recipient jwk.Key) ([]byte, error) {
	if header.Epk == nil {
		return nil, errf(KindInvalidJwe, "ECDH-ES header missing \"epk\"")
	}
	epk, err := jwk.Load(*header.Epk)
	if err != nil {
		return nil, errf(KindInvalidJwe, "header \"epk\" is not a valid JWK: %v", err)
	}
	if epk.Kty() != recipient.Kty() {
		return nil, errf(KindInvalidKey, "epk kty %q does not match recipient kty %q", epk.Kty(), recipient.Kty())
	}

	switch recipient.Kty() {
	case jwk.KtyEC:
		priv, ok := recipient.CryptoKey().(*ecdsa.PrivateKey)
		if !ok {
			return nil, errf(KindInvalidKey, "ECDH-ES unwrap requires a private EC key")
		}
		epkPub, ok := recipientECPublic(epk)
		if !ok {
			return nil, errf(KindInvalidKey, "epk is not a valid EC public key")
		}
		return ecdhSharedSecret(priv, epkPub)

	case jwk.KtyOKP:
		priv, ok := recipient.CryptoKey().([]byte)
		if !ok || len(priv) != 32 {
			return nil, errf(KindInvalidKey, "ECDH-ES unwrap requires a private X25519 key")
		}
		epkPub, ok := epk.CryptoKey().([]byte)
		if !ok || len(epkPub) != 32 {
			return nil, errf(KindInvalidKey, "epk is not a valid X25519 public key")
		}
		shared, err := curve25519.X25519(priv, epkPub)
		if err != nil {
			return nil, errf(KindInvalidKey, "X25519 agreement failed: %v", err)
		}
		return shared, nil

	default:
		return nil, errf(KindInvalidKey, "unsupported ECDH-ES kty %q", recipient.Kty())
	}
}

func recipientECPublic(k jwk.Key) (*ecdsa.PublicKey, bool) {
	switch v := k.CryptoKey().(type) {
	case *ecdsa.PublicKey:
		return v, true
	case *ecdsa.PrivateKey:
		return &v.PublicKey, true
	default:
		return nil, false
	}
}

// ecdhSharedSecret computes the X coordinate of priv*pub using the curve's
// scalar multiplication, the shared secret ECDH-ES's Concat KDF consumes.
func ecdhSharedSecret(priv *ecdsa.PrivateKey, pub *ecdsa.PublicKey) ([]byte, error) {
	ecdhPriv, err := priv.ECDH()
	if err != nil {
		return nil, errf(KindInvalidKey, "converting EC private key for ECDH: %v", err)
	}
	ecdhPub, err := pub.ECDH()
	if err != nil {
		return nil, errf(KindInvalidKey, "converting EC public key for ECDH: %v", err)
	}
	shared, err := ecdhPriv.ECDH(ecdhPub)
	if err != nil {
		return nil, errf(KindInvalidKey, "ECDH agreement failed: %v", err)
	}
	return shared, nil
}

// ecKeyAdapter exports an ephemeral *ecdsa.PrivateKey through jwk.Key's
// Export without round-tripping it through jwk.Load, since the ephemeral
// key only ever needs its public projection placed in a header.
type ecKeyAdapter struct {
	priv *ecdsa.PrivateKey
}

func (a *ecKeyAdapter) Export(public bool) jwk.Params {
	crv := crvNameForCurve(a.priv.Curve.Params().Name)
	size := (a.priv.Curve.Params().BitSize + 7) / 8
	return jwk.Params{
		Kty: jwk.KtyEC,
		Crv: crv,
		X:   b64EncodeFixedBigInt(a.priv.X, size),
		Y:   b64EncodeFixedBigInt(a.priv.Y, size),
	}
}

func crvNameForCurve(name string) string {
	switch name {
	case "P-256":
		return jwk.CrvP256
	case "P-384":
		return jwk.CrvP384
	case "P-521":
		return jwk.CrvP521
	default:
		return name
	}
}
