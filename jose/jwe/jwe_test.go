package jwe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anttk/idcore/jose/jwk"
)

func octKeyBytes(t *testing.T, b []byte) jwk.Key {
	t.Helper()
	k, err := jwk.Load(jwk.Params{Kty: jwk.KtyOct, K: b64.EncodeToString(b)})
	require.NoError(t, err)
	return k
}

// TestA128KWWrapUnwrapS3 exercises the §8 S3 scenario: wrapping/unwrapping
// a 16-byte CEK under a 16-byte KEK, both 0x00..0x0F, round-trips.
func TestA128KWWrapUnwrapS3(t *testing.T) {
	kek := make([]byte, 16)
	cek := make([]byte, 16)
	for i := range kek {
		kek[i] = byte(i)
		cek[i] = byte(i)
	}
	wrapped, err := aesKWWrap(kek, cek)
	require.NoError(t, err)
	require.Len(t, wrapped, 24)

	unwrapped, err := aesKWUnwrap(kek, wrapped)
	require.NoError(t, err)
	require.Equal(t, cek, unwrapped)
}

func TestAESKWUnwrapRejectsTamperedCiphertext(t *testing.T) {
	kek := make([]byte, 16)
	cek := make([]byte, 16)
	for i := range kek {
		kek[i] = byte(i)
		cek[i] = byte(i + 1)
	}
	wrapped, err := aesKWWrap(kek, cek)
	require.NoError(t, err)
	wrapped[0] ^= 0xFF
	_, err = aesKWUnwrap(kek, wrapped)
	require.Error(t, err)
}

func TestDirEncryptDecryptAESGCM(t *testing.T) {
	key := octKeyBytes(t, make([]byte, 16))
	token, err := Encrypt("dir", "A128GCM", key, []byte("hello world"), nil)
	require.NoError(t, err)

	msg, err := Parse(token)
	require.NoError(t, err)
	plaintext, err := Decrypt(msg, key, nil)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(plaintext))
}

func TestDirEncryptDecryptAESCBCHMAC(t *testing.T) {
	key := octKeyBytes(t, make([]byte, 32))
	token, err := Encrypt("dir", "A128CBC-HS256", key, []byte("hello world"), nil)
	require.NoError(t, err)

	msg, err := Parse(token)
	require.NoError(t, err)
	plaintext, err := Decrypt(msg, key, nil)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(plaintext))
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	key := octKeyBytes(t, make([]byte, 16))
	token, err := Encrypt("dir", "A128GCM", key, []byte("hello world"), nil)
	require.NoError(t, err)

	msg, err := Parse(token)
	require.NoError(t, err)
	msg.Ciphertext[0] ^= 0xFF
	_, err = Decrypt(msg, key, nil)
	require.Error(t, err)
	var jerr *Error
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, KindInvalidJwe, jerr.Kind)
}

func TestA128KWKeyWrapEncryptDecrypt(t *testing.T) {
	kek := octKeyBytes(t, make([]byte, 16))
	token, err := Encrypt("A128KW", "A128GCM", kek, []byte("secret"), nil)
	require.NoError(t, err)

	msg, err := Parse(token)
	require.NoError(t, err)
	plaintext, err := Decrypt(msg, kek, nil)
	require.NoError(t, err)
	require.Equal(t, "secret", string(plaintext))
}

func TestRSAOAEPKeyWrapEncryptDecrypt(t *testing.T) {
	rsaKey, err := jwk.Generate(jwk.KtyRSA, jwk.GenerateOptions{Bits: 2048})
	require.NoError(t, err)

	token, err := Encrypt("RSA-OAEP-256", "A256GCM", rsaKey, []byte("top secret"), []byte("aad"))
	require.NoError(t, err)

	msg, err := Parse(token)
	require.NoError(t, err)
	plaintext, err := Decrypt(msg, rsaKey, []byte("aad"))
	require.NoError(t, err)
	require.Equal(t, "top secret", string(plaintext))
}

func TestECDHESKeyAgreementEncryptDecrypt(t *testing.T) {
	recipient, err := jwk.Generate(jwk.KtyEC, jwk.GenerateOptions{Crv: jwk.CrvP256})
	require.NoError(t, err)

	token, err := Encrypt("ECDH-ES", "A128GCM", recipient, []byte("ecdh payload"), nil)
	require.NoError(t, err)

	msg, err := Parse(token)
	require.NoError(t, err)
	require.NotNil(t, msg.Header.Epk)
	plaintext, err := Decrypt(msg, recipient, nil)
	require.NoError(t, err)
	require.Equal(t, "ecdh payload", string(plaintext))
}

func TestECDHESWithAESKWEncryptDecrypt(t *testing.T) {
	recipient, err := jwk.Generate(jwk.KtyOKP, jwk.GenerateOptions{Crv: jwk.CrvX25519})
	require.NoError(t, err)

	token, err := Encrypt("ECDH-ES+A128KW", "A128CBC-HS256", recipient, []byte("x25519 payload"), nil)
	require.NoError(t, err)

	msg, err := Parse(token)
	require.NoError(t, err)
	plaintext, err := Decrypt(msg, recipient, nil)
	require.NoError(t, err)
	require.Equal(t, "x25519 payload", string(plaintext))
}

func TestConcatKDFDeterministic(t *testing.T) {
	z := make([]byte, 32)
	for i := range z {
		z[i] = byte(i)
	}
	a := concatKDF(z, 256, []byte("A256GCM"), nil, nil)
	b := concatKDF(z, 256, []byte("A256GCM"), nil, nil)
	require.Equal(t, a, b)
	require.Len(t, a, 32)

	c := concatKDF(z, 256, []byte("A128GCM"), nil, nil)
	require.NotEqual(t, a, c)
}
