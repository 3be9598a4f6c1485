package jwk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOctRejectsMissingK(t *testing.T) {
	_, err := Load(Params{Kty: KtyOct})
	require.Error(t, err)
}

func TestGenerateAndExportOct(t *testing.T) {
	k, err := Generate(KtyOct, GenerateOptions{Bits: 256})
	require.NoError(t, err)
	require.Equal(t, KtyOct, k.Kty())

	pub, err := k.Public()
	require.Nil(t, pub)
	require.Error(t, err)

	p := k.Export(false)
	require.NotEmpty(t, p.K)
}

func TestGenerateRSARoundTrip(t *testing.T) {
	k, err := Generate(KtyRSA, GenerateOptions{Bits: 2048})
	require.NoError(t, err)

	p := k.Export(false)
	loaded, err := Load(p)
	require.NoError(t, err)
	require.True(t, loaded.IsPrivate())

	pub, err := k.Public()
	require.NoError(t, err)
	require.False(t, pub.IsPrivate())
}

func TestGenerateECRejectsInvalidCurve(t *testing.T) {
	_, err := Generate(KtyEC, GenerateOptions{Crv: "P-999"})
	require.Error(t, err)
}

func TestGenerateEd25519(t *testing.T) {
	k, err := Generate(KtyOKP, GenerateOptions{Crv: CrvEd25519})
	require.NoError(t, err)
	require.True(t, k.IsPrivate())

	pub, err := k.Public()
	require.NoError(t, err)
	require.False(t, pub.IsPrivate())
}

func TestThumbprintIsDeterministic(t *testing.T) {
	k, err := Generate(KtyOct, GenerateOptions{Bits: 256})
	require.NoError(t, err)

	tp1, err := Thumbprint(k)
	require.NoError(t, err)
	tp2, err := Thumbprint(k)
	require.NoError(t, err)
	require.Equal(t, tp1, tp2)

	loaded, err := Load(k.Export(false))
	require.NoError(t, err)
	tp3, err := Thumbprint(loaded)
	require.NoError(t, err)
	require.Equal(t, tp1, tp3)
}

func TestASN1RoundTripRSAPublicKey(t *testing.T) {
	k, err := Generate(KtyRSA, GenerateOptions{Bits: 2048})
	require.NoError(t, err)

	der, err := ExportToASN1(k)
	require.NoError(t, err)
	require.NotEmpty(t, der)

	loaded, err := LoadFromASN1(der)
	require.NoError(t, err)
	require.Equal(t, KtyRSA, loaded.Kty())
	require.Equal(t, k.Export(true).N, loaded.Export(true).N)
}

func TestASN1RoundTripRSAPrivateKey(t *testing.T) {
	k, err := Generate(KtyRSA, GenerateOptions{Bits: 2048})
	require.NoError(t, err)

	der, err := ExportRSAPrivateKeyToASN1(k)
	require.NoError(t, err)
	require.NotEmpty(t, der)

	loaded, err := LoadRSAPrivateKeyFromASN1(der)
	require.NoError(t, err)
	require.True(t, loaded.IsPrivate())
	require.Equal(t, k.Export(false).D, loaded.Export(false).D)
	require.Equal(t, k.Export(false).N, loaded.Export(false).N)
}

func TestASN1RoundTripECPrivateKey(t *testing.T) {
	for _, crv := range []string{CrvP256, CrvP384, CrvP521} {
		k, err := Generate(KtyEC, GenerateOptions{Crv: crv})
		require.NoError(t, err)

		der, err := ExportECPrivateKeyToASN1(k)
		require.NoError(t, err)
		require.NotEmpty(t, der)

		loaded, err := LoadECPrivateKeyFromASN1(der, crv)
		require.NoError(t, err)
		require.True(t, loaded.IsPrivate())
		require.Equal(t, k.Export(false).D, loaded.Export(false).D)
		require.Equal(t, k.Export(false).X, loaded.Export(false).X)
		require.Equal(t, k.Export(false).Y, loaded.Export(false).Y)
	}
}

func TestPKCS8RoundTripRSA(t *testing.T) {
	k, err := Generate(KtyRSA, GenerateOptions{Bits: 2048})
	require.NoError(t, err)

	der, err := ExportPKCS8PrivateKey(k)
	require.NoError(t, err)
	require.NotEmpty(t, der)

	loaded, err := LoadPKCS8PrivateKey(der)
	require.NoError(t, err)
	require.Equal(t, KtyRSA, loaded.Kty())
	require.Equal(t, k.Export(false).D, loaded.Export(false).D)
}

func TestPKCS8RoundTripEC(t *testing.T) {
	k, err := Generate(KtyEC, GenerateOptions{Crv: CrvP384})
	require.NoError(t, err)

	der, err := ExportPKCS8PrivateKey(k)
	require.NoError(t, err)
	require.NotEmpty(t, der)

	loaded, err := LoadPKCS8PrivateKey(der)
	require.NoError(t, err)
	require.Equal(t, KtyEC, loaded.Kty())
	require.Equal(t, CrvP384, loaded.Export(false).Crv)
	require.Equal(t, k.Export(false).D, loaded.Export(false).D)
}

func TestPKCS8RejectsUnknownAlgorithm(t *testing.T) {
	// SEQUENCE { version INTEGER 0, algorithm SEQUENCE { OID 2.5.4 } } —
	// a structurally valid PrivateKeyInfo prefix naming an OID (the X.520
	// attribute-type arc) that is neither rsaEncryption nor id-ecPublicKey.
	der := []byte{0x30, 9, 0x02, 1, 0, 0x30, 4, 0x06, 2, 85, 4}
	_, err := LoadPKCS8PrivateKey(der)
	require.Error(t, err)
}
