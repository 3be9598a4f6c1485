// Package jws implements JSON Web Signature (RFC 7515) compact
// serialization and the HMAC, RSASSA-PKCS1-v1_5, RSASSA-PSS, ECDSA, and
// EdDSA signing algorithm backends (RFC 7518 §3, RFC 8037).
package jws

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anttk/idcore/jose/jwk"
)

// Error is the typed error this package returns for signature and key
// failures; the core's JOSE error taxonomy names these InvalidSignature
// and InvalidKey.
type Error struct {
	Kind    Kind
	Message string
}

type Kind int

const (
	KindInvalidSignature Kind = iota
	KindInvalidKey
	KindUnsupportedAlgorithm
	KindMalformedToken
)

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (k Kind) String() string {
	switch k {
	case KindInvalidSignature:
		return "InvalidSignature"
	case KindInvalidKey:
		return "InvalidKey"
	case KindUnsupportedAlgorithm:
		return "UnsupportedAlgorithm"
	case KindMalformedToken:
		return "MalformedToken"
	default:
		return "Unknown"
	}
}

func errf(kind Kind, format string, a ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

var b64 = base64.RawURLEncoding

// Header is the JOSE header carried in a JWS, restricted to the members
// this module's algorithm set and key-identification model require.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid,omitempty"`
	Typ string `json:"typ,omitempty"`
	Cty string `json:"cty,omitempty"`
}

// Signer signs a payload under one JWS algorithm.
type Signer interface {
	Alg() string
	Sign(signingInput []byte) (signature []byte, err error)
}

// Verifier verifies a payload's signature under one JWS algorithm.
type Verifier interface {
	Alg() string
	Verify(signingInput, signature []byte) error
}

// NewSigner dispatches on alg and the key's kty to produce a Signer,
// mirroring how jwk.Load dispatches on kty.
func NewSigner(alg string, key jwk.Key) (Signer, error) {
	return newBackend(alg, key)
}

func NewVerifier(alg string, key jwk.Key) (Verifier, error) {
	return newBackend(alg, key)
}

type backend interface {
	Signer
	Verifier
}

func newBackend(alg string, key jwk.Key) (backend, error) {
	switch {
	case strings.HasPrefix(alg, "HS"):
		return newHMACBackend(alg, key)
	case strings.HasPrefix(alg, "RS"):
		return newRSABackend(alg, key, false)
	case strings.HasPrefix(alg, "PS"):
		return newRSABackend(alg, key, true)
	case strings.HasPrefix(alg, "ES"):
		return newECDSABackend(alg, key)
	case alg == "EdDSA":
		return newEdDSABackend(key)
	default:
		return nil, errf(KindUnsupportedAlgorithm, "unsupported JWS alg %q", alg)
	}
}

// Sign produces the three-part compact serialization
// BASE64URL(header).BASE64URL(payload).BASE64URL(signature).
func Sign(signer Signer, header Header, payload []byte) (string, error) {
	header.Alg = signer.Alg()
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", errf(KindMalformedToken, "marshaling header: %v", err)
	}
	signingInput := b64.EncodeToString(headerJSON) + "." + b64.EncodeToString(payload)
	sig, err := signer.Sign([]byte(signingInput))
	if err != nil {
		return "", err
	}
	return signingInput + "." + b64.EncodeToString(sig), nil
}

// Verify splits a compact-serialized token, verifies its signature, and
// returns the decoded header and payload.
func Verify(token string, verifier Verifier) (Header, []byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Header{}, nil, errf(KindMalformedToken, "compact JWS must have 3 segments, got %d", len(parts))
	}
	headerJSON, err := b64.DecodeString(parts[0])
	if err != nil {
		return Header{}, nil, errf(KindMalformedToken, "header is not valid base64url: %v", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return Header{}, nil, errf(KindMalformedToken, "header is not valid JSON: %v", err)
	}
	if header.Alg != verifier.Alg() {
		return Header{}, nil, errf(KindInvalidSignature, "header alg %q does not match verifier alg %q", header.Alg, verifier.Alg())
	}
	payload, err := b64.DecodeString(parts[1])
	if err != nil {
		return Header{}, nil, errf(KindMalformedToken, "payload is not valid base64url: %v", err)
	}
	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return Header{}, nil, errf(KindMalformedToken, "signature is not valid base64url: %v", err)
	}
	signingInput := parts[0] + "." + parts[1]
	if err := verifier.Verify([]byte(signingInput), sig); err != nil {
		return Header{}, nil, err
	}
	return header, payload, nil
}
