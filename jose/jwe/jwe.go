// Package jwe implements JSON Web Encryption (RFC 7516) content encryption
// (AES-CBC-HMAC, AES-GCM) and key management algorithms (dir, RSA1_5,
// RSA-OAEP, AES-KW, AES-GCM-KW, ECDH-ES and its AES-KW variants), including
// the Concat KDF (NIST SP 800-56A §5.8.1) ECDH-ES depends on.
package jwe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/anttk/idcore/jose/jwk"
)

// Kind names the JOSE error taxonomy's JWE failure categories.
type Kind int

const (
	KindInvalidKey Kind = iota
	KindInvalidJwe
	KindUnsupportedAlgorithm
)

func (k Kind) String() string {
	switch k {
	case KindInvalidKey:
		return "InvalidKey"
	case KindInvalidJwe:
		return "InvalidJweException"
	case KindUnsupportedAlgorithm:
		return "UnsupportedAlgorithm"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func errf(kind Kind, format string, a ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

var b64 = base64.RawURLEncoding

// Header is the JOSE header a compact-serialized JWE carries: the "alg"
// (key management) and "enc" (content encryption) algorithm identifiers
// plus the per-algorithm additions §4.8 enumerates.
type Header struct {
	Alg string `json:"alg"`
	Enc string `json:"enc"`
	Kid string `json:"kid,omitempty"`

	// ECDH-ES
	Epk *jwk.Params `json:"epk,omitempty"`
	Apu string      `json:"apu,omitempty"`
	Apv string      `json:"apv,omitempty"`

	// AES-GCM-KW
	IV  string `json:"iv,omitempty"`
	Tag string `json:"tag,omitempty"`
}

// Message is a parsed, not-yet-decrypted JWE in its five logical parts.
type Message struct {
	Header       Header
	HeaderJSON   []byte
	EncryptedKey []byte
	IV           []byte
	Ciphertext   []byte
	Tag          []byte
}

// Encrypt produces the five-part compact serialization of plaintext,
// encrypted under enc with its content-encryption key wrapped for key by
// alg.
func Encrypt(alg, enc string, key jwk.Key, plaintext []byte, aad []byte) (string, error) {
	cipher, err := contentCipherFor(enc)
	if err != nil {
		return "", err
	}

	wrapped, header, err := wrapKey(alg, enc, key, cipher.keySize)
	if err != nil {
		return "", err
	}
	header.Alg, header.Enc = alg, enc

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", errf(KindInvalidJwe, "marshaling header: %v", err)
	}
	aadFull := aadFor(headerJSON, aad)

	iv, err := randBytes(cipher.ivSize)
	if err != nil {
		return "", err
	}
	ciphertext, tag, err := cipher.encrypt(plaintext, aadFull, iv, wrapped.cek)
	if err != nil {
		return "", err
	}

	return b64.EncodeToString(headerJSON) + "." +
		b64.EncodeToString(wrapped.encryptedKey) + "." +
		b64.EncodeToString(iv) + "." +
		b64.EncodeToString(ciphertext) + "." +
		b64.EncodeToString(tag), nil
}

// Parse splits a compact-serialized JWE into its five parts without
// decrypting.
func Parse(token string) (*Message, error) {
	parts, err := splitCompact(token)
	if err != nil {
		return nil, err
	}
	headerJSON, err := b64.DecodeString(parts[0])
	if err != nil {
		return nil, errf(KindInvalidJwe, "header is not valid base64url: %v", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, errf(KindInvalidJwe, "header is not valid JSON: %v", err)
	}
	encryptedKey, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, errf(KindInvalidJwe, "encrypted key is not valid base64url: %v", err)
	}
	iv, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, errf(KindInvalidJwe, "IV is not valid base64url: %v", err)
	}
	ciphertext, err := b64.DecodeString(parts[3])
	if err != nil {
		return nil, errf(KindInvalidJwe, "ciphertext is not valid base64url: %v", err)
	}
	tag, err := b64.DecodeString(parts[4])
	if err != nil {
		return nil, errf(KindInvalidJwe, "tag is not valid base64url: %v", err)
	}
	return &Message{Header: header, HeaderJSON: headerJSON, EncryptedKey: encryptedKey, IV: iv, Ciphertext: ciphertext, Tag: tag}, nil
}

// Decrypt unwraps msg's content-encryption key under key and decrypts its
// ciphertext, verifying aad alongside any additional authenticated data the
// sender supplied to Encrypt.
func Decrypt(msg *Message, key jwk.Key, aad []byte) ([]byte, error) {
	cipher, err := contentCipherFor(msg.Header.Enc)
	if err != nil {
		return nil, err
	}
	cek, err := unwrapKey(msg.Header, key, cipher.keySize, msg.EncryptedKey)
	if err != nil {
		return nil, err
	}
	aadFull := aadFor(msg.HeaderJSON, aad)
	plaintext, err := cipher.decrypt(msg.Ciphertext, aadFull, msg.IV, msg.Tag, cek)
	if err != nil {
		return nil, errf(KindInvalidJwe, "content decryption failed: %v", err)
	}
	return plaintext, nil
}

func splitCompact(token string) ([]string, error) {
	var parts []string
	start := 0
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			parts = append(parts, token[start:i])
			start = i + 1
		}
	}
	parts = append(parts, token[start:])
	if len(parts) != 5 {
		return nil, errf(KindInvalidJwe, "compact JWE must have 5 segments, got %d", len(parts))
	}
	return parts, nil
}

// aadFor builds the AAD the content cipher authenticates: the
// ASCII-encoded, base64url header, optionally extended with caller-supplied
// AAD joined by '.', per RFC 7516 §5.1 step 14.
func aadFor(headerJSON []byte, extra []byte) []byte {
	encoded := b64.EncodeToString(headerJSON)
	if len(extra) == 0 {
		return []byte(encoded)
	}
	return []byte(encoded + "." + b64.EncodeToString(extra))
}
