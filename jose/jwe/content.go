package jwe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"hash"

	icrypto "github.com/anttk/idcore/pkg/crypto"
)

// contentCipher is a content-encryption backend for one "enc" identifier:
// either an AES_k_CBC_HMAC_SHA_2k construction (§4.7) or an AES-GCM
// construction.
type contentCipher struct {
	enc     string
	keySize int // CEK size in bytes
	ivSize  int
	encrypt func(plaintext, aad, iv, key []byte) (ciphertext, tag []byte, err error)
	decrypt func(ciphertext, aad, iv, tag, key []byte) (plaintext []byte, err error)
}

func contentCipherFor(enc string) (*contentCipher, error) {
	switch enc {
	case "A128CBC-HS256":
		return cbcHmacCipher(enc, 16, sha256.New), nil
	case "A192CBC-HS384":
		return cbcHmacCipher(enc, 24, sha512.New384), nil
	case "A256CBC-HS512":
		return cbcHmacCipher(enc, 32, sha512.New), nil
	case "A128GCM":
		return gcmCipher(enc, 16), nil
	case "A192GCM":
		return gcmCipher(enc, 24), nil
	case "A256GCM":
		return gcmCipher(enc, 32), nil
	default:
		return nil, errf(KindUnsupportedAlgorithm, "unsupported content encryption alg %q", enc)
	}
}

func randBytes(n int) ([]byte, error) {
	b, err := icrypto.RandBytes(n)
	if err != nil {
		return nil, errf(KindInvalidJwe, "generating random bytes: %v", err)
	}
	return b, nil
}

// cbcHmacCipher implements AES_k_CBC_HMAC_SHA_2k: the CEK is 2k bits, split
// into a MAC key (first half) and an encryption key (second half); the
// authentication tag is the first k bits of an HMAC over AAD, IV,
// ciphertext, and the 64-bit big-endian bit-length of AAD.
func cbcHmacCipher(enc string, halfSize int, hasher func() hash.Hash) *contentCipher {
	return &contentCipher{
		enc:     enc,
		keySize: 2 * halfSize,
		ivSize:  16,
		encrypt: func(plaintext, aad, iv, key []byte) ([]byte, []byte, error) {
			macKey, encKey := key[:halfSize], key[halfSize:]
			block, err := aes.NewCipher(encKey)
			if err != nil {
				return nil, nil, errf(KindInvalidKey, "building AES cipher: %v", err)
			}
			padded := pkcs7Pad(plaintext, aes.BlockSize)
			ciphertext := make([]byte, len(padded))
			cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

			tag := cbcHmacTag(hasher, macKey, halfSize, aad, iv, ciphertext)
			return ciphertext, tag, nil
		},
		decrypt: func(ciphertext, aad, iv, tag, key []byte) ([]byte, error) {
			macKey, encKey := key[:halfSize], key[halfSize:]
			expectedTag := cbcHmacTag(hasher, macKey, halfSize, aad, iv, ciphertext)
			if subtle.ConstantTimeCompare(expectedTag, tag) != 1 {
				return nil, errf(KindInvalidJwe, "authentication tag mismatch")
			}
			block, err := aes.NewCipher(encKey)
			if err != nil {
				return nil, errf(KindInvalidKey, "building AES cipher: %v", err)
			}
			if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
				return nil, errf(KindInvalidJwe, "ciphertext is not a multiple of the block size")
			}
			padded := make([]byte, len(ciphertext))
			cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
			return pkcs7Unpad(padded)
		},
	}
}

func cbcHmacTag(hasher func() hash.Hash, macKey []byte, tagSize int, aad, iv, ciphertext []byte) []byte {
	mac := hmac.New(hasher, macKey)
	mac.Write(aad)
	mac.Write(iv)
	mac.Write(ciphertext)
	var aadLen [8]byte
	binary.BigEndian.PutUint64(aadLen[:], uint64(len(aad))*8)
	mac.Write(aadLen[:])
	return mac.Sum(nil)[:tagSize]
}

func gcmCipher(enc string, keySize int) *contentCipher {
	return &contentCipher{
		enc:     enc,
		keySize: keySize,
		ivSize:  12,
		encrypt: func(plaintext, aad, iv, key []byte) ([]byte, []byte, error) {
			gcm, err := newGCM(key)
			if err != nil {
				return nil, nil, err
			}
			sealed := gcm.Seal(nil, iv, plaintext, aad)
			ciphertext, tag := sealed[:len(sealed)-gcm.Overhead()], sealed[len(sealed)-gcm.Overhead():]
			return ciphertext, tag, nil
		},
		decrypt: func(ciphertext, aad, iv, tag, key []byte) ([]byte, error) {
			gcm, err := newGCM(key)
			if err != nil {
				return nil, err
			}
			plaintext, err := gcm.Open(nil, iv, append(append([]byte{}, ciphertext...), tag...), aad)
			if err != nil {
				return nil, errf(KindInvalidJwe, "GCM authentication failed: %v", err)
			}
			return plaintext, nil
		},
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errf(KindInvalidKey, "building AES cipher: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errf(KindInvalidKey, "building GCM mode: %v", err)
	}
	return gcm, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - (len(data) % blockSize)
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errf(KindInvalidJwe, "padded plaintext is empty")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, errf(KindInvalidJwe, "invalid PKCS#7 padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errf(KindInvalidJwe, "invalid PKCS#7 padding")
		}
	}
	return data[:len(data)-padLen], nil
}
