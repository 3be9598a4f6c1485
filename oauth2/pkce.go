package oauth2

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// PKCEVerifier implements one code-challenge-method backend (RFC 7636
// §4.2): producing the expected `code_challenge` from a `code_verifier`
// and comparing it in constant time against the value recorded at the
// authorization endpoint.
type PKCEVerifier func(codeChallenge, codeVerifier string) bool

// pkceRegistry is the C13-style name→backend lookup table for PKCE
// methods; §4.9.1 step 4 requires at least {plain, S256}.
var pkceRegistry = map[string]PKCEVerifier{
	"plain": func(challenge, verifier string) bool {
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(verifier)) == 1
	},
	"S256": func(challenge, verifier string) bool {
		sum := sha256.Sum256([]byte(verifier))
		computed := base64.RawURLEncoding.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(computed)) == 1
	},
}

// LookupPKCEMethod returns the verifier registered for method.
func LookupPKCEMethod(method string) (PKCEVerifier, bool) {
	v, ok := pkceRegistry[method]
	return v, ok
}
