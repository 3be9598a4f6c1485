package jwk

import (
	"bytes"
	"crypto/sha256"
	"fmt"
)

// thumbprintSegments lists, in the lexicographic order RFC 7638 §3.2
// requires, the member names that participate in each kty's thumbprint.
var thumbprintSegments = map[string][]string{
	KtyEC:  {"crv", "kty", "x", "y"},
	KtyOct: {"k", "kty"},
	KtyOKP: {"crv", "kty", "x"},
	KtyRSA: {"e", "kty", "n"},
}

// Thumbprint computes the RFC 7638 JWK thumbprint: the SHA-256 digest of
// the key's required members serialized as a JSON object with lexically
// sorted member names and no insignificant whitespace.
func Thumbprint(k Key) (string, error) {
	segments, ok := thumbprintSegments[k.Kty()]
	if !ok {
		return "", errf("no thumbprint segment list registered for kty %q", k.Kty())
	}
	params := k.ThumbprintParams()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range segments {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%q", name, params[name])
	}
	buf.WriteByte('}')

	sum := sha256.Sum256(buf.Bytes())
	return b64Encode(sum[:]), nil
}
