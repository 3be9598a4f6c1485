package asn1

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// pemPattern matches a single PEM block: a BEGIN/END pair sharing a label,
// tolerating both CRLF and LF line endings between them.
var pemPattern = regexp.MustCompile(`(?s)-----BEGIN ([A-Z0-9 ]+)-----\r?\n(.*?)-----END ([A-Z0-9 ]+)-----`)

// PEMBlock is a decoded PEM block: the label between BEGIN/END and the
// decoded binary payload.
type PEMBlock struct {
	Label string
	Bytes []byte
}

// DecodePEM extracts the first PEM block found in data. It returns an
// error if no block is found, the BEGIN/END labels disagree, or the
// base64 payload fails to decode.
func DecodePEM(data []byte) (*PEMBlock, error) {
	m := pemPattern.FindSubmatch(data)
	if m == nil {
		return nil, newErr(KindInvalidValue, "no PEM block found")
	}
	beginLabel, body, endLabel := string(m[1]), string(m[2]), string(m[3])
	if beginLabel != endLabel {
		return nil, newErr(KindInvalidValue, "PEM BEGIN label %q does not match END label %q", beginLabel, endLabel)
	}
	b64 := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, body)
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, newErr(KindInvalidValue, "malformed PEM base64 payload: %v", err)
	}
	return &PEMBlock{Label: beginLabel, Bytes: raw}, nil
}

// EncodePEM renders block back into BEGIN/END-framed PEM text, wrapping the
// base64 payload at 64 characters per line as conventional encoders do.
func EncodePEM(block *PEMBlock) []byte {
	var sb strings.Builder
	sb.WriteString("-----BEGIN ")
	sb.WriteString(block.Label)
	sb.WriteString("-----\n")

	encoded := base64.StdEncoding.EncodeToString(block.Bytes)
	for i := 0; i < len(encoded); i += 64 {
		end := i + 64
		if end > len(encoded) {
			end = len(encoded)
		}
		sb.WriteString(encoded[i:end])
		sb.WriteString("\n")
	}

	sb.WriteString("-----END ")
	sb.WriteString(block.Label)
	sb.WriteString("-----\n")
	return []byte(sb.String())
}
