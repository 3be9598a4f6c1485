package asn1

import "math/big"

// Node is a tagged, value-typed ASN.1 element: a universal type plus the
// class/method/tag-number options that place it on the wire, and its
// decoded value. At most one of Explicit/Implicit may be set; a
// non-Universal class without a tag number is invalid, and a Universal
// class must not carry a tag number at all.
type Node struct {
	Type     TypeID
	Class    Class
	Method   Method
	Explicit *int
	Implicit *int
	Value    interface{}

	// Children holds the decoded/encoded sub-nodes of a Sequence; unused
	// by every other type.
	Children []Node
}

// Validate checks the structural invariants on a Node's tagging before it
// is encoded or after it is decoded.
func (n Node) Validate() error {
	if n.Explicit != nil && n.Implicit != nil {
		return newErr(KindInvalidValue, "node carries both explicit and implicit tag numbers")
	}
	tagNum := n.Explicit
	if tagNum == nil {
		tagNum = n.Implicit
	}
	if n.Class != ClassUniversal {
		if tagNum == nil {
			return newErr(KindTaggedWithoutMetadata, "class %#x requires an explicit or implicit tag number", n.Class)
		}
		if *tagNum < 0 || *tagNum > 30 {
			return newErr(KindInvalidValue, "tag number %d out of range [0,30]", *tagNum)
		}
	} else if tagNum != nil {
		return newErr(KindInvalidValue, "universal class node must not carry an explicit/implicit tag number")
	}
	return nil
}

// innerTag computes the tag octet of the TLV that directly carries the
// node's content: class | method | (implicit tag number, if set, else the
// type's own universal tag). When Explicit is set, the inner TLV is always
// class-independent Universal, per §4.2.
func (n Node) innerTag() byte {
	if n.Explicit != nil {
		return byte(ClassUniversal) | byte(n.Method) | n.Type.wireTag()
	}
	if n.Implicit != nil {
		return byte(n.Class) | byte(n.Method) | byte(*n.Implicit)
	}
	return byte(n.Class) | byte(n.Method) | n.Type.wireTag()
}

// encodeNode assembles the full TLV for n: tag octet(s), BER length, and
// content. When n.Explicit is set, the inner TLV (tagged per innerTag) is
// wrapped in an outer constructed TLV tagged class|Constructed|explicit.
func encodeNode(n Node) ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	content, err := encodeContent(n)
	if err != nil {
		return nil, err
	}
	inner := append([]byte{n.innerTag()}, EncodeLength(len(content), false)...)
	inner = append(inner, content...)

	if n.Explicit == nil {
		return inner, nil
	}
	outerTag := byte(n.Class) | byte(Constructed) | byte(*n.Explicit)
	outer := append([]byte{outerTag}, EncodeLength(len(inner), false)...)
	outer = append(outer, inner...)
	return outer, nil
}

func encodeContent(n Node) ([]byte, error) {
	switch n.Type {
	case TypeBoolean:
		v, ok := n.Value.(bool)
		if !ok {
			return nil, newErr(KindInvalidValue, "Boolean value must be bool, got %T", n.Value)
		}
		if v {
			return []byte{0xFF}, nil
		}
		return []byte{0x00}, nil

	case TypeInteger:
		return encodeInteger(n.Value)

	case TypeBitString:
		bs, ok := n.Value.(BitString)
		if !ok {
			return nil, newErr(KindInvalidValue, "BitString value must be BitString, got %T", n.Value)
		}
		return append([]byte{bs.UnusedBits}, bs.Bytes...), nil

	case TypeOctetString, TypeBytes, TypeUTF8String, TypePrintableString, TypeIA5String:
		b, ok := n.Value.([]byte)
		if !ok {
			if s, ok := n.Value.(string); ok {
				return []byte(s), nil
			}
			return nil, newErr(KindInvalidValue, "OctetString value must be []byte, got %T", n.Value)
		}
		return b, nil

	case TypeNull:
		return nil, nil

	case TypeObjectIdentifier:
		oid, ok := n.Value.(ObjectIdentifier)
		if !ok {
			return nil, newErr(KindInvalidValue, "ObjectIdentifier value must be ObjectIdentifier, got %T", n.Value)
		}
		return encodeOID(oid)

	case TypeSequence:
		if n.Method != Constructed {
			return nil, newErr(KindInvalidValue, "Sequence must be Constructed")
		}
		var out []byte
		for _, child := range n.Children {
			b, err := encodeNode(child)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil

	default:
		return nil, newErr(KindInvalidValue, "unsupported type %d for encoding", n.Type)
	}
}

// decodeContent interprets content bytes (with tag/length already stripped)
// according to t, returning the Go value a Node.Value field would carry.
func decodeContent(t TypeID, content []byte) (interface{}, error) {
	switch t {
	case TypeBoolean:
		if len(content) != 1 {
			return nil, newErr(KindInvalidValue, "Boolean content must be exactly one byte")
		}
		return content[0] != 0x00, nil

	case TypeInteger:
		return decodeInteger(content), nil

	case TypeBitString:
		if len(content) == 0 {
			return BitString{}, nil
		}
		return BitString{UnusedBits: content[0], Bytes: append([]byte(nil), content[1:]...)}, nil

	case TypeOctetString, TypeBytes, TypeUTF8String, TypePrintableString, TypeIA5String:
		return append([]byte(nil), content...), nil

	case TypeNull:
		if len(content) != 0 {
			return nil, newErr(KindInvalidValue, "Null content must be empty")
		}
		return nil, nil

	case TypeObjectIdentifier:
		return decodeOID(content)

	default:
		return nil, newErr(KindInvalidValue, "unsupported type %d for decoding", t)
	}
}

// encodeInteger produces the minimal two's-complement encoding of an
// integer value, accepting int, int64, *big.Int, or []byte (already
// two's-complement, re-minimized).
func encodeInteger(value interface{}) ([]byte, error) {
	var bi *big.Int
	switch v := value.(type) {
	case *big.Int:
		bi = v
	case int:
		bi = big.NewInt(int64(v))
	case int64:
		bi = big.NewInt(v)
	case []byte:
		return minimalTwosComplement(v), nil
	default:
		return nil, newErr(KindInvalidValue, "Integer value must be *big.Int, int, int64 or []byte, got %T", value)
	}
	return bigIntToTwosComplement(bi), nil
}

func bigIntToTwosComplement(bi *big.Int) []byte {
	if bi.Sign() == 0 {
		return []byte{0x00}
	}
	if bi.Sign() > 0 {
		b := bi.Bytes()
		if len(b) == 0 || b[0]&0x80 != 0 {
			b = append([]byte{0x00}, b...)
		}
		return b
	}
	// Negative: two's complement over the minimal number of bytes such
	// that the MSB is set.
	nBits := bi.BitLen()
	nBytes := nBits/8 + 1
	twos := new(big.Int).Add(bi, new(big.Int).Lsh(big.NewInt(1), uint(nBytes*8)))
	b := twos.Bytes()
	for len(b) < nBytes {
		b = append([]byte{0x00}, b...)
	}
	return minimalTwosComplement(b)
}

// minimalTwosComplement strips redundant leading 0x00 (positive) or 0xFF
// (negative) bytes while keeping the value's sign intact.
func minimalTwosComplement(b []byte) []byte {
	if len(b) == 0 {
		return []byte{0x00}
	}
	for len(b) > 1 {
		if b[0] == 0x00 && b[1]&0x80 == 0 {
			b = b[1:]
			continue
		}
		if b[0] == 0xFF && b[1]&0x80 != 0 {
			b = b[1:]
			continue
		}
		break
	}
	return b
}

func decodeInteger(content []byte) *big.Int {
	if len(content) == 0 {
		return big.NewInt(0)
	}
	bi := new(big.Int)
	if content[0]&0x80 != 0 {
		// Negative: value = content - 2^(8*len(content))
		tmp := new(big.Int).SetBytes(content)
		mod := new(big.Int).Lsh(big.NewInt(1), uint(8*len(content)))
		bi.Sub(tmp, mod)
	} else {
		bi.SetBytes(content)
	}
	return bi
}

func encodeOID(oid ObjectIdentifier) ([]byte, error) {
	if len(oid) < 2 {
		return nil, newErr(KindInvalidValue, "ObjectIdentifier needs at least two arcs")
	}
	if oid[0] < 0 || oid[0] > 2 {
		return nil, newErr(KindInvalidValue, "first arc must be 0, 1, or 2")
	}
	if oid[0] < 2 && (oid[1] < 0 || oid[1] >= 40) {
		return nil, newErr(KindInvalidValue, "second arc must be < 40 when first arc is 0 or 1")
	}
	out := encodeBase128(40*oid[0] + oid[1])
	for _, arc := range oid[2:] {
		out = append(out, encodeBase128(arc)...)
	}
	return out, nil
}

func encodeBase128(v int) []byte {
	if v == 0 {
		return []byte{0x00}
	}
	var groups []byte
	for v > 0 {
		groups = append([]byte{byte(v & 0x7F)}, groups...)
		v >>= 7
	}
	for i := 0; i < len(groups)-1; i++ {
		groups[i] |= 0x80
	}
	return groups
}

func decodeOID(content []byte) (ObjectIdentifier, error) {
	if len(content) == 0 {
		return nil, newErr(KindInvalidValue, "empty ObjectIdentifier content")
	}
	var subids []int
	i := 0
	for i < len(content) {
		v := 0
		started := i
		for {
			if i >= len(content) {
				return nil, newErr(KindInvalidValue, "truncated ObjectIdentifier sub-identifier starting at byte %d", started)
			}
			b := content[i]
			v = v<<7 | int(b&0x7F)
			i++
			if b&0x80 == 0 {
				break
			}
		}
		subids = append(subids, v)
	}

	// The first sub-identifier packs the first two arcs as 40*a + b. Arc 2
	// takes every value from 80 upward (X.690), so clamp a to 2 and derive
	// b from the clamped a.
	x := subids[0]
	first := x / 40
	if first > 2 {
		first = 2
	}
	oid := ObjectIdentifier{first, x - 40*first}
	return append(oid, subids[1:]...), nil
}
