package asn1

// SliceOptions carries the schema metadata needed to resolve the expected
// tag for a single Slice call: the element's class/method and, if any, its
// explicit or implicit tag number.
type SliceOptions struct {
	Class    Class
	Method   Method
	Explicit *int
	Implicit *int
}

// Decoder is a mutable cursor over a byte slice, consumed strictly
// left-to-right. A Decoder is owned by a single call stack and must not be
// shared across concurrent decode operations (§5).
type Decoder struct {
	data []byte
}

// NewDecoder wraps data in a fresh BER Decoder positioned at its start.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining reports how many bytes have not yet been consumed.
func (d *Decoder) Remaining() int {
	return len(d.data)
}

// Done reports whether the cursor has consumed all of data.
func (d *Decoder) Done() bool {
	return len(d.data) == 0
}

// Slice consumes exactly one TLV from the front of the cursor, resolving
// the expected tag per §4.4's three-branch algorithm, and returns the
// actual type decoded and its content octets (tag and length stripped).
// The cursor advances past the consumed TLV on success and is left
// unmodified on error.
func (d *Decoder) Slice(expectedType TypeID, opts SliceOptions) (actualType TypeID, content []byte, err error) {
	if len(d.data) == 0 {
		return 0, nil, newErr(KindMalformedLength, "no data remaining to decode a TLV from")
	}
	tagByte := d.data[0]
	class := Class(tagByte & 0xC0)
	method := Method(tagByte & 0x20)
	tagNum := tagByte & 0x1F

	var expectedTag byte
	recurseExplicit := false

	switch {
	case class != ClassUniversal && method == Constructed && opts.Explicit != nil:
		expectedTag = byte(opts.Class) | byte(Constructed) | byte(*opts.Explicit)
		recurseExplicit = true

	case class != ClassUniversal && method == Primitive && opts.Implicit != nil:
		expectedTag = byte(opts.Class) | byte(Primitive) | byte(*opts.Implicit)

	case class != ClassUniversal && opts.Implicit != nil:
		// Implicit tag on a constructed context/application/private value
		// (e.g. an implicitly-tagged SEQUENCE).
		expectedTag = byte(opts.Class) | byte(opts.Method) | byte(*opts.Implicit)

	case class != ClassUniversal:
		return 0, nil, newErr(KindTaggedWithoutMetadata, "tag %#x (class %#x) has no explicit/implicit metadata", tagByte, class)

	default:
		expectedTag = byte(opts.Method) | expectedType.wireTag()
	}

	if tagByte != expectedTag {
		return 0, nil, newErr(KindUnexpectedTag, "expected tag %#x, got %#x", expectedTag, tagByte)
	}

	length, lenConsumed, err := DecodeLength(d.data[1:])
	if err != nil {
		return 0, nil, err
	}
	start := 1 + lenConsumed
	if len(d.data) < start+length {
		return 0, nil, newErr(KindMalformedLength, "declared length %d exceeds %d remaining bytes", length, len(d.data)-start)
	}
	raw := d.data[start : start+length]

	if recurseExplicit {
		inner := NewDecoder(raw)
		innerOpts := SliceOptions{Class: ClassUniversal, Method: opts.Method}
		innerType, innerContent, err := inner.Slice(expectedType, innerOpts)
		if err != nil {
			return 0, nil, err
		}
		d.data = d.data[start+length:]
		return innerType, innerContent, nil
	}
	d.data = d.data[start+length:]

	_ = tagNum
	return expectedType, raw, nil
}

// DecodeSequenceMembers returns a Decoder over the content octets of a
// top-level SEQUENCE TLV consumed from d (class Universal, Constructed,
// TypeSequence) — the common entry point for a record whose Schema.Root is
// RootSequence.
func (d *Decoder) DecodeSequenceMembers() (*Decoder, error) {
	_, content, err := d.Slice(TypeSequence, SliceOptions{Class: ClassUniversal, Method: Constructed})
	if err != nil {
		return nil, err
	}
	return NewDecoder(content), nil
}
