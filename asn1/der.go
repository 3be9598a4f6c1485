package asn1

// DERDecoder composes a BER Decoder and imposes DER's canonicalization
// rules on top of it: BIT STRING and OCTET STRING must be primitive,
// INTEGER must use the minimal two's-complement encoding, and BOOLEAN's
// value octet must be exactly 0x00 or 0xFF. Modeled as composition (holds a
// *Decoder) rather than inheritance, per §9's design note.
type DERDecoder struct {
	*Decoder
}

// NewDERDecoder wraps data in a fresh DER Decoder.
func NewDERDecoder(data []byte) *DERDecoder {
	return &DERDecoder{Decoder: NewDecoder(data)}
}

// Slice behaves like Decoder.Slice but additionally rejects BER encodings
// that are not DER-canonical for the decoded type.
func (d *DERDecoder) Slice(expectedType TypeID, opts SliceOptions) (TypeID, []byte, error) {
	if (expectedType == TypeBitString || expectedType == TypeOctetString) && len(d.data) > 0 && Method(d.data[0]&0x20) == Constructed {
		return 0, nil, newErr(KindUnsupportedConstructed, "DER requires primitive encoding for type %d", expectedType)
	}

	actualType, content, err := d.Decoder.Slice(expectedType, opts)
	if err != nil {
		return 0, nil, err
	}

	switch expectedType {
	case TypeBoolean:
		if len(content) == 1 && content[0] != 0x00 && content[0] != 0xFF {
			return 0, nil, newErr(KindInvalidValue, "DER Boolean value octet must be 0x00 or 0xFF, got %#x", content[0])
		}
	case TypeInteger:
		if err := validateMinimalInteger(content); err != nil {
			return 0, nil, err
		}
	}

	return actualType, content, nil
}

func validateMinimalInteger(content []byte) error {
	if len(content) == 0 {
		return newErr(KindInvalidValue, "DER Integer content must not be empty")
	}
	if len(content) == 1 {
		return nil
	}
	if content[0] == 0x00 && content[1]&0x80 == 0 {
		return newErr(KindInvalidValue, "DER Integer has unnecessary leading 0x00 padding")
	}
	if content[0] == 0xFF && content[1]&0x80 != 0 {
		return newErr(KindInvalidValue, "DER Integer has unnecessary leading 0xFF padding")
	}
	return nil
}

// DecodeSequenceMembers overrides Decoder's method so that Slice calls made
// through the returned cursor still enforce DER rules (the embedded
// *Decoder would otherwise call its own, non-DER Slice method).
func (d *DERDecoder) DecodeSequenceMembers() (*DERDecoder, error) {
	_, content, err := d.Slice(TypeSequence, SliceOptions{Class: ClassUniversal, Method: Constructed})
	if err != nil {
		return nil, err
	}
	return NewDERDecoder(content), nil
}
