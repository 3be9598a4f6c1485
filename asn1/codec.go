package asn1

import (
	"math/big"
	"reflect"
)

// cursor abstracts over Decoder and DERDecoder so the schema-walking code
// in this file needs writing only once; DER's extra validation is entirely
// contained in DERDecoder.Slice.
type cursor interface {
	Slice(expectedType TypeID, opts SliceOptions) (TypeID, []byte, error)
	sub(data []byte) cursor
}

type berCursor struct{ *Decoder }

func (c berCursor) sub(data []byte) cursor { return berCursor{NewDecoder(data)} }

type derCursor struct{ *DERDecoder }

func (c derCursor) sub(data []byte) cursor { return derCursor{NewDERDecoder(data)} }

// Decode reads a BER-encoded record matching schema out of data into dst, a
// pointer to a struct whose exported field names match schema's Elements.
func Decode(schema *Schema, data []byte, dst interface{}) error {
	return decodeSchema(schema, berCursor{NewDecoder(data)}, dst)
}

// DecodeDER behaves like Decode but additionally enforces DER
// canonicalization rules (§4.4) while consuming data.
func DecodeDER(schema *Schema, data []byte, dst interface{}) error {
	return decodeSchema(schema, derCursor{NewDERDecoder(data)}, dst)
}

func decodeSchema(schema *Schema, c cursor, dst interface{}) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return newErr(KindInvalidValue, "Decode destination must be a pointer to a struct")
	}
	body := c
	if schema.Root == RootSequence {
		_, content, err := c.Slice(TypeSequence, SliceOptions{Class: ClassUniversal, Method: Constructed})
		if err != nil {
			return err
		}
		body = c.sub(content)
	}
	return decodeElements(schema.Elements, body, rv.Elem())
}

func decodeElements(elements []Element, c cursor, structVal reflect.Value) error {
	for _, el := range elements {
		field := structVal.FieldByName(el.Name)
		if !field.IsValid() {
			return newErr(KindInvalidValue, "no struct field named %q", el.Name)
		}

		if el.Nested != nil {
			if el.Nested.Root == RootNested {
				nv := reflect.New(field.Type())
				if err := decodeElements(el.Nested.Elements, c, nv.Elem()); err != nil {
					return err
				}
				field.Set(nv.Elem())
				continue
			}
			opts := SliceOptions{Class: el.Class, Method: Constructed, Explicit: el.Explicit, Implicit: el.Implicit}
			_, content, err := c.Slice(TypeSequence, opts)
			if err != nil {
				return err
			}
			nv := reflect.New(field.Type())
			if err := decodeElements(el.Nested.Elements, c.sub(content), nv.Elem()); err != nil {
				return err
			}
			field.Set(nv.Elem())
			continue
		}

		opts := SliceOptions{Class: el.Class, Method: el.Method, Explicit: el.Explicit, Implicit: el.Implicit}
		_, content, err := c.Slice(el.Type, opts)
		if err != nil {
			return err
		}

		if el.Type == TypeBytes && el.ByteLength > 0 && len(content) != el.ByteLength {
			return newErr(KindInvalidValue, "field %q expects %d bytes, got %d", el.Name, el.ByteLength, len(content))
		}

		value, err := decodeContent(el.Type, content)
		if err != nil {
			return err
		}
		for _, t := range el.DecodeTransforms {
			value, err = t(value)
			if err != nil {
				return err
			}
		}
		if err := assign(field, value); err != nil {
			return err
		}
	}
	return nil
}

// assign sets field from value, accepting the small set of concrete Go
// types decodeContent/transforms may produce, converting *big.Int into the
// field's own integer type when the field is not itself *big.Int.
func assign(field reflect.Value, value interface{}) error {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}
	if bi, ok := value.(*big.Int); ok {
		switch field.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			field.SetInt(bi.Int64())
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			field.SetUint(bi.Uint64())
			return nil
		}
	}
	if rv.Type().ConvertibleTo(field.Type()) {
		field.Set(rv.Convert(field.Type()))
		return nil
	}
	return newErr(KindInvalidValue, "cannot assign %T into field of type %s", value, field.Type())
}

// EncodeValue produces the DER-canonical wire encoding of src (a struct, or
// pointer to one) against schema.
func EncodeValue(schema *Schema, src interface{}) ([]byte, error) {
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, newErr(KindInvalidValue, "Encode source must be a struct or pointer to one")
	}

	body, err := encodeElements(schema.Elements, rv)
	if err != nil {
		return nil, err
	}
	if schema.Root == RootNested {
		return body, nil
	}
	seq := append([]byte{byte(ClassUniversal) | byte(Constructed) | TypeSequence.wireTag()}, EncodeLength(len(body), false)...)
	return append(seq, body...), nil
}

func encodeElements(elements []Element, structVal reflect.Value) ([]byte, error) {
	var out []byte
	for _, el := range elements {
		field := structVal.FieldByName(el.Name)
		if !field.IsValid() {
			return nil, newErr(KindInvalidValue, "no struct field named %q", el.Name)
		}

		if el.Nested != nil {
			nested := field
			for nested.Kind() == reflect.Ptr {
				nested = nested.Elem()
			}
			childBody, err := encodeElements(el.Nested.Elements, nested)
			if err != nil {
				return nil, err
			}
			if el.Nested.Root == RootNested {
				out = append(out, childBody...)
				continue
			}
			n := Node{Type: TypeSequence, Class: el.Class, Method: Constructed, Explicit: el.Explicit, Implicit: el.Implicit}
			tlv, err := wrapSequence(n, childBody)
			if err != nil {
				return nil, err
			}
			out = append(out, tlv...)
			continue
		}

		value := field.Interface()
		var err error
		for _, t := range el.EncodeTransforms {
			value, err = t(value)
			if err != nil {
				return nil, err
			}
		}

		if el.Type == TypeBytes && el.ByteLength > 0 {
			b, ok := value.([]byte)
			if !ok {
				return nil, newErr(KindInvalidValue, "field %q must encode to []byte", el.Name)
			}
			if len(b) > el.ByteLength {
				return nil, newErr(KindInvalidValue, "field %q exceeds declared byte length %d", el.Name, el.ByteLength)
			}
			if len(b) < el.ByteLength {
				padded := make([]byte, el.ByteLength)
				copy(padded[el.ByteLength-len(b):], b)
				value = padded
			}
		}

		n := Node{Type: el.Type, Class: el.Class, Method: el.Method, Explicit: el.Explicit, Implicit: el.Implicit, Value: value}
		tlv, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, tlv...)
	}
	return out, nil
}

// wrapSequence builds the TLV for a nested Sequence node whose content was
// already produced by encodeElements (avoiding a second pass through
// encodeNode's Children-based Sequence path).
func wrapSequence(n Node, content []byte) ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	inner := append([]byte{n.innerTag()}, EncodeLength(len(content), false)...)
	inner = append(inner, content...)
	if n.Explicit == nil {
		return inner, nil
	}
	outerTag := byte(n.Class) | byte(Constructed) | byte(*n.Explicit)
	outer := append([]byte{outerTag}, EncodeLength(len(inner), false)...)
	return append(outer, inner...), nil
}
