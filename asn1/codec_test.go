package asn1

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// algorithmIdentifier mirrors the X.509 AlgorithmIdentifier SEQUENCE, used
// here as a nested record with its own Sequence envelope.
type algorithmIdentifier struct {
	Algorithm  ObjectIdentifier
	Parameters []byte
}

func algorithmIdentifierSchema() *Schema {
	return NewSchema(RootSequence).
		Field("Algorithm", TypeObjectIdentifier).Add().
		Field("Parameters", TypeNull).Add().
		Build()
}

// simpleCert is a toy record exercising: a Sequence root, an Integer field,
// a nested Sequence, a context-specific explicitly tagged field, and a
// fixed-width (ByteLength 4) Bytes field.
type simpleCert struct {
	Version   *big.Int
	Algorithm algorithmIdentifier
	Serial    []byte
}

func simpleCertSchema() *Schema {
	tag0 := 0
	return NewSchema(RootSequence).
		Field("Version", TypeInteger).Explicit(tag0).Class(ClassContextSpecific).Add().
		Field("Algorithm", TypeSequence).Nested(algorithmIdentifierSchema()).Add().
		Field("Serial", TypeBytes).ByteLength(4).Add().
		Build()
}

func TestSchemaRoundTrip(t *testing.T) {
	schema := simpleCertSchema()
	rec := simpleCert{
		Version:   big.NewInt(2),
		Algorithm: algorithmIdentifier{Algorithm: ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}},
		Serial:    []byte{0x01, 0x02, 0x03, 0x04},
	}

	encoded, err := EncodeValue(schema, rec)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	var got simpleCert
	err = Decode(schema, encoded, &got)
	require.NoError(t, err)

	require.Equal(t, rec.Version.Int64(), got.Version.Int64())
	require.True(t, rec.Algorithm.Algorithm.Equal(got.Algorithm.Algorithm))
	require.Equal(t, rec.Serial, got.Serial)
}

func TestSchemaRoundTripDER(t *testing.T) {
	schema := simpleCertSchema()
	rec := simpleCert{
		Version:   big.NewInt(0),
		Algorithm: algorithmIdentifier{Algorithm: ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}},
		Serial:    []byte{0xAA, 0xBB, 0xCC, 0xDD},
	}

	encoded, err := EncodeValue(schema, rec)
	require.NoError(t, err)

	var got simpleCert
	err = DecodeDER(schema, encoded, &got)
	require.NoError(t, err)
	require.Equal(t, rec.Serial, got.Serial)
}

// inner/outer exercise RootNested: Inner contributes its field directly
// into the parent Sequence with no envelope of its own.
type inner struct {
	Tag []byte
}

func innerSchema() *Schema {
	return NewSchema(RootNested).
		Field("Tag", TypeBytes).ByteLength(2).Add().
		Build()
}

type outer struct {
	Inner inner
	Rest  []byte
}

func outerSchema() *Schema {
	return NewSchema(RootSequence).
		Field("Inner", TypeSequence).Nested(innerSchema()).Add().
		Field("Rest", TypeOctetString).Add().
		Build()
}

func TestNestedMarkerHasNoEnvelope(t *testing.T) {
	schema := outerSchema()
	rec := outer{Inner: inner{Tag: []byte{0x01, 0x02}}, Rest: []byte("hi")}

	encoded, err := EncodeValue(schema, rec)
	require.NoError(t, err)
	// Only the outer SEQUENCE envelope: Inner's OCTET STRING sits directly
	// beside Rest's.
	require.Equal(t, []byte{0x30, 0x08, 0x04, 0x02, 0x01, 0x02, 0x04, 0x02, 'h', 'i'}, encoded)

	var got outer
	err = Decode(schema, encoded, &got)
	require.NoError(t, err)
	require.Equal(t, rec.Inner.Tag, got.Inner.Tag)
	require.Equal(t, rec.Rest, got.Rest)
}

func TestDERRejectsConstructedBitString(t *testing.T) {
	// A constructed BIT STRING tag (0x23) is invalid under DER.
	data := []byte{0x23, 0x03, 0x00, 0x01, 0x02}
	d := NewDERDecoder(data)
	_, _, err := d.Slice(TypeBitString, SliceOptions{Method: Primitive})
	require.Error(t, err)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, KindUnsupportedConstructed, aerr.Kind)
}

func TestDERRejectsNonMinimalInteger(t *testing.T) {
	data := []byte{0x02, 0x02, 0x00, 0x01}
	d := NewDERDecoder(data)
	_, _, err := d.Slice(TypeInteger, SliceOptions{})
	require.Error(t, err)
}

func TestUnexpectedTagError(t *testing.T) {
	d := NewDecoder([]byte{0x04, 0x01, 0xAA}) // OctetString tag where Integer expected
	_, _, err := d.Slice(TypeInteger, SliceOptions{})
	require.Error(t, err)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, KindUnexpectedTag, aerr.Kind)
}
