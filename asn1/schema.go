package asn1

// RootKind names what kind of envelope, if any, a record contributes to the
// wire.
type RootKind int

const (
	// RootSequence means the record is wrapped in its own SEQUENCE TLV.
	RootSequence RootKind = iota
	// RootNested means the record contributes its Elements directly into
	// its parent's Sequence, with no TLV envelope of its own.
	RootNested
)

// Transform is a pure function applied to a field's value either after
// decode or before encode. Transforms compose left-to-right in declaration
// order and are typically used to reinterpret a fixed-width OctetString as
// a big integer (left-padding on encode, stripping padding never needed on
// decode since the width is fixed) — see EC scalar padding, §9.
type Transform func(interface{}) (interface{}, error)

// Element binds one record field to an ASN.1 element.
type Element struct {
	// Name is the exported Go struct field name this element binds to.
	Name string

	Type   TypeID
	Class  Class
	Method Method

	// Explicit/Implicit carry a tag number when set; at most one may be
	// non-nil, mirroring Node's own invariant.
	Explicit *int
	Implicit *int

	// Nested, when set, is the schema of a child record value; Type is
	// ignored for such elements, and the child's Root (RootSequence or
	// RootNested) decides whether it gets its own Sequence envelope.
	Nested *Schema

	// ByteLength fixes the width, in octets, of a TypeBytes element: the
	// encoder left-pads (or requires exact length) and the decoder
	// requires exactly this many content octets.
	ByteLength int

	EncodeTransforms []Transform
	DecodeTransforms []Transform
}

// Schema is the immutable, declarative mapping from a record type's fields
// to ASN.1 elements. Build one with NewSchema/Builder.Build; field order
// defines wire order.
type Schema struct {
	Root     RootKind
	Elements []Element
}

// Builder accumulates Elements before producing an immutable Schema.
type Builder struct {
	root     RootKind
	elements []Element
}

// NewSchema starts a Builder for a record whose root envelope is root.
func NewSchema(root RootKind) *Builder {
	return &Builder{root: root}
}

// Field appends a new element bound to the Go struct field named name.
func (b *Builder) Field(name string, t TypeID) *FieldBuilder {
	return &FieldBuilder{b: b, el: Element{Name: name, Type: t, Class: ClassUniversal}}
}

// Build freezes the accumulated elements into an immutable Schema.
func (b *Builder) Build() *Schema {
	els := make([]Element, len(b.elements))
	copy(els, b.elements)
	return &Schema{Root: b.root, Elements: els}
}

// FieldBuilder configures a single Element before it is appended to its
// parent Builder via Add.
type FieldBuilder struct {
	b  *Builder
	el Element
}

func (f *FieldBuilder) Class(c Class) *FieldBuilder {
	f.el.Class = c
	return f
}

func (f *FieldBuilder) Constructed() *FieldBuilder {
	f.el.Method = Constructed
	return f
}

func (f *FieldBuilder) Explicit(tag int) *FieldBuilder {
	f.el.Explicit = &tag
	return f
}

func (f *FieldBuilder) Implicit(tag int) *FieldBuilder {
	f.el.Implicit = &tag
	return f
}

func (f *FieldBuilder) Nested(s *Schema) *FieldBuilder {
	f.el.Nested = s
	return f
}

func (f *FieldBuilder) ByteLength(n int) *FieldBuilder {
	f.el.ByteLength = n
	return f
}

func (f *FieldBuilder) EncodeTransform(t Transform) *FieldBuilder {
	f.el.EncodeTransforms = append(f.el.EncodeTransforms, t)
	return f
}

func (f *FieldBuilder) DecodeTransform(t Transform) *FieldBuilder {
	f.el.DecodeTransforms = append(f.el.DecodeTransforms, t)
	return f
}

// Add appends the configured element to the parent Builder and returns it
// for chaining further Field calls.
func (f *FieldBuilder) Add() *Builder {
	f.b.elements = append(f.b.elements, f.el)
	return f.b
}
