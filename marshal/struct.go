package marshal

import (
	"github.com/pkg/errors"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/load"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/save"
)

// FieldCodec is the codec of a single field of struct S.
type FieldCodec[S any] interface {
	layout() blob.Layout
	newSaver(s *S) save.Saver
	validate(b blob.Blob) (load.ChildValidator, error)
	decode(b blob.FullyValidBlob, s *S)
}

type field[S, F any] struct {
	codec Codec[F]
	get   func(s *S) *F
}

// Field returns the codec of the field of S returned by get.
func Field[S, F any](c Codec[F], get func(s *S) *F) FieldCodec[S] {
	return &field[S, F]{codec: c, get: get}
}

func (f *field[S, F]) layout() blob.Layout {
	return f.codec.Layout()
}

func (f *field[S, F]) newSaver(s *S) save.Saver {
	return f.codec.NewSaver(f.get(s))
}

func (f *field[S, F]) validate(b blob.Blob) (load.ChildValidator, error) {
	_, cv, err := f.codec.ValidateBlob(b, pointee.Sized)
	return cv, err
}

func (f *field[S, F]) decode(b blob.FullyValidBlob, s *S) {
	*f.get(s) = f.codec.Decode(b, pointee.Sized)
}

type structCodec[S any] struct {
	sized[S]
	fields []FieldCodec[S]
}

// Struct returns the codec of struct S persisted as its fields, in the order given, without padding.
func Struct[S any](fields ...FieldCodec[S]) Codec[S] {
	layout := blob.NewLayout(0)
	for _, f := range fields {
		layout = layout.Extend(f.layout())
	}
	return &structCodec[S]{
		sized:  sized[S]{layout: layout},
		fields: fields,
	}
}

func (c *structCodec[S]) NewSaver(v *S) save.Saver {
	fs := &fieldsSaver{
		size:   c.layout.Size(),
		fields: make([]save.Saver, 0, len(c.fields)),
	}
	for _, f := range c.fields {
		fs.fields = append(fs.fields, f.newSaver(v))
	}
	return fs
}

func (c *structCodec[S]) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	sv := b.ValidateStruct()
	children := make([]load.ChildValidator, 0, len(c.fields))
	for i, f := range c.fields {
		cv, err := f.validate(sv.Field(f.layout().Size()))
		if err != nil {
			return blob.ValidBlob{}, nil, errors.Wrapf(err, "field %d", i)
		}
		children = append(children, cv)
	}
	return sv.Done(), load.NewTuple(children...), nil
}

func (c *structCodec[S]) Decode(b blob.FullyValidBlob, _ pointee.Metadata) S {
	var v S
	var pos int
	for _, f := range c.fields {
		size := f.layout().Size()
		f.decode(b.Field(pos, size), &v)
		pos += size
	}
	return v
}
