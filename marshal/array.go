package marshal

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/load"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/save"
)

// ErrSliceLength is returned when the length of a persisted slice does not fit in a pile.
var ErrSliceLength = errors.New("slice too long")

type bytesCodec struct {
	sized[[]byte]
}

// Bytes returns the codec of byte arrays of length n. Decoded arrays share memory with the blob.
func Bytes(n int) Codec[[]byte] {
	return &bytesCodec{sized: sized[[]byte]{layout: blob.NewLayout(n)}}
}

func (c *bytesCodec) NewSaver(v *[]byte) save.Saver {
	if len(*v) != c.layout.Size() {
		panic(fmt.Sprintf("array has %d bytes, expected %d", len(*v), c.layout.Size()))
	}
	return leaf(*v)
}

func (c *bytesCodec) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	return b.AssumeValid(), load.Done{}, nil
}

func (c *bytesCodec) Decode(b blob.FullyValidBlob, _ pointee.Metadata) []byte {
	return b.Bytes()
}

// elements implements validation, saving and decoding of consecutive elements.
type elements[T any] struct {
	elem Codec[T]
}

func (e elements[T]) newSaver(v []T) save.Saver {
	fs := &fieldsSaver{
		size:   len(v) * e.elem.Layout().Size(),
		fields: make([]save.Saver, 0, len(v)),
	}
	for i := range v {
		fs.fields = append(fs.fields, e.elem.NewSaver(&v[i]))
	}
	return fs
}

func (e elements[T]) validate(b blob.Blob, n int) (blob.ValidBlob, load.ChildValidator, error) {
	size := e.elem.Layout().Size()
	sv := b.ValidateStruct()
	var children []load.ChildValidator
	for i := range n {
		_, cv, err := e.elem.ValidateBlob(sv.Field(size), pointee.Sized)
		if err != nil {
			return blob.ValidBlob{}, nil, errors.Wrapf(err, "element %d", i)
		}
		if !load.IsDone(cv) {
			children = append(children, cv)
		}
	}
	return sv.Done(), load.NewTuple(children...), nil
}

func (e elements[T]) decode(b blob.FullyValidBlob, n int) []T {
	size := e.elem.Layout().Size()
	v := make([]T, n)
	for i := range v {
		v[i] = e.elem.Decode(b.Field(i*size, size), pointee.Sized)
	}
	return v
}

type arrayCodec[T any] struct {
	sized[[]T]
	elements[T]
	n int
}

// Array returns the codec of arrays holding exactly n elements.
func Array[T any](elem Codec[T], n int) Codec[[]T] {
	layout := blob.NewLayout(0)
	for range n {
		layout = layout.Extend(elem.Layout())
	}
	return &arrayCodec[T]{
		sized:    sized[[]T]{layout: layout},
		elements: elements[T]{elem: elem},
		n:        n,
	}
}

func (c *arrayCodec[T]) NewSaver(v *[]T) save.Saver {
	if len(*v) != c.n {
		panic(fmt.Sprintf("array has %d elements, expected %d", len(*v), c.n))
	}
	return c.newSaver(*v)
}

func (c *arrayCodec[T]) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	return c.validate(b, c.n)
}

func (c *arrayCodec[T]) Decode(b blob.FullyValidBlob, _ pointee.Metadata) []T {
	return c.decode(b, c.n)
}

type sliceCodec[T any] struct {
	elements[T]
}

// Slice returns the codec of slices. Slices are unsized, they exist in a pile only as targets of pointers
// carrying the length as metadata.
func Slice[T any](elem Codec[T]) Pointee[[]T] {
	return &sliceCodec[T]{elements: elements[T]{elem: elem}}
}

func (c *sliceCodec[T]) BlobSize(meta pointee.Metadata) int {
	return int(meta) * c.elem.Layout().Size()
}

// Extent counts each element as at least one byte, so the length of zero-sized element slices is bounded by
// the pile.
func (c *sliceCodec[T]) Extent(meta pointee.Metadata) uint64 {
	return uint64(meta) * uint64(max(c.elem.Layout().Size(), 1))
}

func (c *sliceCodec[T]) Metadata(v *[]T) pointee.Metadata {
	return pointee.Metadata(len(*v))
}

func (c *sliceCodec[T]) MetadataSize() int {
	return 8
}

func (c *sliceCodec[T]) ValidateMetadata(meta pointee.Metadata) error {
	limit := uint64(offset.MaxOffset)
	if size := c.elem.Layout().Size(); size > 0 {
		limit /= uint64(size)
	}
	if uint64(meta) > limit {
		return errors.Wrapf(ErrSliceLength, "length %d, limit %d", meta, limit)
	}
	return nil
}

func (c *sliceCodec[T]) NewSaver(v *[]T) save.Saver {
	return c.newSaver(*v)
}

func (c *sliceCodec[T]) ValidateBlob(b blob.Blob, meta pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	return c.validate(b, int(meta))
}

func (c *sliceCodec[T]) Decode(b blob.FullyValidBlob, meta pointee.Metadata) []T {
	return c.decode(b, int(meta))
}
