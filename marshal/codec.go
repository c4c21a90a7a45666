// Package marshal defines codecs translating Go values to and from their blobs.
//
// A codec knows the layout of the blob, creates savers writing values through a dumper, validates untrusted
// blobs and decodes fully validated ones. Codecs compose: structs, arrays, options and pointers are built from
// the codecs of their parts.
package marshal

import (
	"github.com/pkg/errors"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/load"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/ptr"
	"github.com/outofforest/hoard/save"
)

// ErrUnresolvedPointer is returned by Decode when the bytes contain a pointer.
var ErrUnresolvedPointer = errors.New("pointer cannot be resolved without a pile")

// Pointee is the codec of values which may be the target of a pointer, sized or not.
type Pointee[T any] interface {
	load.BlobValidator

	// Metadata returns the pointer metadata of the value.
	Metadata(v *T) pointee.Metadata

	// MetadataSize returns the number of bytes used to persist the metadata next to the offset.
	MetadataSize() int

	// ValidateMetadata checks untrusted metadata.
	ValidateMetadata(meta pointee.Metadata) error

	// NewSaver returns the saver of the value.
	NewSaver(v *T) save.Saver

	// Decode builds the value from its fully validated blob.
	Decode(b blob.FullyValidBlob, meta pointee.Metadata) T
}

// Codec is the codec of sized values.
type Codec[T any] interface {
	Pointee[T]

	// Layout returns the layout of the blob.
	Layout() blob.Layout
}

// sized implements the part of Codec shared by all the sized values.
type sized[T any] struct {
	layout blob.Layout
}

func (s sized[T]) Layout() blob.Layout {
	return s.layout
}

func (s sized[T]) BlobSize(pointee.Metadata) int {
	return s.layout.Size()
}

func (s sized[T]) Metadata(*T) pointee.Metadata {
	return pointee.Sized
}

func (s sized[T]) MetadataSize() int {
	return 0
}

func (s sized[T]) ValidateMetadata(meta pointee.Metadata) error {
	if meta != pointee.Sized {
		return errors.Errorf("sized value cannot have metadata %d", meta)
	}
	return nil
}

func leaf(b []byte) save.Saver {
	return save.NewLeaf(len(b), func(w blob.Writer) (blob.Writer, error) {
		w, err := w.WriteBytes(b)
		if err != nil {
			return nil, err
		}
		return w.Finish()
	})
}

func zeros(n int) save.Saver {
	return save.NewLeaf(n, func(w blob.Writer) (blob.Writer, error) {
		w, err := w.WritePadding(n)
		if err != nil {
			return nil, err
		}
		return w.Finish()
	})
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// fieldsSaver saves consecutive fields of a compound value.
type fieldsSaver struct {
	size   int
	fields []save.Saver
	next   int
}

func (fs *fieldsSaver) Size() int {
	return fs.size
}

func (fs *fieldsSaver) Poll(d save.Dumper) (save.Saver, error) {
	for fs.next < len(fs.fields) {
		child, err := fs.fields[fs.next].Poll(d)
		if err != nil {
			return nil, err
		}
		if child != nil {
			return child, nil
		}
		fs.next++
	}
	return nil, nil
}

func (fs *fieldsSaver) EncodeBlob(w blob.Writer) (blob.Writer, error) {
	for _, f := range fs.fields {
		var err error
		w, err = blob.Write(w, f)
		if err != nil {
			return nil, err
		}
	}
	return w.Finish()
}

// detached is the dumper used when values are encoded outside of a pile.
type detached struct{}

func (detached) TrySavePtr(p ptr.Ptr, _ pointee.Metadata) (offset.Offset, bool) {
	return p.Clean()
}

func (detached) SavePtr(save.Saver) (offset.Offset, error) {
	panic("dirty pointer cannot be encoded without a dumper")
}

// Encode returns the blob of the value. Pointers inside the value must be clean.
func Encode[T any](c Codec[T], v T) []byte {
	s := c.NewSaver(&v)
	if err := save.Drive(s, detached{}); err != nil {
		panic(err)
	}

	b := make([]byte, c.Layout().Size())
	if _, err := blob.Write(blob.SliceWriter(b), s); err != nil {
		panic(err)
	}
	return b
}

// unresolved is the pointer validator refusing every pointer.
type unresolved struct{}

func (unresolved) ValidatePtr(o offset.Offset, _ pointee.Metadata, _ load.BlobValidator) (load.ChildValidator, error) {
	return nil, errors.Wrapf(ErrUnresolvedPointer, "offset %s", o)
}

// Decode validates the blob of a value having no pointers and decodes it.
func Decode[T any](c Codec[T], b []byte) (T, error) {
	var v T
	if len(b) != c.Layout().Size() {
		return v, errors.Errorf("value requires %d bytes, got %d", c.Layout().Size(), len(b))
	}
	vb, cv, err := c.ValidateBlob(blob.New(b, len(b)), pointee.Sized)
	if err != nil {
		return v, err
	}
	if err := load.Run(cv, unresolved{}); err != nil {
		return v, err
	}
	return c.Decode(vb.AssumeFullyValid(), pointee.Sized), nil
}
