package marshal

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/load"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/ptr"
	"github.com/outofforest/hoard/save"
)

func offsetLeaf(o offset.Offset) save.Saver {
	return save.NewLeaf(offset.Size, func(w blob.Writer) (blob.Writer, error) {
		w, err := writeOffset(w, o)
		if err != nil {
			return nil, err
		}
		return w.Finish()
	})
}

func writeOffset(w blob.Writer, o offset.Offset) (blob.Writer, error) {
	b := o.Bytes()
	return blob.WritePrimitive(w, b[:])
}

func mustOffset(b []byte) offset.Offset {
	o, err := offset.FromBytes(b)
	if err != nil {
		panic(err)
	}
	return o
}

type offsetCodec struct {
	sized[offset.Offset]
}

// OffsetCodec returns the codec of pile offsets.
func OffsetCodec() Codec[offset.Offset] {
	return &offsetCodec{sized: sized[offset.Offset]{layout: blob.NewNonZeroLayout(offset.Size)}}
}

func (c *offsetCodec) NewSaver(v *offset.Offset) save.Saver {
	return offsetLeaf(*v)
}

func (c *offsetCodec) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	if _, err := offset.FromBytes(b.Bytes()); err != nil {
		return blob.ValidBlob{}, nil, err
	}
	return b.AssumeValid(), load.Done{}, nil
}

func (c *offsetCodec) Decode(b blob.FullyValidBlob, _ pointee.Metadata) offset.Offset {
	return mustOffset(b.Bytes())
}

type offsetMutCodec struct {
	sized[offset.OffsetMut]
}

// OffsetMutCodec returns the codec of mutable offsets. Only clean offsets may be encoded, decoded ones are
// always clean.
func OffsetMutCodec() Codec[offset.OffsetMut] {
	return &offsetMutCodec{sized: sized[offset.OffsetMut]{layout: blob.NewNonZeroLayout(offset.Size)}}
}

func (c *offsetMutCodec) NewSaver(v *offset.OffsetMut) save.Saver {
	o, err := v.ToOffset()
	if err != nil {
		panic(err)
	}
	return offsetLeaf(o)
}

func (c *offsetMutCodec) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	if _, err := offset.FromBytes(b.Bytes()); err != nil {
		return blob.ValidBlob{}, nil, err
	}
	return b.AssumeValid(), load.Done{}, nil
}

func (c *offsetMutCodec) Decode(b blob.FullyValidBlob, _ pointee.Metadata) offset.OffsetMut {
	return offset.FromOffset(mustOffset(b.Bytes()))
}

type saveStep byte

const (
	saveInitial saveStep = iota
	saveValue
	savePtr
)

// ptrSaver saves the pointee first, if dirty, and then encodes the offset and the metadata.
type ptrSaver[T any] struct {
	pointee  Pointee[T]
	raw      ptr.Ptr
	meta     pointee.Metadata
	metaSize int

	step  saveStep
	child save.Saver
	saved offset.Offset
}

func (s *ptrSaver[T]) Size() int {
	return offset.Size + s.metaSize
}

func (s *ptrSaver[T]) Poll(d save.Dumper) (save.Saver, error) {
	switch s.step {
	case saveInitial:
		if o, ok := d.TrySavePtr(s.raw, s.meta); ok {
			s.saved = o
			s.step = savePtr
			return nil, nil
		}
		v, _, _ := ptr.TryGetDirtyUnchecked[T](s.raw, s.meta)
		s.child = s.pointee.NewSaver(v)
		s.step = saveValue
		return s.child, nil
	case saveValue:
		o, err := d.SavePtr(s.child)
		if err != nil {
			return nil, err
		}
		s.saved = o
		s.child = nil
		s.step = savePtr
		return nil, nil
	default:
		return nil, nil
	}
}

func (s *ptrSaver[T]) EncodeBlob(w blob.Writer) (blob.Writer, error) {
	if s.step != savePtr {
		panic("pointee not saved")
	}

	w, err := writeOffset(w, s.saved)
	if err != nil {
		return nil, err
	}
	if s.metaSize > 0 {
		meta := make([]byte, s.metaSize)
		binary.LittleEndian.PutUint64(meta, uint64(s.meta))
		if w, err = blob.WritePrimitive(w, meta); err != nil {
			return nil, err
		}
	}
	return w.Finish()
}

// pointerBase implements the parts shared by the pointer codecs.
type pointerBase[T any] struct {
	pointee Pointee[T]
}

func (c pointerBase[T]) Layout() blob.Layout {
	return blob.NewNonZeroLayout(offset.Size).Extend(blob.NewLayout(c.pointee.MetadataSize()))
}

func (c pointerBase[T]) BlobSize(pointee.Metadata) int {
	return c.Layout().Size()
}

func (c pointerBase[T]) MetadataSize() int {
	return 0
}

func (c pointerBase[T]) ValidateMetadata(meta pointee.Metadata) error {
	if meta != pointee.Sized {
		return errors.Errorf("pointer cannot have metadata %d", meta)
	}
	return nil
}

func (c pointerBase[T]) newSaver(raw ptr.Ptr, meta pointee.Metadata) save.Saver {
	return &ptrSaver[T]{
		pointee:  c.pointee,
		raw:      raw,
		meta:     meta,
		metaSize: c.pointee.MetadataSize(),
	}
}

func (c pointerBase[T]) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	o, meta, err := c.read(b.Bytes())
	if err != nil {
		return blob.ValidBlob{}, nil, err
	}
	return b.AssumeValid(), load.NewValidateState(o, meta, c.pointee), nil
}

func (c pointerBase[T]) read(b []byte) (offset.Offset, pointee.Metadata, error) {
	o, err := offset.FromBytes(b[:offset.Size])
	if err != nil {
		return offset.Offset{}, 0, err
	}
	meta := pointee.Sized
	if c.pointee.MetadataSize() > 0 {
		meta = pointee.Metadata(binary.LittleEndian.Uint64(b[offset.Size:]))
		if err := c.pointee.ValidateMetadata(meta); err != nil {
			return offset.Offset{}, 0, err
		}
	}
	return o, meta, nil
}

type pointerCodec[T any] struct {
	pointerBase[T]
}

// Pointer returns the codec of owning pointers to values encoded by p. Decoded pointers are clean.
func Pointer[T any](p Pointee[T]) Codec[*ptr.Own[T, offset.OffsetMut]] {
	return &pointerCodec[T]{pointerBase: pointerBase[T]{pointee: p}}
}

func (c *pointerCodec[T]) Metadata(**ptr.Own[T, offset.OffsetMut]) pointee.Metadata {
	return pointee.Sized
}

func (c *pointerCodec[T]) NewSaver(v **ptr.Own[T, offset.OffsetMut]) save.Saver {
	valid := (*v).Valid()
	return c.newSaver(valid.Raw(), valid.Metadata())
}

func (c *pointerCodec[T]) Decode(b blob.FullyValidBlob, _ pointee.Metadata) *ptr.Own[T, offset.OffsetMut] {
	o, meta, err := c.read(b.Bytes())
	if err != nil {
		panic(err)
	}
	return ptr.NewOwnUnchecked(ptr.FatPtr[T, offset.OffsetMut]{
		Raw:      offset.FromOffset(o),
		Metadata: meta,
	})
}

type validPointerCodec[T any] struct {
	pointerBase[T]
}

// ValidPointer returns the codec of valid pointers to persisted values encoded by p.
func ValidPointer[T any](p Pointee[T]) Codec[ptr.ValidPtr[T, offset.Offset]] {
	return &validPointerCodec[T]{pointerBase: pointerBase[T]{pointee: p}}
}

func (c *validPointerCodec[T]) Metadata(*ptr.ValidPtr[T, offset.Offset]) pointee.Metadata {
	return pointee.Sized
}

func (c *validPointerCodec[T]) NewSaver(v *ptr.ValidPtr[T, offset.Offset]) save.Saver {
	return c.newSaver(v.Raw(), v.Metadata())
}

func (c *validPointerCodec[T]) Decode(b blob.FullyValidBlob, _ pointee.Metadata) ptr.ValidPtr[T, offset.Offset] {
	o, meta, err := c.read(b.Bytes())
	if err != nil {
		panic(err)
	}
	return ptr.NewValidPtrUnchecked(ptr.FatPtr[T, offset.Offset]{
		Raw:      o,
		Metadata: meta,
	})
}

type lazyCodec[T any] struct {
	sized[T]

	once  sync.Once
	f     func() Codec[T]
	codec Codec[T]
}

// Lazy returns the sized codec built by f on first use. It lets recursive types refer to their own codec.
func Lazy[T any](f func() Codec[T]) Codec[T] {
	return &lazyCodec[T]{f: f}
}

func (c *lazyCodec[T]) get() Codec[T] {
	c.once.Do(func() {
		c.codec = c.f()
	})
	return c.codec
}

func (c *lazyCodec[T]) Layout() blob.Layout {
	return c.get().Layout()
}

func (c *lazyCodec[T]) BlobSize(meta pointee.Metadata) int {
	return c.get().BlobSize(meta)
}

func (c *lazyCodec[T]) NewSaver(v *T) save.Saver {
	return c.get().NewSaver(v)
}

func (c *lazyCodec[T]) ValidateBlob(b blob.Blob, meta pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	return c.get().ValidateBlob(b, meta)
}

func (c *lazyCodec[T]) Decode(b blob.FullyValidBlob, meta pointee.Metadata) T {
	return c.get().Decode(b, meta)
}
