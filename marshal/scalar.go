package marshal

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/cast"
	"github.com/outofforest/hoard/load"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/save"
)

var (
	// ErrInvalidBool is returned when a boolean byte is neither 0 nor 1.
	ErrInvalidBool = errors.New("invalid bool")

	// ErrZeroValue is returned when a non-zero value is stored as zero.
	ErrZeroValue = errors.New("non-zero value is zero")
)

// Void is the type of values which never exist.
type Void struct{}

type unitCodec struct {
	sized[struct{}]
}

// Unit returns the codec of the empty value.
func Unit() Codec[struct{}] {
	return &unitCodec{sized: sized[struct{}]{layout: blob.NewLayout(0)}}
}

func (c *unitCodec) NewSaver(*struct{}) save.Saver {
	return leaf(nil)
}

func (c *unitCodec) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	return b.AssumeValid(), load.Done{}, nil
}

func (c *unitCodec) Decode(blob.FullyValidBlob, pointee.Metadata) struct{} {
	return struct{}{}
}

type neverCodec struct {
	sized[Void]
}

// Never returns the codec of uninhabited values. None of its operations may ever be reached.
func Never() Codec[Void] {
	return &neverCodec{sized: sized[Void]{layout: blob.NeverLayout()}}
}

func (c *neverCodec) NewSaver(*Void) save.Saver {
	panic("uninhabited value")
}

func (c *neverCodec) ValidateBlob(blob.Blob, pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	panic("uninhabited value")
}

func (c *neverCodec) Decode(blob.FullyValidBlob, pointee.Metadata) Void {
	panic("uninhabited value")
}

type byteCodec[T uint8 | int8] struct {
	sized[T]
}

// Uint8 returns the codec of uint8.
func Uint8() Codec[uint8] {
	return &byteCodec[uint8]{sized: sized[uint8]{layout: blob.NewLayout(1)}}
}

// Int8 returns the codec of int8. The byte holds the two's complement bits.
func Int8() Codec[int8] {
	return &byteCodec[int8]{sized: sized[int8]{layout: blob.NewLayout(1)}}
}

func (c *byteCodec[T]) NewSaver(v *T) save.Saver {
	return leaf([]byte{cast.Cast[byte](*v)})
}

func (c *byteCodec[T]) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	return b.AssumeValid(), load.Done{}, nil
}

func (c *byteCodec[T]) Decode(b blob.FullyValidBlob, _ pointee.Metadata) T {
	return cast.Cast[T](b.Bytes()[0])
}

type leCodec[T uint16 | uint32 | uint64 | int16 | int32 | int64] struct {
	sized[T]
	nonZero bool
}

func newLE[T uint16 | uint32 | uint64 | int16 | int32 | int64](size int, nonZero bool) *leCodec[T] {
	layout := blob.NewLayout(size)
	if nonZero {
		layout = blob.NewNonZeroLayout(size)
	}
	return &leCodec[T]{sized: sized[T]{layout: layout}, nonZero: nonZero}
}

// Uint16 returns the codec of little endian uint16.
func Uint16() Codec[uint16] {
	return newLE[uint16](2, false)
}

// Uint32 returns the codec of little endian uint32.
func Uint32() Codec[uint32] {
	return newLE[uint32](4, false)
}

// Uint64 returns the codec of little endian uint64.
func Uint64() Codec[uint64] {
	return newLE[uint64](8, false)
}

// Int16 returns the codec of little endian int16.
func Int16() Codec[int16] {
	return newLE[int16](2, false)
}

// Int32 returns the codec of little endian int32.
func Int32() Codec[int32] {
	return newLE[int32](4, false)
}

// Int64 returns the codec of little endian int64.
func Int64() Codec[int64] {
	return newLE[int64](8, false)
}

// NonZeroUint32 returns the codec of uint32 values never being zero. The zero pattern is left to the
// enclosing option.
func NonZeroUint32() Codec[uint32] {
	return newLE[uint32](4, true)
}

// NonZeroUint64 returns the codec of uint64 values never being zero.
func NonZeroUint64() Codec[uint64] {
	return newLE[uint64](8, true)
}

func (c *leCodec[T]) NewSaver(v *T) save.Saver {
	if c.nonZero && *v == 0 {
		panic("zero value stored as non-zero")
	}

	b := make([]byte, c.layout.Size())
	switch c.layout.Size() {
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(*v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(*v))
	default:
		binary.LittleEndian.PutUint64(b, uint64(*v))
	}
	return leaf(b)
}

func (c *leCodec[T]) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	if c.nonZero && isZero(b.Bytes()) {
		return blob.ValidBlob{}, nil, errors.WithStack(ErrZeroValue)
	}
	return b.AssumeValid(), load.Done{}, nil
}

func (c *leCodec[T]) Decode(b blob.FullyValidBlob, _ pointee.Metadata) T {
	switch c.layout.Size() {
	case 2:
		return T(binary.LittleEndian.Uint16(b.Bytes()))
	case 4:
		return T(binary.LittleEndian.Uint32(b.Bytes()))
	default:
		return T(binary.LittleEndian.Uint64(b.Bytes()))
	}
}

type boolCodec struct {
	sized[bool]
}

// Bool returns the codec of bool stored as a single byte, 0 or 1.
func Bool() Codec[bool] {
	return &boolCodec{sized: sized[bool]{layout: blob.NewLayout(1)}}
}

func (c *boolCodec) NewSaver(v *bool) save.Saver {
	if *v {
		return leaf([]byte{1})
	}
	return leaf([]byte{0})
}

func (c *boolCodec) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	if v := b.Bytes()[0]; v > 1 {
		return blob.ValidBlob{}, nil, errors.Wrapf(ErrInvalidBool, "byte %#x", v)
	}
	return b.AssumeValid(), load.Done{}, nil
}

func (c *boolCodec) Decode(b blob.FullyValidBlob, _ pointee.Metadata) bool {
	return b.Bytes()[0] == 1
}
