// Package offset implements persistent pointers: byte offsets into a pile, optionally standing in for
// values still living on the heap.
//
// Persisted form, 8 bytes little endian:
//
//	| bit 63   | bits 1 - 62 | bit 0 |
//	| reserved | offset      | 1     |
package offset

import (
	"encoding/binary"
	"strconv"

	"github.com/pkg/errors"

	"github.com/outofforest/hoard/pointee"
)

const (
	// MaxOffset is the largest representable offset.
	MaxOffset = 1<<62 - 1

	// Size is the number of bytes of a persisted offset.
	Size = 8

	tagBit      = 1
	reservedBit = 1 << 63
)

var (
	// ErrUntagged is returned when the tag bit of a persisted offset is not set.
	ErrUntagged = errors.New("offset tag bit is not set")

	// ErrReservedBit is returned when the reserved top bit of a persisted offset is set.
	ErrReservedBit = errors.New("offset reserved bit is set")
)

// Offset is a byte position within a pile.
//
// The zero value is not a valid offset.
type Offset struct {
	raw uint64
}

// New returns the offset. False is returned if x exceeds MaxOffset.
func New(x uint64) (Offset, bool) {
	if x > MaxOffset {
		return Offset{}, false
	}
	return Offset{raw: x<<1 | tagBit}, true
}

// MustNew returns the offset or panics if x exceeds MaxOffset.
func MustNew(x uint64) Offset {
	o, ok := New(x)
	if !ok {
		panic(errors.Errorf("offset %d overflows", x))
	}
	return o
}

// Dangling returns the placeholder offset.
func Dangling() Offset {
	return MustNew(MaxOffset)
}

// FromRaw verifies the raw word of the persisted offset.
func FromRaw(raw uint64) (Offset, error) {
	if raw&tagBit == 0 {
		return Offset{}, errors.Wrapf(ErrUntagged, "raw word %#x", raw)
	}
	if raw&reservedBit != 0 {
		return Offset{}, errors.Wrapf(ErrReservedBit, "raw word %#x", raw)
	}
	return Offset{raw: raw}, nil
}

// FromBytes decodes the persisted offset.
func FromBytes(b []byte) (Offset, error) {
	if len(b) != Size {
		return Offset{}, errors.Errorf("offset requires %d bytes, got %d", Size, len(b))
	}
	return FromRaw(binary.LittleEndian.Uint64(b))
}

// Get returns the offset value.
func (o Offset) Get() uint64 {
	return o.raw >> 1
}

// Raw returns the tagged word.
func (o Offset) Raw() uint64 {
	return o.raw
}

// Valid reports whether o holds an offset, the zero value does not.
func (o Offset) Valid() bool {
	return o.raw&tagBit != 0
}

// Bytes returns the persisted form.
func (o Offset) Bytes() [Size]byte {
	var b [Size]byte
	binary.LittleEndian.PutUint64(b[:], o.raw)
	return b
}

// String returns the offset value as decimal.
func (o Offset) String() string {
	return strconv.FormatUint(o.Get(), 10)
}

// Clean returns the offset itself, it is always persisted.
func (o Offset) Clean() (Offset, bool) {
	return o, true
}

// Dirty never returns a value, offset is always persisted.
func (o Offset) Dirty(pointee.Metadata) (any, bool) {
	return nil, false
}

// TakeDirty never returns a value, offset is always persisted.
func (o Offset) TakeDirty(pointee.Metadata) (any, bool) {
	return nil, false
}

// Dealloc does nothing, a pile offset does not own memory.
func (o Offset) Dealloc(pointee.Metadata) {}

// Duplicate returns the same offset.
func (o Offset) Duplicate() Offset {
	return o
}
