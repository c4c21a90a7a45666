package offset

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/outofforest/hoard/cast"
	"github.com/outofforest/hoard/heap"
	"github.com/outofforest/hoard/pointee"
)

// ErrDirty is returned when a dirty pointer is converted to an offset.
var ErrDirty = errors.New("pointer is dirty")

// Kind tells whether the pointer is persisted or still resident on the heap.
type Kind byte

// Pointer kinds.
const (
	KindClean Kind = iota
	KindDirty
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindClean:
		return "clean"
	case KindDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// OffsetMut is a pointer being either an offset into a pile (clean) or an address of a heap value (dirty).
// The two are distinguished by the low bit of the word: offsets have it set, heap addresses are even.
//
// The zero value holds no address, it behaves like Default.
type OffsetMut struct {
	raw uint64
}

// Default returns clean pointer holding the dangling offset.
func Default() OffsetMut {
	return FromOffset(Dangling())
}

// FromOffset returns clean pointer.
func FromOffset(o Offset) OffsetMut {
	return cast.Cast[OffsetMut](o)
}

// FromAddr returns dirty pointer owning the heap allocation.
func FromAddr(addr heap.Addr) OffsetMut {
	if addr == 0 || addr&tagBit != 0 {
		panic(fmt.Sprintf("heap address %#x is unaligned", uint64(addr)))
	}
	return OffsetMut{raw: uint64(addr)}
}

// Alloc moves the value to the default heap and returns dirty pointer to it.
func Alloc(v any, meta pointee.Metadata) OffsetMut {
	return FromAddr(heap.Default.Alloc(v, meta))
}

// Kind returns the kind of the pointer.
func (m OffsetMut) Kind() Kind {
	if m.raw == 0 || m.raw&tagBit == tagBit {
		return KindClean
	}
	return KindDirty
}

// Offset returns the offset if the pointer is clean.
func (m OffsetMut) Offset() (Offset, bool) {
	o, err := m.ToOffset()
	return o, err == nil
}

// Addr returns the heap address if the pointer is dirty.
func (m OffsetMut) Addr() (heap.Addr, bool) {
	if m.Kind() != KindDirty {
		return 0, false
	}
	return heap.Addr(m.raw), true
}

// ToOffset converts clean pointer to offset.
func (m OffsetMut) ToOffset() (Offset, error) {
	if m.raw == 0 {
		return Dangling(), nil
	}
	return cast.TryCast[Offset](m, func(m *OffsetMut) error {
		if m.Kind() != KindClean {
			return ErrDirty
		}
		return nil
	})
}

// Raw returns the tagged word.
func (m OffsetMut) Raw() uint64 {
	return m.raw
}

// String returns the kind and the offset or address.
func (m OffsetMut) String() string {
	if o, ok := m.Offset(); ok {
		return "offset(" + o.String() + ")"
	}
	return fmt.Sprintf("ptr(%#x)", m.raw)
}

// Clean returns the offset if the pointer is persisted.
func (m OffsetMut) Clean() (Offset, bool) {
	return m.Offset()
}

// Dirty returns the heap value if the pointer is dirty.
func (m OffsetMut) Dirty(meta pointee.Metadata) (any, bool) {
	addr, ok := m.Addr()
	if !ok {
		return nil, false
	}
	return heap.Default.Get(addr, meta), true
}

// TakeDirty moves the value out of the heap if the pointer is dirty.
func (m OffsetMut) TakeDirty(meta pointee.Metadata) (any, bool) {
	addr, ok := m.Addr()
	if !ok {
		return nil, false
	}
	return heap.Default.Take(addr, meta), true
}

// Dealloc frees the heap allocation. Clean pointers do not own memory, so nothing happens for them.
func (m OffsetMut) Dealloc(meta pointee.Metadata) {
	if addr, ok := m.Addr(); ok {
		heap.Default.Dealloc(addr, meta)
	}
}

// Duplicate returns second handle to the same target.
func (m OffsetMut) Duplicate() OffsetMut {
	return OffsetMut{raw: m.raw}
}
