// Package ptr defines the capabilities of persistent pointers and the fat, valid and owning pointers
// built on top of them.
//
// Operations called "unchecked" trust the caller to provide the pointee type and metadata matching the
// ones used when the pointer was created.
package ptr

import (
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
)

var (
	_ Pointer[offset.Offset]    = offset.Offset{}
	_ Pointer[offset.OffsetMut] = offset.OffsetMut{}
	_ Zone[offset.OffsetMut]    = HeapZone{}
)

// Ptr is the capability set required from a pointer representation.
type Ptr interface {
	// Clean returns the persisted offset if the pointer is clean.
	Clean() (offset.Offset, bool)

	// Dirty returns the resident value if the pointer is dirty.
	Dirty(meta pointee.Metadata) (any, bool)

	// TakeDirty moves the resident value out if the pointer is dirty.
	TakeDirty(meta pointee.Metadata) (any, bool)

	// Dealloc releases resources owned by the pointer. It is no-op for clean pointers.
	Dealloc(meta pointee.Metadata)
}

// Pointer is a Ptr able to duplicate itself.
type Pointer[P any] interface {
	Ptr

	// Duplicate returns second handle to the same target. It is not a deep copy.
	Duplicate() P
}

// Zone allocates dirty pointers.
type Zone[P any] interface {
	Alloc(v any, meta pointee.Metadata) P
}

// HeapZone allocates values on the default heap.
type HeapZone struct{}

// Alloc moves value to the heap.
func (HeapZone) Alloc(v any, meta pointee.Metadata) offset.OffsetMut {
	return offset.Alloc(v, meta)
}

// TryGetDirtyUnchecked returns the pointee if p is dirty, otherwise the persisted offset.
func TryGetDirtyUnchecked[T any](p Ptr, meta pointee.Metadata) (*T, offset.Offset, bool) {
	if v, ok := p.Dirty(meta); ok {
		return v.(*T), offset.Offset{}, true
	}
	o, _ := p.Clean()
	return nil, o, false
}

// TryTakeDirtyUnchecked moves the pointee out if p is dirty, otherwise returns the persisted offset.
func TryTakeDirtyUnchecked[T any](p Ptr, meta pointee.Metadata) (T, offset.Offset, bool) {
	if v, ok := p.TakeDirty(meta); ok {
		return *v.(*T), offset.Offset{}, true
	}
	var t T
	o, _ := p.Clean()
	return t, o, false
}

// AllocUnchecked moves v into the zone and returns the fat pointer to it.
func AllocUnchecked[T any, P Pointer[P]](z Zone[P], v T, meta pointee.Metadata) FatPtr[T, P] {
	return FatPtr[T, P]{
		Raw:      z.Alloc(&v, meta),
		Metadata: meta,
	}
}

// CloneUncheckedWith clones the pointer. Dirty pointee is copied by f into a fresh allocation, clean pointer
// shares the persisted bytes.
func CloneUncheckedWith[T any, P Pointer[P]](z Zone[P], p P, meta pointee.Metadata, f func(v *T) T) FatPtr[T, P] {
	if v, _, ok := TryGetDirtyUnchecked[T](p, meta); ok {
		return AllocUnchecked(z, f(v), meta)
	}
	return FatPtr[T, P]{
		Raw:      p.Duplicate(),
		Metadata: meta,
	}
}
