package ptr

import (
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
)

// Own is the owning pointer. Exactly one graph edge owns it, handles are duplicated only explicitly.
type Own[T any, P Pointer[P]] struct {
	valid ValidPtr[T, P]
}

// New allocates the sized value in the zone.
func New[T any, P Pointer[P]](z Zone[P], v T) *Own[T, P] {
	return NewWithMetadata(z, v, pointee.Sized)
}

// NewWithMetadata allocates the value with explicit metadata in the zone.
func NewWithMetadata[T any, P Pointer[P]](z Zone[P], v T, meta pointee.Metadata) *Own[T, P] {
	return NewOwnUnchecked(AllocUnchecked(z, v, meta))
}

// NewOwnUnchecked takes ownership of the fat pointer. The caller asserts the target is valid.
func NewOwnUnchecked[T any, P Pointer[P]](fat FatPtr[T, P]) *Own[T, P] {
	return &Own[T, P]{valid: NewValidPtrUnchecked(fat)}
}

// Valid returns the valid pointer owned.
func (o *Own[T, P]) Valid() ValidPtr[T, P] {
	return o.valid
}

// Kind reports whether the pointee is still resident.
func (o *Own[T, P]) Kind() offset.Kind {
	if _, ok := o.valid.fat.Raw.Clean(); ok {
		return offset.KindClean
	}
	return offset.KindDirty
}

// TryGetDirty returns the resident value, or the persisted offset.
func (o *Own[T, P]) TryGetDirty() (*T, offset.Offset, bool) {
	return TryGetDirtyUnchecked[T](o.valid.fat.Raw, o.valid.fat.Metadata)
}

// TryTakeDirty moves the resident value out, or returns the persisted offset.
// After the value is taken the owner holds the zero pointer, which owns nothing.
func (o *Own[T, P]) TryTakeDirty() (T, offset.Offset, bool) {
	v, off, dirty := TryTakeDirtyUnchecked[T](o.valid.fat.Raw, o.valid.fat.Metadata)
	if dirty {
		var released P
		o.valid.fat.Raw = released
	}
	return v, off, dirty
}

// Clone returns new owner. Resident value is copied by f, persisted one is shared.
func (o *Own[T, P]) Clone(z Zone[P], f func(v *T) T) *Own[T, P] {
	return NewOwnUnchecked(CloneUncheckedWith(z, o.valid.fat.Raw, o.valid.fat.Metadata, f))
}

// Drop releases the resources owned.
func (o *Own[T, P]) Drop() {
	o.valid.fat.Raw.Dealloc(o.valid.fat.Metadata)
}

// String returns the pointer and its metadata.
func (o *Own[T, P]) String() string {
	return o.valid.String()
}

// NewMut allocates the sized value on the default heap.
func NewMut[T any](v T) *Own[T, offset.OffsetMut] {
	return New[T, offset.OffsetMut](HeapZone{}, v)
}
