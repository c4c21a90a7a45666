package ptr

import (
	"fmt"

	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
)

// FatPtr is the raw pointer together with the metadata of its pointee.
type FatPtr[T any, P Pointer[P]] struct {
	Raw      P
	Metadata pointee.Metadata
}

// Persisted returns the fat pointer with the persisted form of the raw pointer, if it is clean.
func (f FatPtr[T, P]) Persisted() (FatPtr[T, offset.Offset], bool) {
	o, ok := f.Raw.Clean()
	if !ok {
		return FatPtr[T, offset.Offset]{}, false
	}
	return FatPtr[T, offset.Offset]{Raw: o, Metadata: f.Metadata}, true
}

// String returns the pointer and its metadata.
func (f FatPtr[T, P]) String() string {
	return fmt.Sprintf("%v:%d", f.Raw, f.Metadata)
}

// ValidPtr is the fat pointer whose target is known to be valid.
//
// It owns the claim of validity, not the memory. There is no way to mutate the wrapped pointer.
type ValidPtr[T any, P Pointer[P]] struct {
	fat FatPtr[T, P]
}

// NewValidPtrUnchecked wraps the fat pointer. The caller asserts the target is valid.
func NewValidPtrUnchecked[T any, P Pointer[P]](fat FatPtr[T, P]) ValidPtr[T, P] {
	return ValidPtr[T, P]{fat: fat}
}

// Fat returns the wrapped fat pointer.
func (v ValidPtr[T, P]) Fat() FatPtr[T, P] {
	return v.fat
}

// Raw returns the raw pointer.
func (v ValidPtr[T, P]) Raw() P {
	return v.fat.Raw
}

// Metadata returns the pointee metadata.
func (v ValidPtr[T, P]) Metadata() pointee.Metadata {
	return v.fat.Metadata
}

// IntoInner drops the claim of validity and returns the fat pointer.
func (v ValidPtr[T, P]) IntoInner() FatPtr[T, P] {
	return v.fat
}

// TryGetDirty returns the resident pointee, or the persisted fat pointer if the pointer is clean.
func (v ValidPtr[T, P]) TryGetDirty() (*T, FatPtr[T, offset.Offset], bool) {
	value, o, ok := TryGetDirtyUnchecked[T](v.fat.Raw, v.fat.Metadata)
	if ok {
		return value, FatPtr[T, offset.Offset]{}, true
	}
	return nil, FatPtr[T, offset.Offset]{Raw: o, Metadata: v.fat.Metadata}, false
}

// String returns the pointer and its metadata.
func (v ValidPtr[T, P]) String() string {
	return v.fat.String()
}
