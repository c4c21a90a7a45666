// Package load validates untrusted blobs.
//
// Validation runs in two phases. First, the immediate bytes of a blob are checked by its BlobValidator, which
// returns a ChildValidator describing the pointers still to be followed. Then the ChildValidator is polled
// until done. Polling never recurses into children: a poll hands the child back to the caller, which drives
// it on an explicit stack, so the depth of the graph never turns into depth of the call stack.
package load

import (
	"github.com/pkg/errors"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
)

// ErrPending is returned by PtrValidator when the pointee cannot be resolved yet. Validation state is kept,
// so polling may be repeated later.
var ErrPending = errors.New("pointer validation pending")

// ChildValidator validates the pointers contained in a blob.
type ChildValidator interface {
	// Poll advances the validation. It returns a child which must be driven to completion before Poll is
	// called again, or nil once everything reachable has been validated.
	Poll(pv PtrValidator) (ChildValidator, error)
}

// BlobValidator checks the immediate bytes of values of some type.
type BlobValidator interface {
	// BlobSize returns the number of bytes of the value with the metadata.
	BlobSize(meta pointee.Metadata) int

	// ValidateBlob checks the bytes and returns the validator of the pointers found in the blob.
	ValidateBlob(b blob.Blob, meta pointee.Metadata) (blob.ValidBlob, ChildValidator, error)
}

// Extent is implemented by validators of unsized values whose blobs may be shorter than the number of
// elements they declare, like slices of zero-sized elements. Such a value must still fit in the pile as if
// every element took at least Extent(meta) bytes in total.
type Extent interface {
	Extent(meta pointee.Metadata) uint64
}

// PtrValidator resolves persisted pointers.
//
// Returned validator is nil if there is nothing more to check, e.g. because the target has been already
// validated.
type PtrValidator interface {
	ValidatePtr(o offset.Offset, meta pointee.Metadata, v BlobValidator) (ChildValidator, error)
}

// Done is the trivial validator of blobs having no pointers.
type Done struct{}

// Poll always reports completion.
func (Done) Poll(PtrValidator) (ChildValidator, error) {
	return nil, nil
}

// IsDone reports whether cv has nothing to validate.
func IsDone(cv ChildValidator) bool {
	if cv == nil {
		return true
	}
	_, ok := cv.(Done)
	return ok
}

// Tuple validates children of several fields, one after another.
type Tuple struct {
	children []ChildValidator
	next     int
}

// NewTuple returns validator of the fields. Fields having nothing to validate are skipped.
func NewTuple(children ...ChildValidator) ChildValidator {
	var pending []ChildValidator
	for _, c := range children {
		if !IsDone(c) {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return Done{}
	}
	return &Tuple{children: pending}
}

// Poll advances the current field.
func (t *Tuple) Poll(pv PtrValidator) (ChildValidator, error) {
	for t.next < len(t.children) {
		child, err := t.children[t.next].Poll(pv)
		if err != nil {
			return nil, err
		}
		if child != nil {
			return child, nil
		}
		t.next++
	}
	return nil, nil
}
