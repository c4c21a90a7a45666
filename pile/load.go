package pile

import (
	"github.com/pkg/errors"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/marshal"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/ptr"
)

// Validate validates the value at offset o and everything reachable from it.
func Validate[T any](p *Pile, c marshal.Pointee[T], o offset.Offset, meta pointee.Metadata) (blob.FullyValidBlob,
	error,
) {
	if err := c.ValidateMetadata(meta); err != nil {
		return blob.FullyValidBlob{}, errors.WithStack(&DerefError{Pile: p.id, Offset: o, Err: err})
	}
	if err := p.validate(o, meta, c); err != nil {
		return blob.FullyValidBlob{}, errors.WithStack(err)
	}

	b, err := p.blob(o, meta, c)
	if err != nil {
		return blob.FullyValidBlob{}, err
	}
	return b.AssumeValid().AssumeFullyValid(), nil
}

// Load validates and decodes the value at offset o.
func Load[T any](p *Pile, c marshal.Pointee[T], o offset.Offset, meta pointee.Metadata) (T, error) {
	b, err := Validate(p, c, o, meta)
	if err != nil {
		var v T
		return v, err
	}
	return c.Decode(b, meta), nil
}

// Get returns the value owned by the pointer. Dirty value is taken from the heap, clean one is loaded from
// the pile.
func Get[T any](p *Pile, c marshal.Pointee[T], own *ptr.Own[T, offset.OffsetMut]) (T, error) {
	v, o, dirty := own.TryGetDirty()
	if dirty {
		return *v, nil
	}
	return Load(p, c, o, own.Valid().Metadata())
}

// Deref loads the value addressed by the valid pointer.
func Deref[T any](p *Pile, c marshal.Pointee[T], vp ptr.ValidPtr[T, offset.Offset]) (T, error) {
	return Load(p, c, vp.Raw(), vp.Metadata())
}
