package marshal

import (
	"github.com/pkg/errors"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/load"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/save"
)

var (
	// ErrInvalidDiscriminant is returned when the discriminant of an option is neither 0 nor 1.
	ErrInvalidDiscriminant = errors.New("invalid discriminant")

	// ErrNonZeroPadding is returned when bytes of an absent value are not zeroed.
	ErrNonZeroPadding = errors.New("padding is not zeroed")
)

// Opt is a value which may be absent.
type Opt[T any] struct {
	V     T
	Valid bool
}

// Some returns present value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{V: v, Valid: true}
}

// None returns absent value.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

type optionCodec[T any] struct {
	sized[Opt[T]]
	inner Codec[T]
	niche blob.Niche
	// packed is set when the absent value is encoded as the zero niche of inner, with no discriminant.
	packed bool
}

// Option returns the codec of optional values.
//
// If inner layout has a niche, absent value is stored as all zero bytes and the option takes no more space
// than the inner value. Otherwise a discriminant byte precedes the inner blob.
func Option[T any](inner Codec[T]) Codec[Opt[T]] {
	c := &optionCodec[T]{inner: inner}
	il := inner.Layout()
	if n, ok := il.Niche(); ok {
		c.niche = n
		c.packed = true
		c.layout = blob.NewLayout(il.Size())
	} else {
		c.layout = blob.NewLayout(1 + il.Size())
	}
	return c
}

func (c *optionCodec[T]) NewSaver(v *Opt[T]) save.Saver {
	size := c.inner.Layout().Size()
	if c.packed {
		if !v.Valid {
			return zeros(size)
		}
		return c.inner.NewSaver(&v.V)
	}

	fs := &fieldsSaver{size: c.layout.Size()}
	if v.Valid {
		fs.fields = []save.Saver{leaf([]byte{1}), c.inner.NewSaver(&v.V)}
	} else {
		fs.fields = []save.Saver{leaf([]byte{0}), zeros(size)}
	}
	return fs
}

func (c *optionCodec[T]) ValidateBlob(b blob.Blob, _ pointee.Metadata) (blob.ValidBlob, load.ChildValidator, error) {
	if c.packed {
		if !c.isNone(b.Bytes()) {
			return c.validateSome(b)
		}
		if !isZero(b.Bytes()) {
			return blob.ValidBlob{}, nil, errors.WithStack(ErrNonZeroPadding)
		}
		return b.AssumeValid(), load.Done{}, nil
	}

	sv := b.ValidateStruct()
	d := sv.Field(1).Bytes()[0]
	payload := sv.Field(c.inner.Layout().Size())
	switch d {
	case 0:
		if !isZero(payload.Bytes()) {
			return blob.ValidBlob{}, nil, errors.WithStack(ErrNonZeroPadding)
		}
		return sv.Done(), load.Done{}, nil
	case 1:
		if !c.inner.Layout().Inhabited() {
			return blob.ValidBlob{}, nil, errors.Wrap(ErrInvalidDiscriminant, "value is uninhabited")
		}
		_, cv, err := c.validateSome(payload)
		if err != nil {
			return blob.ValidBlob{}, nil, err
		}
		return sv.Done(), cv, nil
	default:
		return blob.ValidBlob{}, nil, errors.Wrapf(ErrInvalidDiscriminant, "discriminant %#x", d)
	}
}

func (c *optionCodec[T]) validateSome(b blob.Blob) (blob.ValidBlob, load.ChildValidator, error) {
	vb, cv, err := c.inner.ValidateBlob(b, pointee.Sized)
	if err != nil {
		return blob.ValidBlob{}, nil, errors.Wrap(err, "some")
	}
	return vb, cv, nil
}

func (c *optionCodec[T]) Decode(b blob.FullyValidBlob, _ pointee.Metadata) Opt[T] {
	if c.packed {
		if c.isNone(b.Bytes()) {
			return None[T]()
		}
		return Some(c.inner.Decode(b, pointee.Sized))
	}

	if b.Bytes()[0] == 0 {
		return None[T]()
	}
	return Some(c.inner.Decode(b.Field(1, c.inner.Layout().Size()), pointee.Sized))
}

func (c *optionCodec[T]) isNone(b []byte) bool {
	return isZero(b[c.niche.Start:c.niche.End])
}
