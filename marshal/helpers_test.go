package marshal

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/load"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/save"
)

var errOutOfBounds = errors.New("out of bounds")

// memPile resolves offsets against dumped bytes.
type memPile []byte

func (m memPile) ValidatePtr(o offset.Offset, meta pointee.Metadata, v load.BlobValidator) (load.ChildValidator, error) {
	start := o.Get()
	size := uint64(v.BlobSize(meta))
	if start > uint64(len(m)) || size > uint64(len(m))-start {
		return nil, errors.Wrapf(errOutOfBounds, "offset %d, size %d", start, size)
	}
	_, cv, err := v.ValidateBlob(blob.New(m[start:start+size], int(size)), meta)
	return cv, err
}

func (m memPile) blob(o offset.Offset, size int) blob.FullyValidBlob {
	start := o.Get()
	return blob.New(m[start:start+uint64(size)], size).AssumeValid().AssumeFullyValid()
}

func dump[T any](t *testing.T, c Codec[T], v T) ([]byte, offset.Offset) {
	b, o, err := save.NewShallowDumper(0).Save(c.NewSaver(&v))
	require.NoError(t, err)
	return b, o
}

func validate(m memPile, v load.BlobValidator, o offset.Offset, meta pointee.Metadata) error {
	cv, err := m.ValidatePtr(o, meta, v)
	if err != nil {
		return err
	}
	return load.Run(cv, m)
}

func loadValue[T any](t *testing.T, m memPile, c Codec[T], o offset.Offset) T {
	require.NoError(t, validate(m, c, o, pointee.Sized))
	return c.Decode(m.blob(o, c.Layout().Size()), pointee.Sized)
}

func loadSlice[T any](t *testing.T, m memPile, c Pointee[[]T], o offset.Offset, meta pointee.Metadata) []T {
	require.NoError(t, validate(m, c, o, meta))
	return c.Decode(m.blob(o, c.BlobSize(meta)), meta)
}
