package persistence

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/hoard/marshal"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pile"
	"github.com/outofforest/hoard/pkg/filedev"
	"github.com/outofforest/hoard/pkg/memdev"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/ptr"
	"github.com/outofforest/hoard/save"
)

type entry struct {
	Key   uint64
	Value *ptr.Own[[]byte, offset.OffsetMut]
}

func entryCodec() marshal.Codec[entry] {
	return marshal.Struct(
		marshal.Field(marshal.Uint64(), func(e *entry) *uint64 { return &e.Key }),
		marshal.Field(marshal.Pointer[[]byte](marshal.Slice(marshal.Uint8())),
			func(e *entry) **ptr.Own[[]byte, offset.OffsetMut] { return &e.Value }),
	)
}

func dumpEntry(t *testing.T, key uint64, value string) ([]byte, offset.Offset) {
	v := []byte(value)
	e := entry{
		Key:   key,
		Value: ptr.NewWithMetadata[[]byte, offset.OffsetMut](ptr.HeapZone{}, v, pointee.Metadata(len(v))),
	}
	data, root, err := save.NewShallowDumper(0).Save(entryCodec().NewSaver(&e))
	require.NoError(t, err)
	return data, root
}

func requireEntry(t *testing.T, dev Dev, id uuid.UUID, key uint64, value string) {
	requireT := require.New(t)

	p, root, err := Open(dev)
	requireT.NoError(err)
	requireT.Equal(id, p.ID())

	e, err := pile.Load[entry](p, entryCodec(), root, pointee.Sized)
	requireT.NoError(err)
	requireT.Equal(key, e.Key)

	v, err := pile.Get(p, marshal.Slice(marshal.Uint8()), e.Value)
	requireT.NoError(err)
	requireT.Equal(value, string(v))
}

func TestWriteOpen(t *testing.T) {
	requireT := require.New(t)

	dev := memdev.New(devSize)
	requireT.NoError(Initialize(dev, false))

	id := uuid.New()
	data, root := dumpEntry(t, 7, "hoard")
	requireT.NoError(Write(dev, id, data, root))
	requireEntry(t, dev, id, 7, "hoard")
}

func TestWriteTooLarge(t *testing.T) {
	requireT := require.New(t)

	dev := memdev.New(HeaderSize + 10)
	requireT.NoError(Initialize(dev, false))

	data, root := dumpEntry(t, 1, "too long to fit")
	requireT.ErrorIs(Write(dev, uuid.New(), data, root), ErrDeviceTooSmall)
}

func TestCorruptedData(t *testing.T) {
	requireT := require.New(t)

	dev := memdev.New(devSize)
	data, root := dumpEntry(t, 7, "hoard")
	requireT.NoError(Write(dev, uuid.New(), data, root))

	dev.Bytes()[HeaderSize] ^= 0xff

	_, _, err := Open(dev)
	var checksumErr *ChecksumError
	requireT.ErrorAs(err, &checksumErr)
	requireT.Equal("pile", checksumErr.Part)
}

func TestExportImport(t *testing.T) {
	requireT := require.New(t)

	src := memdev.New(devSize)
	id := uuid.New()
	data, root := dumpEntry(t, 3, "snapshot")
	requireT.NoError(Write(src, id, data, root))

	buf := &bytes.Buffer{}
	requireT.NoError(Export(src, buf))

	dst := memdev.New(devSize)
	requireT.NoError(Import(dst, bytes.NewReader(buf.Bytes())))
	requireEntry(t, dst, id, 3, "snapshot")

	requireT.Error(Import(memdev.New(devSize), bytes.NewReader([]byte("not zstd"))))
	requireT.ErrorIs(Import(memdev.New(HeaderSize), bytes.NewReader(buf.Bytes())), ErrDeviceTooSmall)
}

func TestFileDev(t *testing.T) {
	requireT := require.New(t)

	dev, err := filedev.Create(filepath.Join(t.TempDir(), "pile"), devSize)
	requireT.NoError(err)
	t.Cleanup(func() {
		_ = dev.Close()
	})

	requireT.NoError(Initialize(dev, false))

	id := uuid.New()
	data, root := dumpEntry(t, 11, "file")
	requireT.NoError(Write(dev, id, data, root))
	requireEntry(t, dev, id, 11, "file")
}
