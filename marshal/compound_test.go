package marshal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/hoard/blob"
)

type pair struct {
	Flag  bool
	Count uint32
}

func pairCodec() Codec[pair] {
	return Struct(
		Field(Bool(), func(p *pair) *bool { return &p.Flag }),
		Field(NonZeroUint32(), func(p *pair) *uint32 { return &p.Count }),
	)
}

func TestStruct(t *testing.T) {
	requireT := require.New(t)

	c := pairCodec()
	requireT.Equal(5, c.Layout().Size())
	niche, ok := c.Layout().Niche()
	requireT.True(ok)
	requireT.Equal(blob.Niche{Start: 1, End: 5}, niche)

	b := Encode(c, pair{Flag: true, Count: 3})
	requireT.Equal([]byte{1, 3, 0, 0, 0}, b)

	v, err := Decode(c, b)
	requireT.NoError(err)
	requireT.Equal(pair{Flag: true, Count: 3}, v)

	_, err = Decode(c, []byte{2, 3, 0, 0, 0})
	requireT.ErrorIs(err, ErrInvalidBool)

	_, err = Decode(c, []byte{1, 0, 0, 0, 0})
	requireT.ErrorIs(err, ErrZeroValue)
}

func TestOptionLayout(t *testing.T) {
	requireT := require.New(t)

	requireT.Equal(2, Option(Uint8()).Layout().Size())
	requireT.Equal(9, Option(Uint64()).Layout().Size())
	requireT.Equal(4, Option(NonZeroUint32()).Layout().Size())
	requireT.Equal(8, Option(OffsetCodec()).Layout().Size())
	requireT.Equal(8, Option(Pointer[uint8](Uint8())).Layout().Size())
	requireT.Equal(16, Option(Pointer[[]uint8](Slice(Uint8()))).Layout().Size())
	requireT.Equal(5, Option(pairCodec()).Layout().Size())

	requireT.False(Option(Uint8()).Layout().HasNiche())
	requireT.False(Option(NonZeroUint32()).Layout().HasNiche())
}

func TestOptionDiscriminant(t *testing.T) {
	requireT := require.New(t)

	c := Option(Uint8())
	requireT.Equal([]byte{1, 5}, Encode(c, Some[uint8](5)))
	requireT.Equal([]byte{0, 0}, Encode(c, None[uint8]()))

	v, err := Decode(c, []byte{1, 5})
	requireT.NoError(err)
	requireT.Equal(Some[uint8](5), v)

	v, err = Decode(c, []byte{0, 0})
	requireT.NoError(err)
	requireT.False(v.Valid)

	_, err = Decode(c, []byte{2, 0})
	requireT.ErrorIs(err, ErrInvalidDiscriminant)

	_, err = Decode(c, []byte{0, 3})
	requireT.ErrorIs(err, ErrNonZeroPadding)

	_, err = Decode(Option(Bool()), []byte{1, 2})
	requireT.ErrorIs(err, ErrInvalidBool)
}

func TestOptionNiche(t *testing.T) {
	requireT := require.New(t)

	c := Option(NonZeroUint32())
	requireT.Equal([]byte{7, 0, 0, 0}, Encode(c, Some[uint32](7)))
	requireT.Equal([]byte{0, 0, 0, 0}, Encode(c, None[uint32]()))

	v, err := Decode(c, []byte{0, 0, 0, 0})
	requireT.NoError(err)
	requireT.False(v.Valid)

	v, err = Decode(c, []byte{0, 1, 0, 0})
	requireT.NoError(err)
	requireT.Equal(Some[uint32](256), v)

	pc := Option(pairCodec())
	requireT.Equal([]byte{0, 0, 0, 0, 0}, Encode(pc, None[pair]()))

	pv, err := Decode(pc, []byte{1, 0, 0, 0, 0})
	requireT.ErrorIs(err, ErrNonZeroPadding)
	requireT.False(pv.Valid)

	pv, err = Decode(pc, []byte{1, 9, 0, 0, 0})
	requireT.NoError(err)
	requireT.Equal(Some(pair{Flag: true, Count: 9}), pv)
}

func TestBytesAndArray(t *testing.T) {
	requireT := require.New(t)

	b := []byte{1, 2, 3}
	requireT.Equal(b, Encode(Bytes(3), b))
	requireT.Panics(func() {
		Encode(Bytes(2), b)
	})

	v, err := Decode(Bytes(3), b)
	requireT.NoError(err)
	requireT.Equal(b, v)
	b[0] = 9
	requireT.EqualValues(9, v[0])

	ac := Array(Uint16(), 3)
	requireT.Equal(6, ac.Layout().Size())
	enc := Encode(ac, []uint16{1, 2, 0x0300})
	requireT.Equal([]byte{1, 0, 2, 0, 0, 3}, enc)

	av, err := Decode(ac, enc)
	requireT.NoError(err)
	requireT.Equal([]uint16{1, 2, 0x0300}, av)

	bc := Array(Bool(), 2)
	_, err = Decode(bc, []byte{1, 3})
	requireT.ErrorIs(err, ErrInvalidBool)

	nc := Array(NonZeroUint32(), 2)
	niche, ok := nc.Layout().Niche()
	requireT.True(ok)
	requireT.Equal(blob.Niche{Start: 0, End: 4}, niche)
	requireT.Equal(0, Array(Uint8(), 0).Layout().Size())
}
