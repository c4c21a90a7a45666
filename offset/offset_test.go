package offset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/hoard/pointee"
)

func TestRoundTrip(t *testing.T) {
	assertT := assert.New(t)

	for _, x := range []uint64{0, 1, 2, 3, 255, 1 << 32, 1<<40 + 7, MaxOffset - 1, MaxOffset} {
		o, ok := New(x)
		assertT.True(ok)
		assertT.Equal(x, o.Get())
		assertT.EqualValues(1, o.Raw()&1)
		assertT.Zero(o.Raw() >> 63)
	}
}

func TestOverflow(t *testing.T) {
	assertT := assert.New(t)

	_, ok := New(MaxOffset + 1)
	assertT.False(ok)
	_, ok = New(^uint64(0))
	assertT.False(ok)
	assertT.Panics(func() { MustNew(MaxOffset + 1) })
}

func TestDangling(t *testing.T) {
	assert.EqualValues(t, MaxOffset, Dangling().Get())
}

func TestBytes(t *testing.T) {
	requireT := require.New(t)

	o := MustNew(1)
	requireT.Equal([Size]byte{3, 0, 0, 0, 0, 0, 0, 0}, o.Bytes())

	b := MustNew(0x0102).Bytes()
	requireT.Equal([Size]byte{0x05, 0x02, 0, 0, 0, 0, 0, 0}, b)

	decoded, err := FromBytes(b[:])
	requireT.NoError(err)
	requireT.EqualValues(0x0102, decoded.Get())
}

func TestFromRaw(t *testing.T) {
	requireT := require.New(t)

	_, err := FromRaw(2)
	requireT.ErrorIs(err, ErrUntagged)

	_, err = FromRaw(1<<63 | 1)
	requireT.ErrorIs(err, ErrReservedBit)

	o, err := FromRaw(9)
	requireT.NoError(err)
	requireT.EqualValues(4, o.Get())

	_, err = FromBytes([]byte{1, 0, 0})
	requireT.Error(err)
}

func TestValid(t *testing.T) {
	assertT := assert.New(t)

	assertT.False(Offset{}.Valid())
	assertT.True(MustNew(0).Valid())
}

func TestOffsetIsAlwaysClean(t *testing.T) {
	assertT := assert.New(t)

	o := MustNew(12)
	clean, ok := o.Clean()
	assertT.True(ok)
	assertT.Equal(o, clean)

	_, ok = o.Dirty(pointee.Sized)
	assertT.False(ok)
	_, ok = o.TakeDirty(pointee.Sized)
	assertT.False(ok)

	o.Dealloc(pointee.Sized)
	assertT.Equal(o, o.Duplicate())
	assertT.Equal("12", o.String())
}
