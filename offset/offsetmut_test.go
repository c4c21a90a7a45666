package offset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/hoard/heap"
	"github.com/outofforest/hoard/pointee"
)

func TestDefaultIsDangling(t *testing.T) {
	requireT := require.New(t)

	m := Default()
	requireT.Equal(KindClean, m.Kind())
	o, ok := m.Offset()
	requireT.True(ok)
	requireT.Equal(Dangling(), o)
}

func TestZeroValue(t *testing.T) {
	requireT := require.New(t)

	live := heap.Default.Live()

	var m OffsetMut
	requireT.Equal(KindClean, m.Kind())
	o, err := m.ToOffset()
	requireT.NoError(err)
	requireT.Equal(Dangling(), o)

	_, ok := m.Addr()
	requireT.False(ok)
	_, ok = m.Dirty(pointee.Sized)
	requireT.False(ok)
	_, ok = m.TakeDirty(pointee.Sized)
	requireT.False(ok)

	m.Dealloc(pointee.Sized)
	requireT.Equal(live, heap.Default.Live())
}

func TestCleanKind(t *testing.T) {
	requireT := require.New(t)

	m := FromOffset(MustNew(42))
	requireT.Equal(KindClean, m.Kind())
	requireT.Equal(MustNew(42).Raw(), m.Raw())

	_, ok := m.Addr()
	requireT.False(ok)
	_, ok = m.Dirty(pointee.Sized)
	requireT.False(ok)

	o, err := m.ToOffset()
	requireT.NoError(err)
	requireT.EqualValues(42, o.Get())
	requireT.Equal("offset(42)", m.String())

	live := heap.Default.Live()
	m.Dealloc(pointee.Sized)
	requireT.Equal(live, heap.Default.Live())
}

func TestDirtyKind(t *testing.T) {
	requireT := require.New(t)

	live := heap.Default.Live()

	m := Alloc(uint32(7), pointee.Sized)
	requireT.Equal(KindDirty, m.Kind())
	requireT.Equal(live+1, heap.Default.Live())

	_, ok := m.Offset()
	requireT.False(ok)
	_, err := m.ToOffset()
	requireT.ErrorIs(err, ErrDirty)

	v, ok := m.Dirty(pointee.Sized)
	requireT.True(ok)
	requireT.Equal(uint32(7), v)

	d := m.Duplicate()
	requireT.Equal(m, d)

	m.Dealloc(pointee.Sized)
	requireT.Equal(live, heap.Default.Live())
}

func TestTakeDirty(t *testing.T) {
	requireT := require.New(t)

	live := heap.Default.Live()
	m := Alloc("text", 4)
	v, ok := m.TakeDirty(4)
	requireT.True(ok)
	requireT.Equal("text", v)
	requireT.Equal(live, heap.Default.Live())
}

func TestFromAddrUnaligned(t *testing.T) {
	requireT := require.New(t)

	requireT.Panics(func() { FromAddr(3) })
	requireT.Panics(func() { FromAddr(0) })
	requireT.Equal(KindDirty, FromAddr(4).Kind())
}

func TestKindString(t *testing.T) {
	requireT := require.New(t)

	requireT.Equal("clean", KindClean.String())
	requireT.Equal("dirty", KindDirty.String())
	requireT.Equal("unknown", Kind(9).String())
}
