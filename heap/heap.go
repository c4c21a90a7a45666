package heap

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/outofforest/hoard/pointee"
)

// Addr is the address of a value allocated on the heap. Valid addresses are never zero and always even,
// so they never collide with the tag bit of a persisted offset.
type Addr uint64

// Allocator is the heap backing dirty pointers.
type Allocator interface {
	// Alloc stores the value and returns its address.
	Alloc(v any, meta pointee.Metadata) Addr

	// Get returns the value stored under the address.
	Get(addr Addr, meta pointee.Metadata) any

	// Take returns the value stored under the address and releases the allocation.
	Take(addr Addr, meta pointee.Metadata) any

	// Dealloc releases the allocation. Metadata must be the same as used during allocation.
	Dealloc(addr Addr, meta pointee.Metadata)
}

// Default is the arena used by pointers not bound to any other allocator.
var Default = NewArena()

type slot struct {
	value any
	meta  pointee.Metadata
	used  bool
}

// Option configures an arena.
type Option func(a *Arena)

// WithLogger sets the logger used by the arena.
func WithLogger(log *zap.Logger) Option {
	return func(a *Arena) {
		a.log = log
	}
}

// Arena is an allocator keeping values in a slot table. Slots pin values as GC roots, so addresses
// remain valid until deallocated.
type Arena struct {
	log *zap.Logger

	mu    sync.Mutex
	slots []slot
	free  []int
	live  int
}

// NewArena creates new arena.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		log: zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Alloc stores the value and returns its address.
func (a *Arena) Alloc(v any, meta pointee.Metadata) Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	var index int
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = len(a.slots)
		a.slots = append(a.slots, slot{})
	}

	a.slots[index] = slot{value: v, meta: meta, used: true}
	a.live++

	addr := toAddr(index)
	a.log.Debug("Value allocated", zap.Uint64("addr", uint64(addr)), zap.Uint64("meta", uint64(meta)))
	return addr
}

// Get returns the value stored under the address.
func (a *Arena) Get(addr Addr, meta pointee.Metadata) any {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.slot(addr, meta).value
}

// Take returns the value stored under the address and releases the allocation.
func (a *Arena) Take(addr Addr, meta pointee.Metadata) any {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := a.slot(addr, meta).value
	a.release(addr)
	return v
}

// Dealloc releases the allocation.
func (a *Arena) Dealloc(addr Addr, meta pointee.Metadata) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.slot(addr, meta)
	a.release(addr)
}

// Live returns the number of values currently allocated.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.live
}

func (a *Arena) slot(addr Addr, meta pointee.Metadata) *slot {
	index := fromAddr(addr)
	if index < 0 || index >= len(a.slots) || !a.slots[index].used {
		panic(fmt.Sprintf("address %#x is not allocated", uint64(addr)))
	}
	s := &a.slots[index]
	if s.meta != meta {
		panic(fmt.Sprintf("metadata mismatch for address %#x: allocated with %d, used with %d",
			uint64(addr), s.meta, meta))
	}
	return s
}

func (a *Arena) release(addr Addr) {
	index := fromAddr(addr)
	a.slots[index] = slot{}
	a.free = append(a.free, index)
	a.live--

	a.log.Debug("Value released", zap.Uint64("addr", uint64(addr)))
}

func toAddr(index int) Addr {
	return Addr(uint64(index+1) << 1)
}

func fromAddr(addr Addr) int {
	if addr == 0 || addr&1 != 0 {
		return -1
	}
	return int(addr>>1) - 1
}
