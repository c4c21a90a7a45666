package save

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/ptr"
)

// ErrCapacityExceeded is returned by bounded dumper when saved value does not fit.
var ErrCapacityExceeded = errors.New("dumper capacity exceeded")

// Option configures the dumper.
type Option func(d *ShallowDumper)

// WithLogger sets the logger used by the dumper.
func WithLogger(log *zap.Logger) Option {
	return func(d *ShallowDumper) {
		d.log = log
	}
}

// WithCapacity limits the number of bytes the dumper may write.
func WithCapacity(capacity int) Option {
	return func(d *ShallowDumper) {
		d.capacity = capacity
	}
}

// ShallowDumper saves values into a growable buffer, placed at initialOffset in the pile.
//
// Values are saved as they are met, there is no deduplication: two pointers to equal values get two copies.
// Pointers which are already clean are kept as they are.
type ShallowDumper struct {
	log           *zap.Logger
	buf           *blob.Buffer
	initialOffset uint64
	capacity      int
	saved         int
}

// NewShallowDumper creates new dumper.
func NewShallowDumper(initialOffset uint64, opts ...Option) *ShallowDumper {
	d := &ShallowDumper{
		log:           zap.NewNop(),
		buf:           blob.NewBuffer(nil),
		initialOffset: initialOffset,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// TrySavePtr returns the offset of clean pointer.
func (d *ShallowDumper) TrySavePtr(p ptr.Ptr, _ pointee.Metadata) (offset.Offset, bool) {
	return p.Clean()
}

// SavePtr appends the blob of the value to the buffer.
func (d *ShallowDumper) SavePtr(s Saver) (offset.Offset, error) {
	size := s.Size()
	if d.capacity > 0 && d.buf.Len()+size > d.capacity {
		return offset.Offset{}, errors.Wrapf(ErrCapacityExceeded, "writing %d bytes at %d, capacity: %d",
			size, d.buf.Len(), d.capacity)
	}

	o, ok := offset.New(d.initialOffset + uint64(d.buf.Len()))
	if !ok || d.initialOffset+uint64(d.buf.Len()) < d.initialOffset {
		panic("overflow")
	}

	if _, err := blob.Write(d.buf, s); err != nil {
		return offset.Offset{}, err
	}
	d.saved++

	d.log.Debug("Value saved", zap.Stringer("offset", o), zap.Int("size", size))
	return o, nil
}

// Save saves the value together with all its dirty children. It returns all the bytes written so far and
// the offset of the value.
func (d *ShallowDumper) Save(s Saver) ([]byte, offset.Offset, error) {
	if err := Drive(s, d); err != nil {
		return nil, offset.Offset{}, err
	}
	o, err := d.SavePtr(s)
	if err != nil {
		return nil, offset.Offset{}, err
	}
	return d.buf.Bytes(), o, nil
}

// Bytes returns the bytes written so far.
func (d *ShallowDumper) Bytes() []byte {
	return d.buf.Bytes()
}

// Saved returns the number of blobs written.
func (d *ShallowDumper) Saved() int {
	return d.saved
}
