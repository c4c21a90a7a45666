package memdev

import (
	"io"

	"github.com/pkg/errors"
)

var _ io.ReadWriteSeeker = &MemDev{}

// MemDev simulates device io operations in memory.
type MemDev struct {
	size   int64
	offset int64
	data   []byte
	syncs  int
}

// New returns new memdev.
func New(size int64) *MemDev {
	return &MemDev{
		size: size,
		data: make([]byte, size),
	}
}

// Seek seeks the position.
func (md *MemDev) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = md.offset + offset
	case io.SeekEnd:
		offset = md.size + offset
	default:
		return 0, errors.Errorf("invalid whence: %d", whence)
	}

	if offset < 0 || offset > md.size {
		return 0, errors.Errorf("invalid offset: %d", offset)
	}

	md.offset = offset
	return offset, nil
}

// Read reads data from the memdev. io.EOF is returned once the end of the device is reached.
func (md *MemDev) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if md.offset == md.size {
		return 0, io.EOF
	}
	n := copy(p, md.data[md.offset:])
	md.offset += int64(n)
	return n, nil
}

// Write writes data to the memdev. Bytes not fitting on the device are dropped and io.ErrShortWrite is
// returned.
func (md *MemDev) Write(p []byte) (int, error) {
	n := copy(md.data[md.offset:], p)
	md.offset += int64(n)
	if n < len(p) {
		return n, errors.WithStack(io.ErrShortWrite)
	}
	return n, nil
}

// Sync counts the syncs, there is nothing to flush.
func (md *MemDev) Sync() error {
	md.syncs++
	return nil
}

// Syncs returns the number of times Sync was called.
func (md *MemDev) Syncs() int {
	return md.syncs
}

// Size returns the byte size of the device.
func (md *MemDev) Size() int64 {
	return md.size
}

// Bytes returns the content of the device.
func (md *MemDev) Bytes() []byte {
	return md.data
}
