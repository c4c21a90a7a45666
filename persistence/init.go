package persistence

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/outofforest/photon"
	"github.com/pkg/errors"

	"github.com/outofforest/hoard/offset"
)

const (
	// HeaderSize is the number of bytes reserved for the header at the beginning of the device.
	// Pile bytes follow it.
	HeaderSize = 4096

	// Version is the version of the header format.
	Version = 1

	// hoardSubject defines an identifier used to detect if a pile image exists on the device.
	hoardSubject = 0b0100100001001111010000010101001001000100010100000100100101001100
)

// Dev is the interface required from the device.
type Dev interface {
	io.ReadWriteSeeker
	Sync() error
	Size() int64
}

var (
	// ErrAlreadyInitialized is returned if during initialization, another pile image is detected on the device.
	ErrAlreadyInitialized = errors.New("pile has been already initialized on the provided device")

	// ErrNotInitialized is returned if device does not contain pile image.
	ErrNotInitialized = errors.New("device does not contain pile image")

	// ErrDeviceTooSmall is returned if pile does not fit on the device.
	ErrDeviceTooSmall = errors.New("device is too small")
)

// ChecksumError is returned when the stored checksum does not match the content.
type ChecksumError struct {
	Part     string
	Computed uint64
	Stored   uint64
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for the %s, computed: %#016x, stored: %#016x", e.Part, e.Computed,
		e.Stored)
}

// header is stored at the beginning of the device.
type header struct {
	Subject  uint64
	Version  uint64
	PileID   uuid.UUID
	Root     uint64
	Length   uint64
	Checksum uint64

	// HeaderChecksum must be the last field, it covers all the previous ones.
	HeaderChecksum uint64
}

func (h *header) computeChecksum() uint64 {
	b := photon.NewFromValue(h).B
	return xxhash.Sum64(b[:len(b)-8])
}

func newHeader(id uuid.UUID, data []byte, root offset.Offset) *header {
	h := &header{
		Subject:  hoardSubject,
		Version:  Version,
		PileID:   id,
		Root:     root.Raw(),
		Length:   uint64(len(data)),
		Checksum: xxhash.Sum64(data),
	}
	h.HeaderChecksum = h.computeChecksum()
	return h
}

// Initialize writes an empty pile image to the device.
func Initialize(dev Dev, overwrite bool) error {
	if err := validateDev(dev, 0); err != nil {
		return err
	}

	h, err := loadHeader(dev)
	if err != nil {
		return err
	}
	if h.Subject == hoardSubject && !overwrite {
		return errors.WithStack(ErrAlreadyInitialized)
	}

	if err := writeHeader(dev, newHeader(uuid.New(), nil, offset.Dangling())); err != nil {
		return err
	}
	return errors.WithStack(dev.Sync())
}

func validateDev(dev Dev, length uint64) error {
	size := dev.Size()
	if size < HeaderSize || uint64(size-HeaderSize) < length {
		return errors.Wrapf(ErrDeviceTooSmall, "required: %d bytes, provided: %d", HeaderSize+length, size)
	}
	return nil
}

func loadHeader(dev Dev) (*header, error) {
	if _, err := dev.Seek(0, io.SeekStart); err != nil {
		return nil, errors.WithStack(err)
	}

	h := photon.NewFromValue(&header{})
	if _, err := io.ReadFull(dev, h.B); err != nil {
		return nil, errors.WithStack(err)
	}
	return h.V, nil
}

func writeHeader(dev Dev, h *header) error {
	if _, err := dev.Seek(0, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}
	if _, err := dev.Write(photon.NewFromValue(h).B); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func validateHeader(h *header) error {
	if h.Subject != hoardSubject {
		return errors.WithStack(ErrNotInitialized)
	}
	if h.Version != Version {
		return errors.Errorf("unsupported header version %d", h.Version)
	}
	if checksum := h.computeChecksum(); checksum != h.HeaderChecksum {
		return errors.WithStack(&ChecksumError{Part: "header", Computed: checksum, Stored: h.HeaderChecksum})
	}
	return nil
}
