package persistence

import (
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/outofforest/photon"
	"github.com/pkg/errors"

	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pile"
)

// Write stores the dumped pile bytes with the offset of the root value. Data are synced before the header,
// so the previous image stays readable until the new one is complete.
func Write(dev Dev, id uuid.UUID, data []byte, root offset.Offset) error {
	if err := validateDev(dev, uint64(len(data))); err != nil {
		return err
	}

	if _, err := dev.Seek(HeaderSize, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}
	if _, err := dev.Write(data); err != nil {
		return errors.WithStack(err)
	}
	if err := dev.Sync(); err != nil {
		return errors.WithStack(err)
	}

	if err := writeHeader(dev, newHeader(id, data, root)); err != nil {
		return err
	}
	return errors.WithStack(dev.Sync())
}

// Open reads the pile image from the device. It returns the pile and the offset of the root value.
func Open(dev Dev, opts ...pile.Option) (*pile.Pile, offset.Offset, error) {
	h, data, err := read(dev)
	if err != nil {
		return nil, offset.Offset{}, err
	}

	root, err := offset.FromRaw(h.Root)
	if err != nil {
		return nil, offset.Offset{}, errors.Wrap(err, "invalid root offset")
	}

	return pile.New(data, append([]pile.Option{pile.WithID(h.PileID)}, opts...)...), root, nil
}

func read(dev Dev) (*header, []byte, error) {
	h, err := loadHeader(dev)
	if err != nil {
		return nil, nil, err
	}
	if err := validateHeader(h); err != nil {
		return nil, nil, err
	}
	if err := validateDev(dev, h.Length); err != nil {
		return nil, nil, err
	}

	if _, err := dev.Seek(HeaderSize, io.SeekStart); err != nil {
		return nil, nil, errors.WithStack(err)
	}
	data := make([]byte, h.Length)
	if _, err := io.ReadFull(dev, data); err != nil {
		return nil, nil, errors.WithStack(err)
	}
	if err := validateData(h, data); err != nil {
		return nil, nil, err
	}
	return h, data, nil
}

func validateData(h *header, data []byte) error {
	if checksum := xxhash.Sum64(data); checksum != h.Checksum {
		return errors.WithStack(&ChecksumError{Part: "pile", Computed: checksum, Stored: h.Checksum})
	}
	return nil
}

// Export writes the pile image stored on the device to w, compressed with zstd.
func Export(dev Dev, w io.Writer) error {
	h, data, err := read(dev)
	if err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := zw.Write(photon.NewFromValue(h).B); err != nil {
		_ = zw.Close()
		return errors.WithStack(err)
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(zw.Close())
}

// Import reads the image produced by Export and stores it on the device.
func Import(dev Dev, r io.Reader) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return errors.WithStack(err)
	}
	defer zr.Close()

	h := photon.NewFromValue(&header{})
	if _, err := io.ReadFull(zr, h.B); err != nil {
		return errors.WithStack(err)
	}
	if err := validateHeader(h.V); err != nil {
		return err
	}
	if err := validateDev(dev, h.V.Length); err != nil {
		return err
	}

	data := make([]byte, h.V.Length)
	if _, err := io.ReadFull(zr, data); err != nil {
		return errors.WithStack(err)
	}
	if err := validateData(h.V, data); err != nil {
		return err
	}

	root, err := offset.FromRaw(h.V.Root)
	if err != nil {
		return errors.Wrap(err, "invalid root offset")
	}
	return Write(dev, h.V.PileID, data, root)
}
