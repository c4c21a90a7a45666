package blob

// Writer is the sink receiving the bytes of a blob.
//
// Every call consumes the writer and returns the one to continue with. Writers are strict:
// writing more bytes than declared or finishing early is a programming error and panics.
type Writer interface {
	// WriteBytes writes bytes to the blob.
	WriteBytes(src []byte) (Writer, error)

	// WritePadding writes n zero bytes to the blob.
	WritePadding(n int) (Writer, error)

	// Finish finishes writing the blob and returns the writer of the enclosing blob, if any.
	Finish() (Writer, error)
}

// Encoder is a value ready to be written as a blob.
type Encoder interface {
	// Size returns the number of bytes of the blob.
	Size() int

	// EncodeBlob writes the blob to w and returns the result of finishing it.
	EncodeBlob(w Writer) (Writer, error)
}

// Write writes a nested value to w.
//
// The value is given a fresh ValueWriter scoped to its own size, so size checks compose
// structurally.
func Write(w Writer, e Encoder) (Writer, error) {
	return e.EncodeBlob(NewValueWriter(w, e.Size()))
}

// WritePrimitive writes bytes of a primitive value having exactly len(src) bytes.
func WritePrimitive(w Writer, src []byte) (Writer, error) {
	vw, err := NewValueWriter(w, len(src)).WriteBytes(src)
	if err != nil {
		return nil, err
	}
	return vw.Finish()
}

// ValueWriter enforces that exactly the declared number of bytes is written to the inner writer.
type ValueWriter struct {
	inner     Writer
	remaining int
}

// NewValueWriter returns a writer accepting exactly size bytes.
func NewValueWriter(inner Writer, size int) *ValueWriter {
	return &ValueWriter{
		inner:     inner,
		remaining: size,
	}
}

// Remaining returns the number of bytes still to be written.
func (vw *ValueWriter) Remaining() int {
	return vw.remaining
}

// WriteBytes writes bytes to the inner writer.
func (vw *ValueWriter) WriteBytes(src []byte) (Writer, error) {
	if len(src) > vw.remaining {
		panic("overflow")
	}
	inner, err := vw.inner.WriteBytes(src)
	if err != nil {
		return nil, err
	}
	return &ValueWriter{inner: inner, remaining: vw.remaining - len(src)}, nil
}

// WritePadding writes zero bytes to the inner writer.
func (vw *ValueWriter) WritePadding(n int) (Writer, error) {
	if n > vw.remaining {
		panic("overflow")
	}
	inner, err := vw.inner.WritePadding(n)
	if err != nil {
		return nil, err
	}
	return &ValueWriter{inner: inner, remaining: vw.remaining - n}, nil
}

// Finish returns the inner writer. It panics if not all bytes were written.
func (vw *ValueWriter) Finish() (Writer, error) {
	if vw.remaining != 0 {
		panic("not all bytes written")
	}
	return vw.inner, nil
}

// SliceWriter writes to a preallocated byte slice.
//
// The written prefix is split off and the remainder becomes the new writer.
type SliceWriter []byte

// WriteBytes copies src to the beginning of the slice.
func (sw SliceWriter) WriteBytes(src []byte) (Writer, error) {
	if len(sw) < len(src) {
		panic("overflow")
	}
	n := copy(sw, src)
	return sw[n:], nil
}

// WritePadding zeroes the next n bytes.
func (sw SliceWriter) WritePadding(n int) (Writer, error) {
	if len(sw) < n {
		panic("overflow")
	}
	clear(sw[:n])
	return sw[n:], nil
}

// Finish verifies the whole slice has been written.
func (sw SliceWriter) Finish() (Writer, error) {
	if len(sw) != 0 {
		panic("not all bytes written")
	}
	return nil, nil
}

// Buffer is a growable, infallible sink.
type Buffer struct {
	b []byte
}

// NewBuffer returns a buffer appending to b.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

// WriteBytes appends bytes to the buffer.
func (buf *Buffer) WriteBytes(src []byte) (Writer, error) {
	buf.b = append(buf.b, src...)
	return buf, nil
}

// WritePadding appends n zero bytes to the buffer.
func (buf *Buffer) WritePadding(n int) (Writer, error) {
	buf.b = append(buf.b, make([]byte, n)...)
	return buf, nil
}

// Finish returns the buffer itself, there is no size to verify.
func (buf *Buffer) Finish() (Writer, error) {
	return buf, nil
}

// Len returns the number of bytes written so far.
func (buf *Buffer) Len() int {
	return len(buf.b)
}

// Bytes returns the written bytes.
func (buf *Buffer) Bytes() []byte {
	return buf.b
}
