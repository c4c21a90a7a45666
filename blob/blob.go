package blob

import "fmt"

// Blob is an untrusted byte region holding exactly one value's encoding.
type Blob struct {
	b []byte
}

// New wraps the bytes of a blob. It panics if len(b) differs from size.
func New(b []byte, size int) Blob {
	if len(b) != size {
		panic(fmt.Sprintf("blob has %d bytes, expected %d", len(b), size))
	}
	return Blob{b: b}
}

// Bytes returns the raw bytes.
func (b Blob) Bytes() []byte {
	return b.b
}

// Len returns the number of bytes.
func (b Blob) Len() int {
	return len(b.b)
}

// AssumeValid marks the immediate fields of the blob as checked.
func (b Blob) AssumeValid() ValidBlob {
	return ValidBlob(b)
}

// ValidateStruct returns a validator splitting the blob into consecutive fields.
func (b Blob) ValidateStruct() *StructValidator {
	return &StructValidator{rest: b.b, whole: b.b}
}

// ValidBlob is a blob whose immediate (non-pointer) fields have been checked.
type ValidBlob struct {
	b []byte
}

// Bytes returns the raw bytes.
func (vb ValidBlob) Bytes() []byte {
	return vb.b
}

// AssumeFullyValid marks every pointer of the blob as validated.
func (vb ValidBlob) AssumeFullyValid() FullyValidBlob {
	return FullyValidBlob(vb)
}

// FullyValidBlob is a blob whose fields and all transitively referenced values have been validated.
type FullyValidBlob struct {
	b []byte
}

// Bytes returns the raw bytes.
func (fb FullyValidBlob) Bytes() []byte {
	return fb.b
}

// Field returns a fully valid sub-blob. Fields of a fully valid blob are fully valid too.
func (fb FullyValidBlob) Field(offset, size int) FullyValidBlob {
	return FullyValidBlob{b: fb.b[offset : offset+size]}
}

// StructValidator hands out field blobs in declaration order.
type StructValidator struct {
	whole []byte
	rest  []byte
}

// Field returns the blob of the next field having size bytes.
func (sv *StructValidator) Field(size int) Blob {
	if size > len(sv.rest) {
		panic("field exceeds blob")
	}
	b := sv.rest[:size]
	sv.rest = sv.rest[size:]
	return Blob{b: b}
}

// Done returns the validated blob. It panics if fields do not cover the blob exactly.
func (sv *StructValidator) Done() ValidBlob {
	if len(sv.rest) != 0 {
		panic("not all fields validated")
	}
	return ValidBlob{b: sv.whole}
}
