// Package cast reinterprets values between types sharing the same memory layout.
//
// Types passed here must have identical size and alignment, and pointers (if any) must sit at the same
// positions in both types. A mismatch in size or alignment is a programming error and panics.
package cast

import (
	"fmt"
	"unsafe"

	"github.com/outofforest/photon"
	"github.com/pkg/errors"
)

// ErrCast is returned when the value does not satisfy the requirements of the target type.
var ErrCast = errors.New("value cannot be cast")

// Check verifies that the bit pattern of src is a valid value of the target type.
type Check[S any] func(src *S) error

// TryCast reinterprets src as T after verifying it with check.
//
// Ownership of anything src referenced moves to the result.
func TryCast[T, S any](src S, check Check[S]) (T, error) {
	r, err := TryCastRef[T](&src, check)
	if err != nil {
		var t T
		return t, err
	}
	return *r, nil
}

// TryCastRef reinterprets the memory pointed by src as T after verifying it with check.
func TryCastRef[T, S any](src *S, check Check[S]) (*T, error) {
	assertLayout[T, S]()

	if check != nil {
		if err := check(src); err != nil {
			return nil, errors.Wrapf(ErrCast, "%T to %T: %s", *src, *new(T), err)
		}
	}
	return photon.NewFromBytes[T](photon.NewFromValue(src).B).V, nil
}

// Cast reinterprets src as T. It is the infallible form of TryCast.
func Cast[T, S any](src S) T {
	r, err := TryCast[T, S](src, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// CastRef reinterprets the memory pointed by src as T. It is the infallible form of TryCastRef.
func CastRef[T, S any](src *S) *T {
	r, err := TryCastRef[T, S](src, nil)
	if err != nil {
		panic(err)
	}
	return r
}

func assertLayout[T, S any]() {
	var t T
	var s S
	if unsafe.Sizeof(t) != unsafe.Sizeof(s) {
		panic(fmt.Sprintf("size mismatch: %T has %d bytes, %T has %d", s, unsafe.Sizeof(s), t, unsafe.Sizeof(t)))
	}
	if unsafe.Alignof(t) != unsafe.Alignof(s) {
		panic(fmt.Sprintf("alignment mismatch: %T aligns to %d, %T to %d", s, unsafe.Alignof(s), t, unsafe.Alignof(t)))
	}
}
