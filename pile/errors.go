package pile

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/outofforest/hoard/offset"
)

// OffsetError is returned when the value addressed by the offset does not fit in the pile.
type OffsetError struct {
	Pile   uuid.UUID
	Offset offset.Offset
	Size   int
	Len    int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("pile %s: value of %d bytes at offset %s exceeds pile length %d", e.Pile, e.Size, e.Offset,
		e.Len)
}

// DerefError is returned when the value stored at the offset is invalid.
type DerefError struct {
	Pile   uuid.UUID
	Offset offset.Offset
	Err    error
}

func (e *DerefError) Error() string {
	return fmt.Sprintf("pile %s: invalid value at offset %s: %s", e.Pile, e.Offset, e.Err)
}

// Unwrap returns the validation error.
func (e *DerefError) Unwrap() error {
	return e.Err
}
