// Package save persists graphs of values into piles.
//
// Saving a value is done in two phases. First, its saver is polled until all its children (values behind
// dirty pointers) are persisted and their offsets are known. Then the blob of the value itself is encoded.
// Children are handed back by Poll instead of being saved recursively, so deep graphs are driven by an
// explicit stack.
package save

import (
	"github.com/outofforest/hoard/blob"
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
	"github.com/outofforest/hoard/ptr"
)

// Saver drives the saving of a single value.
type Saver interface {
	blob.Encoder

	// Poll persists children of the value through d. It returns a child saver which must be driven to
	// completion before Poll is called again, or nil once all the children are persisted.
	// EncodeBlob may be called only after that.
	Poll(d Dumper) (Saver, error)
}

// Dumper assigns offsets to the saved values.
type Dumper interface {
	// TrySavePtr returns the offset of the pointer if its target does not need to be saved.
	TrySavePtr(p ptr.Ptr, meta pointee.Metadata) (offset.Offset, bool)

	// SavePtr writes the blob of the value and returns the offset assigned to it.
	// Children of the value must have been saved before.
	SavePtr(s Saver) (offset.Offset, error)
}

// Leaf is the saver of a value without pointers.
type Leaf struct {
	size   int
	encode func(w blob.Writer) (blob.Writer, error)
}

// NewLeaf returns saver of a value encoded by encode into size bytes.
func NewLeaf(size int, encode func(w blob.Writer) (blob.Writer, error)) *Leaf {
	return &Leaf{size: size, encode: encode}
}

// Size returns the size of the blob.
func (l *Leaf) Size() int {
	return l.size
}

// Poll does nothing, leaf has no children.
func (l *Leaf) Poll(Dumper) (Saver, error) {
	return nil, nil
}

// EncodeBlob writes the value.
func (l *Leaf) EncodeBlob(w blob.Writer) (blob.Writer, error) {
	return l.encode(w)
}

// Drive polls s and everything it hands out until s has all its children persisted.
func Drive(s Saver, d Dumper) error {
	stack := []Saver{s}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		child, err := top.Poll(d)
		if err != nil {
			return err
		}
		if child != nil {
			stack = append(stack, child)
			continue
		}
		stack[len(stack)-1] = nil
		stack = stack[:len(stack)-1]
	}
	return nil
}
