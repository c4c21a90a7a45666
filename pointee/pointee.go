// Package pointee defines the metadata carried by fat pointers.
package pointee

// Metadata is the information required, next to the address, to reconstruct a pointee.
// It is the length for slices and zero for sized values.
type Metadata uint64

// Sized is the metadata of every sized value.
const Sized Metadata = 0
