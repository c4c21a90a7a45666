package load

import (
	"github.com/outofforest/hoard/offset"
	"github.com/outofforest/hoard/pointee"
)

// Step is the stage of pointer validation.
type Step byte

// Validation steps. They are passed in this order only.
const (
	StepFatPtr Step = iota
	StepValue
	StepDone
)

// String returns the name of the step.
func (s Step) String() string {
	switch s {
	case StepFatPtr:
		return "fatptr"
	case StepValue:
		return "value"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// ValidateState is the validation progress of a single pointer.
type ValidateState struct {
	step    Step
	offset  offset.Offset
	meta    pointee.Metadata
	pointee BlobValidator
	child   ChildValidator
}

// NewValidateState returns the state of the persisted pointer to be resolved.
func NewValidateState(o offset.Offset, meta pointee.Metadata, v BlobValidator) *ValidateState {
	return &ValidateState{
		step:    StepFatPtr,
		offset:  o,
		meta:    meta,
		pointee: v,
	}
}

// NewDoneState returns the state of a pointer needing no validation.
//
// Byte validation only meets clean pointers, dirty ones never leave the heap. The state is the starting point
// of validators composed in code, like tuples padded with pointers already known to be valid.
func NewDoneState() *ValidateState {
	return &ValidateState{step: StepDone}
}

// Step returns the current step.
func (s *ValidateState) Step() Step {
	return s.step
}

// Poll advances the state. Polling done state is no-op.
func (s *ValidateState) Poll(pv PtrValidator) (ChildValidator, error) {
	for {
		switch s.step {
		case StepFatPtr:
			child, err := pv.ValidatePtr(s.offset, s.meta, s.pointee)
			if err != nil {
				return nil, err
			}
			if IsDone(child) {
				s.step = StepDone
				continue
			}
			s.child = child
			s.step = StepValue
			return child, nil
		case StepValue:
			// Poll is called again only after the child has been driven to completion.
			s.child = nil
			s.step = StepDone
		default:
			return nil, nil
		}
	}
}
