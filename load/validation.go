package load

// Validation drives a ChildValidator and everything it hands out, using an explicit stack.
type Validation struct {
	stack []ChildValidator
	polls int
}

// NewValidation returns validation starting at root.
func NewValidation(root ChildValidator) *Validation {
	v := &Validation{}
	if !IsDone(root) {
		v.stack = append(v.stack, root)
	}
	return v
}

// Poll drives the validation until it completes or fails. On error, including ErrPending, progress made so
// far is retained and Poll may be called again.
func (v *Validation) Poll(pv PtrValidator) (bool, error) {
	for len(v.stack) > 0 {
		top := v.stack[len(v.stack)-1]
		v.polls++
		child, err := top.Poll(pv)
		if err != nil {
			return false, err
		}
		if child != nil {
			v.stack = append(v.stack, child)
			continue
		}
		v.stack[len(v.stack)-1] = nil
		v.stack = v.stack[:len(v.stack)-1]
	}
	return true, nil
}

// Done reports whether the validation completed.
func (v *Validation) Done() bool {
	return len(v.stack) == 0
}

// Depth returns the number of validators on the stack.
func (v *Validation) Depth() int {
	return len(v.stack)
}

// Polls returns the number of polls performed so far.
func (v *Validation) Polls() int {
	return v.polls
}

// Run drives the validation of root to completion.
func Run(root ChildValidator, pv PtrValidator) error {
	_, err := NewValidation(root).Poll(pv)
	return err
}
