package geom

import "fmt"

// UnbalancedError is the panic value raised when Restore is called without a
// matching Save.
type UnbalancedError struct {
	Depth int
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("geom: restore without matching save (depth %d)", e.Depth)
}

// Stack holds the current transform and the frames saved above it.
// The zero value is not ready for use; call NewStack.
type Stack struct {
	current Matrix
	saved   []Matrix
}

// NewStack returns a stack whose current transform is base.
func NewStack(base Matrix) *Stack {
	return &Stack{current: base}
}

// Save pushes a copy of the current transform.
func (s *Stack) Save() {
	s.saved = append(s.saved, s.current)
}

// Restore pops the transform pushed by the matching Save. Calling Restore on
// an empty stack is a programming error and panics.
func (s *Stack) Restore() {
	n := len(s.saved)
	if n == 0 {
		panic(&UnbalancedError{Depth: n})
	}
	s.current = s.saved[n-1]
	s.saved = s.saved[:n-1]
}

// Concat right-multiplies the current transform by m, so m acts first on
// local coordinates.
func (s *Stack) Concat(m Matrix) {
	s.current = m.Multiply(s.current)
}

// Translate moves the local origin by (dx, dy).
func (s *Stack) Translate(dx, dy float64) {
	s.Concat(Translate(dx, dy))
}

// Rotate turns the local axes counter-clockwise by degrees.
func (s *Stack) Rotate(degrees float64) {
	s.Concat(Rotate(degrees))
}

// Scale scales the local axes uniformly.
func (s *Stack) Scale(f float64) {
	s.Concat(Scale(f, f))
}

// Current returns the accumulated transform.
func (s *Stack) Current() Matrix {
	return s.current
}

// Depth returns the number of saved frames.
func (s *Stack) Depth() int {
	return len(s.saved)
}
