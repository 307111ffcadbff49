package sink

import (
	"bytes"
	"image/png"
	"slices"

	"github.com/matzehuels/chitboxes/pkg/canvas"
)

// gstate is the part of the graphics state that Save/Restore must bring
// back. Backends that cache colours or widths re-apply it after a Restore.
type gstate struct {
	fill   canvas.Color
	stroke canvas.Color
	width  float64
	dash   []float64
}

func defaultState() gstate {
	return gstate{fill: canvas.Black, stroke: canvas.Black, width: 1}
}

type stateStack struct {
	cur   gstate
	saved []gstate
}

func newStateStack() stateStack { return stateStack{cur: defaultState()} }

func (s *stateStack) push() {
	cp := s.cur
	cp.dash = slices.Clone(s.cur.dash)
	s.saved = append(s.saved, cp)
}

// pop restores the last pushed state. It reports false when nothing was
// pushed.
func (s *stateStack) pop() bool {
	n := len(s.saved)
	if n == 0 {
		return false
	}
	s.cur = s.saved[n-1]
	s.saved = s.saved[:n-1]
	return true
}

func (s *stateStack) reset() {
	s.cur = defaultState()
	s.saved = s.saved[:0]
}

// encodedPNG returns img as PNG bytes, reusing a cached encoding when the
// image provides one.
func encodedPNG(img canvas.Image) ([]byte, error) {
	if p, ok := img.(interface{ PNG() ([]byte, error) }); ok {
		return p.PNG()
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
