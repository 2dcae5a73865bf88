package engine

import "github.com/gopxl/beep"

// streamer adapts RenderBlock to the beep.Streamer pull model. beep asks
// for arbitrary sample counts, so the adapter renders whole blocks into an
// internal buffer and hands out slices of it.
type streamer struct {
	e *Engine

	left  []float64
	right []float64
	pos   int
}

// Streamer returns the engine as a beep.Streamer suitable for
// speaker.Play. The engine is an infinite source: Stream always fills the
// requested samples and never errors. The returned streamer drives
// RenderBlock, so it must be the only render-thread client of this engine.
func (e *Engine) Streamer() beep.Streamer {
	return &streamer{
		e:     e,
		left:  make([]float64, e.blockSize),
		right: make([]float64, e.blockSize),
		pos:   e.blockSize,
	}
}

func (s *streamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if s.pos >= len(s.left) {
			s.e.RenderBlock(s.left, s.right)
			s.pos = 0
		}

		samples[i][0] = s.left[s.pos]
		samples[i][1] = s.right[s.pos]
		s.pos++
	}

	return len(samples), true
}

func (s *streamer) Err() error { return nil }
