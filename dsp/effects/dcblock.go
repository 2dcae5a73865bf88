package effects

// dcBlockPole is the feedback coefficient of the DC-blocking high-pass.
const dcBlockPole = 0.995

// DCBlock removes constant bias with the one-pole high-pass
// y = x - x1 + 0.995*y1. The render processor runs one instance per output
// channel.
type DCBlock struct {
	prevIn  float64
	prevOut float64
}

// NewDCBlock returns a zeroed DC blocker.
func NewDCBlock() *DCBlock { return &DCBlock{} }

// ProcessSample filters one sample.
func (b *DCBlock) ProcessSample(x float64) float64 {
	y := x - b.prevIn + dcBlockPole*b.prevOut
	b.prevIn = x
	b.prevOut = y

	return y
}

// ProcessInPlace filters buf in place.
func (b *DCBlock) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = b.ProcessSample(x)
	}
}

// Reset clears filter state.
func (b *DCBlock) Reset() {
	b.prevIn, b.prevOut = 0, 0
}
