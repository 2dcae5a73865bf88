package core

// Zero clears buf in place. The render path reuses preallocated scratch
// buffers and zeroes them at the start of every block.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}
