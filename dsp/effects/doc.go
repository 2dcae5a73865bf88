// Package effects provides the send and master-bus processors of the
// synthesis graph.
//
// Subpackages:
//   - github.com/cwbudde/algo-synth/dsp/effects/dynamics
//
// Effects in this package:
//   - Delay: feedback delay send with smoothed time, feedback, and mix.
//   - Reverb: convolution reverb send over a synthesized impulse response.
//   - DCBlock: first-order DC removal on the master bus.
//   - SoftClip: cubic soft saturation for master-bus headroom.
//   - Ramp: linear per-sample parameter smoothing with a lock-free target.
//
// All processors are designed for real-time use: zero-allocation hot paths
// and both single-sample and block-based processing where it matters.
package effects
