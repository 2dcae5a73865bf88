// Package dynamics provides the gain-control stages of the master output
// chain: a soft-knee compressor with log2-domain gain calculation and a
// peak limiter built on top of it.
//
// Both processors are mono at the sample level and stereo-linked at the
// block level: ProcessStereo feeds the detector with the louder of the two
// channels and applies the same gain to both, so transients never pull the
// stereo image sideways.
//
// Build with -tags fastmath to replace the log2/exp2 calls in the gain
// computer with polynomial approximations from algo-approx.
package dynamics
