// Package rating learns directional affinity between pairs of tracks.
//
// Every track owns a Vector mapping other track ids to a rating in [0, 16).
// A pair that was never rated starts from a default derived from shared
// metadata:
//
//	Base (6) + 1 same genre + 1 artist containment + 1 same artist + 1 same album
//
// The default is computed once and cached on both sides of the pair, after
// which the two directions evolve independently. Feedback is damped so that
// ratings approach but never leave the domain:
//
//	t     = f/8 - 1
//	f'    = f + (1 - t²)·delta
//
// delta is clamped to ±MaxDelta, just under 4. Any smaller step keeps the
// result inside (0, 16).
//
// Engine.Update applies delta to one direction and delta/2 to the reverse.
//
// Persisted lines hold one byte per counterpart id, byte = round(rating·16).
// Values that are not multiples of 1/16 are quantized on write.
package rating
