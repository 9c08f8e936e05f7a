package game

// Sequence is a deterministic pseudo-random float stream (Mulberry32).
//
// All arithmetic is on uint32 with wraparound, so any implementation of the
// same algorithm produces the identical stream for the same seed. A Sequence
// is not safe for concurrent use; each caller owns its own instance.
type Sequence struct {
	state uint32
}

// NewSequence creates a sequence from a 32-bit signed seed.
func NewSequence(seed int32) *Sequence {
	return &Sequence{state: uint32(seed)}
}

// Next advances the state and returns a float64 in [0, 1).
func (s *Sequence) Next() float64 {
	s.state += 0x6d2b79f5
	t := (s.state ^ (s.state >> 15)) * (s.state | 1)
	t = (t + (t^(t>>7))*(t|61)) ^ t
	return float64(t^(t>>14)) / 4294967296.0
}

// Range returns a float64 in [lo, hi) drawn from the next value.
func (s *Sequence) Range(lo, hi float64) float64 {
	return lo + float64(s.Next()*(hi-lo))
}

// SubSeed derives the per-level seed: the low 32 bits of seed + level*stride.
func SubSeed(seed int32, level int, stride int32) int32 {
	return int32(uint32(int64(seed) + int64(level)*int64(stride)))
}
