package scenario

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalSource produces standard normal variates.
type NormalSource interface {
	Normal() float64
}

// StreamSource hands out an independent NormalSource per path so paths can be
// simulated concurrently without sharing generator state.
type StreamSource interface {
	Stream(path int) NormalSource
}

// SeededSource is a reproducible normal generator backed by PCG.
// It is not safe for concurrent use; use Stream for per-goroutine sources.
type SeededSource struct {
	seed uint64
	dist distuv.Normal
}

// NewSeededSource returns a source whose sequence is fully determined by seed.
func NewSeededSource(seed uint64) *SeededSource {
	s := &SeededSource{seed: seed}
	s.Reset()
	return s
}

// Seed returns the seed the source was created with.
func (s *SeededSource) Seed() uint64 {
	return s.seed
}

// Reset rewinds the source to the start of its sequence.
func (s *SeededSource) Reset() {
	s.dist = standardNormal(rand.NewPCG(s.seed, splitmix(s.seed)))
}

// Normal returns the next variate.
func (s *SeededSource) Normal() float64 {
	return s.dist.Rand()
}

// Stream returns a fresh source for path, derived from the seed and the path index.
// The same seed and path always yield the same sequence.
func (s *SeededSource) Stream(path int) NormalSource {
	src := rand.NewPCG(splitmix(s.seed^uint64(path+1)), splitmix(uint64(path+1)))
	return &normalStream{dist: standardNormal(src)}
}

type normalStream struct {
	dist distuv.Normal
}

func (n *normalStream) Normal() float64 {
	return n.dist.Rand()
}

func standardNormal(src rand.Source) distuv.Normal {
	return distuv.Normal{Mu: 0, Sigma: 1, Src: src}
}

// splitmix scrambles a 64-bit value so that neighbouring seeds start far apart.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// ConstantSource always returns the same value. ConstantSource(0) removes
// all randomness from a simulation.
type ConstantSource float64

// Normal returns the constant.
func (c ConstantSource) Normal() float64 {
	return float64(c)
}

// Stream returns the constant source itself; it carries no state.
func (c ConstantSource) Stream(int) NormalSource {
	return c
}

// ReplaySource returns a fixed sequence of values, cycling when exhausted.
type ReplaySource struct {
	values []float64
	next   int
}

// NewReplaySource copies values into a new replay source.
func NewReplaySource(values ...float64) *ReplaySource {
	v := make([]float64, len(values))
	copy(v, values)
	return &ReplaySource{values: v}
}

// Normal returns the next value, or 0 when the source is empty.
func (r *ReplaySource) Normal() float64 {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.next]
	r.next = (r.next + 1) % len(r.values)
	return v
}
