package dice

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// seededSource is a deterministic PCG stream.
//
// Invariant: two seededSources built from the same seed produce identical
// sequences for identical call sequences.
type seededSource struct {
	rng *mrand.Rand
}

// NewSeededSource returns a deterministic Source for seed.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return s.rng.IntN(n)
}

// DeriveSeed mixes base and trial with splitmix64 so neighbouring trials get
// statistically independent streams and a trial's stream does not depend on
// which worker runs it.
func DeriveSeed(base uint64, trial int) uint64 {
	z := base + uint64(trial+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// RandomSeed returns a base seed drawn from crypto/rand, used when the
// configuration leaves the seed unset.
//
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func RandomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}
