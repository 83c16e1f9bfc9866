package game

import (
	"math/rand"
)

// Source supplies the sequence of pieces for one play session.
type Source interface {
	Next() Piece
}

// Randomizer names a piece selection scheme.
type Randomizer string

const (
	// RandomizerUniform draws every piece independently and uniformly.
	RandomizerUniform Randomizer = "uniform"
	// RandomizerBag deals all seven kinds in shuffled order before reshuffling.
	RandomizerBag Randomizer = "bag"
)

// NewSource builds a source for the named scheme. Unknown names use uniform.
func NewSource(r Randomizer, seed int64, spawnX int) Source {
	if r == RandomizerBag {
		return NewBagSource(seed, spawnX)
	}
	return NewUniformSource(seed, spawnX)
}

// UniformSource picks each kind with probability 1/7, independent of history.
type UniformSource struct {
	rng    *rand.Rand
	spawnX int
}

// NewUniformSource returns a uniform source seeded with seed. Pieces spawn at (spawnX, 0).
func NewUniformSource(seed int64, spawnX int) *UniformSource {
	return &UniformSource{
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // gameplay randomness
		spawnX: spawnX,
	}
}

// Next returns a fresh piece.
func (s *UniformSource) Next() Piece {
	k := Kinds[s.rng.Intn(len(Kinds))]
	return NewPiece(k, s.spawnX, 0)
}

// BagSource deals pieces from a shuffled bag of all seven kinds.
type BagSource struct {
	rng    *rand.Rand
	spawnX int
	bag    []Kind
}

// NewBagSource returns a bag source seeded with seed.
func NewBagSource(seed int64, spawnX int) *BagSource {
	return &BagSource{
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // gameplay randomness
		spawnX: spawnX,
	}
}

// Next returns the next piece from the bag, refilling it when empty.
func (s *BagSource) Next() Piece {
	if len(s.bag) == 0 {
		s.bag = append(s.bag[:0], Kinds...)
		s.rng.Shuffle(len(s.bag), func(i, j int) {
			s.bag[i], s.bag[j] = s.bag[j], s.bag[i]
		})
	}
	k := s.bag[0]
	s.bag = s.bag[1:]
	return NewPiece(k, s.spawnX, 0)
}
