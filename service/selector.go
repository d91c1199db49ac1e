package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"plateraffle/models"
)

// randBits is the resolution of the uniform draw: 53 bits matches the
// float64 mantissa, so every representable value in [0, 1) is reachable.
const randBits = 53

// RandSource produces a uniform float64 in [0, 1). Injectable so draw
// fairness is testable with a seeded source; production uses crypto/rand
// because ticket draws are fairness-sensitive.
type RandSource interface {
	Float() (float64, error)
}

type cryptoRandSource struct{}

func (cryptoRandSource) Float() (float64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<randBits))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return float64(n.Int64()) / float64(int64(1)<<randBits), nil
}

type weightedSelector struct {
	source RandSource
}

// NewWinnerSelector creates a selector backed by crypto/rand
func NewWinnerSelector() WinnerSelector {
	return &weightedSelector{source: cryptoRandSource{}}
}

// NewWinnerSelectorWithSource creates a selector with a custom random source
func NewWinnerSelectorWithSource(source RandSource) WinnerSelector {
	return &weightedSelector{source: source}
}

// Select draws one candidate with probability proportional to tickets.
// Candidates are walked in the snapshot's fixed order (tickets descending,
// key ascending); the first whose cumulative sum reaches the target wins.
// If floating-point rounding leaves the target unreached, the last
// candidate wins rather than failing silently.
func (s *weightedSelector) Select(candidates []models.Candidate) (*models.DrawPick, error) {
	pool := make([]models.Candidate, len(candidates))
	copy(pool, candidates)
	models.SortCandidates(pool)

	var total float64
	for _, c := range pool {
		total += c.Tickets
	}
	if len(pool) == 0 || total <= 0 {
		return nil, fmt.Errorf("%w: no tickets in the pool", ErrNoEligibleCandidates)
	}

	f, err := s.source.Float()
	if err != nil {
		return nil, err
	}
	target := f * total

	winner := pool[len(pool)-1]
	var cumulative float64
	for _, c := range pool {
		cumulative += c.Tickets
		if cumulative >= target {
			winner = c
			break
		}
	}

	return &models.DrawPick{
		Key:         winner.Key,
		Tickets:     winner.Tickets,
		Probability: winner.Tickets / total * 100,
	}, nil
}
