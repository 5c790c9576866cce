package multalign

import "fmt"

// Read selection parameters
const (
	DefaultMinEdgeLength = 10
	DefaultMinCoverage   = 2
	DefaultMaxCoverage   = 0 // no cap
)

// Strong word parameters
const (
	DefaultWordLength      = 8
	DefaultMaxNs           = 1
	DefaultStrongThreshold = 0.8 // float64
)

// Variant support parameters
const (
	DefaultMinRelativeSupport = 0.2 // float64
	DefaultMinAbsoluteSupport = 2   // float64
)

// Params holds the tunables of one engine. They are fixed once the
// pipeline has run for the first time.
type Params struct {
	MinEdgeLength int // edge reads with a shorter overlap are dropped
	MinCoverage   int // depth needed to call anything
	MaxCoverage   int // selection cap, 0 keeps every read

	WordLength      int
	MaxNs           int     // ambiguous columns tolerated inside a strong word
	StrongThreshold float64 // best symbol fraction for a solid column

	MinRelativeSupport float64
	MinAbsoluteSupport float64
}

func DefaultParams() Params {
	return Params{
		MinEdgeLength:      DefaultMinEdgeLength,
		MinCoverage:        DefaultMinCoverage,
		MaxCoverage:        DefaultMaxCoverage,
		WordLength:         DefaultWordLength,
		MaxNs:              DefaultMaxNs,
		StrongThreshold:    DefaultStrongThreshold,
		MinRelativeSupport: DefaultMinRelativeSupport,
		MinAbsoluteSupport: DefaultMinAbsoluteSupport,
	}
}

func (p Params) Validate() error {
	switch {
	case p.MinEdgeLength < 0:
		return fmt.Errorf("%w: negative min edge length %d", ErrInvalidParams, p.MinEdgeLength)
	case p.MinCoverage < 1:
		return fmt.Errorf("%w: min coverage %d < 1", ErrInvalidParams, p.MinCoverage)
	case p.MaxCoverage < 0:
		return fmt.Errorf("%w: negative max coverage %d", ErrInvalidParams, p.MaxCoverage)
	case p.WordLength < 1:
		return fmt.Errorf("%w: word length %d < 1", ErrInvalidParams, p.WordLength)
	case p.MaxNs < 0 || p.MaxNs >= p.WordLength:
		return fmt.Errorf("%w: max Ns %d outside [0,%d)", ErrInvalidParams, p.MaxNs, p.WordLength)
	case p.StrongThreshold <= 0 || p.StrongThreshold > 1:
		return fmt.Errorf("%w: strong threshold %g outside (0,1]", ErrInvalidParams, p.StrongThreshold)
	case p.MinRelativeSupport <= 0 || p.MinRelativeSupport > 1:
		return fmt.Errorf("%w: relative support %g outside (0,1]", ErrInvalidParams, p.MinRelativeSupport)
	case p.MinAbsoluteSupport < 0:
		return fmt.Errorf("%w: negative absolute support %g", ErrInvalidParams, p.MinAbsoluteSupport)
	}
	return nil
}

// selectionCap is the depth past which ReadSelector stops adding reads.
func (p Params) selectionCap() int {
	if p.MaxCoverage == 0 {
		return 0
	}
	if p.MaxCoverage < p.MinCoverage {
		return p.MinCoverage
	}
	return p.MaxCoverage
}
