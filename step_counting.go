package multalign

// Symbol indices of a column tally.
const (
	SymA = iota
	SymC
	SymG
	SymT
	SymN
	SymGap
	NumSymbols
)

var symbols = [NumSymbols]byte{'A', 'C', 'G', 'T', 'N', Gap}

func symbolIndex(b byte) int {
	switch b {
	case 'A':
		return SymA
	case 'C':
		return SymC
	case 'G':
		return SymG
	case 'T':
		return SymT
	case Gap:
		return SymGap
	}
	return SymN
}

// ColumnCount is the weighted symbol tally of one padded column.
type ColumnCount struct {
	Counts [NumSymbols]float64
	Total  float64
	Depth  int
}

func (c *ColumnCount) add(b byte, weight float64) {
	c.Counts[symbolIndex(b)] += weight
	c.Total += weight
	c.Depth++
}

// Best returns the best supported symbol and its weighted fraction.
// An empty column reports 0 and NotCovered.
func (c *ColumnCount) Best() (byte, float64) {
	if c.Total <= 0 {
		return NotCovered, 0
	}
	best := 0
	for i := 1; i < NumSymbols; i++ {
		if c.Counts[i] > c.Counts[best] {
			best = i
		}
	}
	return symbols[best], c.Counts[best] / c.Total
}

// Coverage is the number of reads covering the column.
func (c *ColumnCount) Coverage() int { return c.Depth }

// Known returns the weights of the symbols a read can vote for, N left out.
func (c *ColumnCount) Known() []float64 {
	known := make([]float64, 0, NumSymbols-1)
	for i, w := range c.Counts {
		if i != SymN {
			known = append(known, w)
		}
	}
	return known
}

func (c *ColumnCount) Fraction(b byte) float64 {
	if c.Total <= 0 {
		return 0
	}
	return c.Counts[symbolIndex(b)] / c.Total
}

// countColumns tallies every row of the frame, each read adding its weight
// to the symbol it shows. Uncovered columns are left at zero.
func countColumns(frame *Frame, weights []float64) []ColumnCount {
	counts := make([]ColumnCount, frame.Len())
	for i := range frame.Rows {
		row := &frame.Rows[i]
		w := weights[i]
		for k, b := range row.Seq {
			counts[row.StartCol+k].add(b, w)
		}
	}
	return counts
}
