package multalign

import (
	"bytes"
	"sort"
	"strings"
)

type ColumnStatus uint8

const (
	Ambiguous ColumnStatus = iota
	Confirmed
	Variant
)

func (s ColumnStatus) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Variant:
		return "variant"
	}
	return "ambiguous"
}

// Alleles maps each observed sequence (gaps removed, "" for no bases) to
// its weighted read support.
type Alleles map[string]float64

// Variation is a polymorphic stretch of the padded alignment.
type Variation struct {
	Range         Range // empty for pure insertions, placed before Range.Start
	StartCol      int
	EndCol        int
	Alleles       Alleles
	TotalCross    float64 // weight of reads spanning the stretch
	AcceptedCross float64 // weight of reads on the dominant allele
}

// Word is a span of padded columns.
type Word struct {
	Start int
	End   int
}

type ScanResult struct {
	Status     []ColumnStatus
	Consensus  []byte // padded consensus, N where unresolved
	Segments   []Word // merged strong words
	Variations []Variation
	Confirmed  []Range
}

type columnClass uint8

const (
	classBad columnClass = iota
	classAmbiguous
	classSolid
)

type decision uint8

const (
	decideAmbiguous decision = iota
	decideAccept
	decideVariant
)

type scanner struct {
	params  Params
	frame   *Frame
	counts  []ColumnCount
	weights []float64
	class   []columnClass
	result  *ScanResult
}

func newScanner(frame *Frame, counts []ColumnCount, weights []float64, params Params) *scanner {
	s := &scanner{
		params:  params,
		frame:   frame,
		counts:  counts,
		weights: weights,
		class:   make([]columnClass, len(counts)),
		result: &ScanResult{
			Status:    make([]ColumnStatus, len(counts)),
			Consensus: make([]byte, len(counts)),
		},
	}
	s.classify()
	return s
}

// decide applies the support thresholds to a set of allele weights. N
// never comes in as an allele but its weight stays in total.
func (s *scanner) decide(weights []float64, total float64, depth int) decision {
	if depth < s.params.MinCoverage || total <= 0 {
		return decideAmbiguous
	}
	best, qualifying := 0.0, 0
	for _, w := range weights {
		if w > best {
			best = w
		}
		if w > 0 && w/total >= s.params.MinRelativeSupport {
			qualifying++
		}
	}
	if best < s.params.MinAbsoluteSupport || best/total < s.params.MinRelativeSupport {
		return decideAmbiguous
	}
	if qualifying >= 2 {
		return decideVariant
	}
	return decideAccept
}

// classify runs the per column pass. Columns already showing two supported
// symbols are called variant here and can never anchor a strong word.
func (s *scanner) classify() {
	for col := range s.counts {
		c := &s.counts[col]
		best, frac := c.Best()
		switch {
		case c.Coverage() < s.params.MinCoverage, best == Gap:
			s.class[col] = classBad
		case s.decide(c.Known(), c.Total, c.Depth) == decideVariant:
			s.class[col] = classBad
		case best == 'N', frac < s.params.StrongThreshold:
			s.class[col] = classAmbiguous
		default:
			s.class[col] = classSolid
		}
	}
}

// findNextStrongWord returns the start of the first strong word at or after
// cursor. A window holding a bad column is skipped past that column.
func (s *scanner) findNextStrongWord(cursor int) (int, bool) {
	w := s.params.WordLength
	for cursor+w <= len(s.class) {
		ambiguous, bad := 0, -1
		for col := cursor; col < cursor+w; col++ {
			if s.class[col] == classBad {
				bad = col
				break
			}
			if s.class[col] == classAmbiguous {
				ambiguous++
			}
		}
		switch {
		case bad >= 0:
			cursor = bad + 1
		case ambiguous > s.params.MaxNs:
			cursor++
		default:
			return cursor, true
		}
	}
	return len(s.class), false
}

// strongWords lists every strong word, overlapping ones included.
func (s *scanner) strongWords() []Word {
	var words []Word
	for cursor := 0; ; {
		start, ok := s.findNextStrongWord(cursor)
		if !ok {
			return words
		}
		words = append(words, Word{Start: start, End: start + s.params.WordLength})
		cursor = start + 1
	}
}

func mergeWords(words []Word) []Word {
	var segments []Word
	for _, w := range words {
		if n := len(segments); n > 0 && w.Start <= segments[n-1].End {
			if w.End > segments[n-1].End {
				segments[n-1].End = w.End
			}
			continue
		}
		segments = append(segments, w)
	}
	return segments
}

func (s *scanner) scan() *ScanResult {
	n := len(s.counts)
	for col := 0; col < n; col++ {
		s.result.Consensus[col] = s.unresolved(col)
	}

	segments := mergeWords(s.strongWords())
	s.result.Segments = segments
	for _, seg := range segments {
		for col := seg.Start; col < seg.End; col++ {
			if s.class[col] == classSolid {
				best, _ := s.counts[col].Best()
				s.confirm(col, best)
			}
		}
	}
	for _, seg := range segments {
		for col := seg.Start; col < seg.End; col++ {
			if s.class[col] != classSolid {
				s.resolveColumns(col, col+1)
			}
		}
	}

	if len(segments) == 0 {
		s.resolveColumns(0, n)
	} else {
		s.resolveColumns(0, segments[0].Start)
		for i := 1; i < len(segments); i++ {
			s.resolveBetween(segments[i-1], segments[i])
		}
		s.resolveColumns(segments[len(segments)-1].End, n)
	}

	s.mergeVariations()
	s.result.Confirmed = s.confirmedRanges()
	return s.result
}

func (s *scanner) unresolved(col int) byte {
	best, _ := s.counts[col].Best()
	if best == Gap || (best == NotCovered && s.frame.Reference[col] == Gap) {
		return Gap
	}
	return 'N'
}

func (s *scanner) confirm(col int, sym byte) {
	s.result.Consensus[col] = sym
	if sym == 'N' {
		s.result.Status[col] = Ambiguous
		return
	}
	s.result.Status[col] = Confirmed
}

// resolveColumns decides each column on its own tally, then joins runs of
// variant columns into one variation over the reads spanning the run.
func (s *scanner) resolveColumns(start, end int) {
	for col := start; col < end; col++ {
		c := &s.counts[col]
		switch s.decide(c.Known(), c.Total, c.Depth) {
		case decideAccept:
			best, _ := c.Best()
			s.confirm(col, best)
		case decideVariant:
			s.result.Status[col] = Variant
		}
	}
	for col := start; col < end; {
		if s.result.Status[col] != Variant {
			col++
			continue
		}
		runEnd := col
		for runEnd < end && s.result.Status[runEnd] == Variant {
			runEnd++
		}
		t := s.tally(col, runEnd, s.rowsCovering(col, runEnd))
		if s.decide(t.weights(), t.total, t.depth) == decideVariant {
			s.result.Variations = append(s.result.Variations, s.variantAt(col, runEnd, t))
		} else {
			for k := col; k < runEnd; k++ {
				s.result.Status[k] = Ambiguous
			}
		}
		col = runEnd
	}
}

// resolveBetween settles the gap between two strong segments from the reads
// crossing it with both flanks matching the consensus.
func (s *scanner) resolveBetween(left, right Word) {
	start, end := left.End, right.Start
	if start >= end {
		return
	}
	t := s.seqCountsBetween(left, right)
	if t.depth == 0 {
		s.resolveColumns(start, end)
		return
	}
	switch s.decide(t.weights(), t.total, t.depth) {
	case decideAccept:
		layout := t.layout(t.dominant())
		for k := range layout {
			s.confirm(start+k, layout[k])
		}
	case decideVariant:
		s.trimVariant(start, end, t)
	}
}

func (s *scanner) seqCountsBetween(left, right Word) *tally {
	w := s.params.WordLength
	flankStart, flankEnd := left.End-w, right.Start+w
	var rows []int
	for i := range s.frame.Rows {
		row := &s.frame.Rows[i]
		if !row.Covers(flankStart, flankEnd) {
			continue
		}
		if s.flankMatches(row, flankStart, left.End) && s.flankMatches(row, right.Start, flankEnd) {
			rows = append(rows, i)
		}
	}
	return s.tally(left.End, right.Start, rows)
}

func (s *scanner) flankMatches(row *Row, start, end int) bool {
	for col := start; col < end; col++ {
		if s.class[col] != classSolid {
			continue
		}
		if b := row.At(col); b != 'N' && b != s.result.Consensus[col] {
			return false
		}
	}
	return true
}

// trimVariant confirms the outer columns all crossing reads agree on and
// reports the rest as a variation.
func (s *scanner) trimVariant(start, end int, t *tally) {
	agreed := func(col int) (byte, bool) {
		sym := s.frame.Rows[t.rows[0]].At(col)
		for _, i := range t.rows[1:] {
			if s.frame.Rows[i].At(col) != sym {
				return 0, false
			}
		}
		return sym, true
	}
	lo, hi := start, end
	for lo < hi {
		sym, ok := agreed(lo)
		if !ok {
			break
		}
		s.confirm(lo, sym)
		lo++
	}
	for hi > lo {
		sym, ok := agreed(hi - 1)
		if !ok {
			break
		}
		s.confirm(hi-1, sym)
		hi--
	}
	if lo < hi {
		s.result.Variations = append(s.result.Variations, s.variantAt(lo, hi, s.tally(lo, hi, t.rows)))
	}
}

func (s *scanner) variantAt(start, end int, t *tally) Variation {
	dominant := t.dominant()
	layout := t.layout(dominant)
	if len(layout) != end-start {
		layout = bytes.Repeat([]byte{'N'}, end-start)
	}
	minPos, maxPos := -1, -1
	for col := start; col < end; col++ {
		s.result.Status[col] = Variant
		s.result.Consensus[col] = layout[col-start]
		if p := s.frame.ContigPos(col); p != NoContig {
			if minPos < 0 {
				minPos = p
			}
			maxPos = p
		}
	}
	r := Range{Start: minPos, End: maxPos + 1}
	if minPos < 0 {
		loc := s.frame.NextContigPos(start)
		r = Range{Start: loc, End: loc}
	}
	alleles := make(Alleles, len(t.alleles))
	for k, v := range t.alleles {
		alleles[k] = v
	}
	return Variation{
		Range:         r,
		StartCol:      start,
		EndCol:        end,
		Alleles:       alleles,
		TotalCross:    t.total,
		AcceptedCross: t.alleles[dominant],
	}
}

// mergeVariations orders the variations and folds together the ones that
// land on the same reference range.
func (s *scanner) mergeVariations() {
	vs := s.result.Variations
	sort.Slice(vs, func(i, j int) bool { return vs[i].StartCol < vs[j].StartCol })
	var merged []Variation
	for _, v := range vs {
		n := len(merged)
		if n == 0 || (merged[n-1].Range != v.Range && merged[n-1].Range.Overlap(v.Range) == 0) {
			merged = append(merged, v)
			continue
		}
		prev := merged[n-1]
		merged = merged[:n-1]
		rows := s.rowsCovering(prev.StartCol, v.EndCol)
		if len(rows) == 0 {
			for k, w := range v.Alleles {
				prev.Alleles[k] += w
			}
			prev.EndCol = v.EndCol
			prev.TotalCross += v.TotalCross
			prev.AcceptedCross += v.AcceptedCross
			merged = append(merged, prev)
			continue
		}
		merged = append(merged, s.variantAt(prev.StartCol, v.EndCol, s.tally(prev.StartCol, v.EndCol, rows)))
	}
	s.result.Variations = merged
}

// confirmedRanges joins confirmed reference positions. Any unconfirmed
// column, gap columns included, ends a range.
func (s *scanner) confirmedRanges() []Range {
	var ranges []Range
	open := false
	for col, status := range s.result.Status {
		if status != Confirmed {
			open = false
			continue
		}
		p := s.frame.ContigPos(col)
		if p == NoContig {
			continue
		}
		if n := len(ranges); open && ranges[n-1].End == p {
			ranges[n-1].End = p + 1
			continue
		}
		ranges = append(ranges, Range{Start: p, End: p + 1})
		open = true
	}
	return ranges
}

func (s *scanner) rowsCovering(start, end int) []int {
	var rows []int
	for i := range s.frame.Rows {
		if s.frame.Rows[i].Covers(start, end) {
			rows = append(rows, i)
		}
	}
	return rows
}

// tally counts, for rows spanning [start, end), the weighted support of
// every distinct sub-sequence. Sub-sequences holding an N are not alleles;
// they only add to unknown and total.
type tally struct {
	start   int
	rows    []int
	alleles Alleles
	layouts map[string]float64 // padded sub-sequence -> weight
	unknown float64
	total   float64
	depth   int
}

func (s *scanner) tally(start, end int, rows []int) *tally {
	t := &tally{
		start:   start,
		rows:    rows,
		alleles: make(Alleles),
		layouts: make(map[string]float64),
	}
	for _, i := range rows {
		row := &s.frame.Rows[i]
		padded := string(row.Seq[start-row.StartCol : end-row.StartCol])
		w := s.weights[i]
		t.total += w
		t.depth++
		if strings.IndexByte(padded, 'N') >= 0 {
			t.unknown += w
			continue
		}
		t.layouts[padded] += w
		t.alleles[stripGaps(padded)] += w
	}
	return t
}

func (t *tally) weights() []float64 {
	result := make([]float64, 0, len(t.alleles))
	for _, w := range t.alleles {
		result = append(result, w)
	}
	return result
}

// dominant is the best supported allele, ties going to the smaller string.
func (t *tally) dominant() string {
	keys := sortedKeys(t.alleles)
	best := ""
	for i, k := range keys {
		if i == 0 || t.alleles[k] > t.alleles[best] {
			best = k
		}
	}
	return best
}

// layout returns the heaviest padded form of allele.
func (t *tally) layout(allele string) []byte {
	keys := sortedKeys(t.layouts)
	best := ""
	found := false
	for _, k := range keys {
		if stripGaps(k) != allele {
			continue
		}
		if !found || t.layouts[k] > t.layouts[best] {
			best = k
			found = true
		}
	}
	return []byte(best)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stripGaps(s string) string {
	return string(bytes.ReplaceAll([]byte(s), []byte{Gap}, nil))
}

func scan(frame *Frame, counts []ColumnCount, weights []float64, params Params) *ScanResult {
	return newScanner(frame, counts, weights, params).scan()
}
