package multalign

import (
	"errors"
	"fmt"

	"github.com/biogo/hts/sam"
	"github.com/sirupsen/logrus"
)

// Variations maps the reference range of each variant to its alleles.
type Variations map[Range]Alleles

// Stats summarises the last pipeline run.
type Stats struct {
	Reads          int
	Selected       int
	Indels         int
	MaxReadLength  int
	Columns        int
	Variants       int
	ConfirmedBases int
}

// Engine builds the multiple alignment of reads against one reference and
// calls consensus and variants from it. An Engine is not safe for
// concurrent use; run one per region instead.
type Engine struct {
	Log logrus.FieldLogger

	id     string
	ref    []byte
	params Params
	region Range

	pool          *IndelPool
	reads         []*AlignedRead
	maxReadLength int

	dirty    bool
	selected []int
	frame    *Frame
	counts   []ColumnCount
	result   *ScanResult
}

// NewEngine resolves accession through provider.
func NewEngine(accession string, provider SequenceProvider, params Params) (*Engine, error) {
	s, err := provider.Sequence(accession)
	if errors.Is(err, ErrReferenceUnavailable) {
		return nil, fmt.Errorf("%s: %w", accession, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReferenceUnavailable, accession, err)
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrReferenceUnavailable, accession)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := newEngine(s, accession)
	e.params = params
	return e, nil
}

// NewEngineFromSequence starts an engine on a literal reference with the
// default parameters.
func NewEngineFromSequence(seq, id string) *Engine {
	return newEngine([]byte(seq), id)
}

// newEngine keeps ref without copying; engines sharing a contig only read it.
func newEngine(ref []byte, id string) *Engine {
	e := &Engine{
		Log: logrus.StandardLogger(),
		id:  id,
		ref: ref,
	}
	e.SetDefaultParams()
	e.Reset()
	return e
}

func (e *Engine) ID() string        { return e.id }
func (e *Engine) Reference() []byte { return e.ref }
func (e *Engine) Params() Params    { return e.params }
func (e *Engine) Region() Range     { return e.region }

func (e *Engine) Reads() []*AlignedRead { return e.reads }

func (e *Engine) SetDefaultParams() {
	e.params = DefaultParams()
	e.dirty = true
}

func (e *Engine) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params
	e.dirty = true
	return nil
}

// SetRegion restricts read selection to r, clipped to the reference.
func (e *Engine) SetRegion(r Range) error {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End > len(e.ref) {
		r.End = len(e.ref)
	}
	if r.Empty() {
		return fmt.Errorf("%w: region %v misses %s", ErrOutOfRange, r, e.id)
	}
	e.region = r
	e.dirty = true
	return nil
}

// Reset drops every read and the indel pool.
func (e *Engine) Reset() {
	e.pool = NewIndelPool()
	e.reads = nil
	e.maxReadLength = 0
	e.region = Range{Start: 0, End: len(e.ref)}
	e.dirty = true
}

func (e *Engine) append(read *AlignedRead) {
	e.reads = append(e.reads, read)
	if read.Span() > e.maxReadLength {
		e.maxReadLength = read.Span()
	}
	e.dirty = true
}

// AddAlignment adds a read given by its start, aligned bases and indels.
func (e *Engine) AddAlignment(start int, seq []byte, indels []Indel, weight, identity float64) error {
	for _, indel := range indels {
		if indel.IsDeletion() && indel.Loc+indel.Len > len(e.ref) {
			return fmt.Errorf("%w: deletion %v past %d", ErrOutOfRange, indel, len(e.ref))
		}
	}
	read, err := NewAlignedRead(start, seq, indels, weight, identity, e.pool)
	if err != nil {
		return err
	}
	if read.Range.End > len(e.ref) {
		return fmt.Errorf("%w: read %v on a %d base reference", ErrOutOfRange, read.Range, len(e.ref))
	}
	e.append(read)
	return nil
}

// AddSAM adds a read from its 0-based start, CIGAR and query sequence.
func (e *Engine) AddSAM(weight float64, start int, cigar string, seq []byte) error {
	read, err := NewReadFromSAM(weight, start, cigar, seq, e.ref, e.pool)
	if err != nil {
		return err
	}
	e.append(read)
	return nil
}

func (e *Engine) AddRecord(rec *sam.Record, weight float64) error {
	read, err := NewReadFromRecord(rec, weight, e.ref, e.pool)
	if err != nil {
		return err
	}
	e.append(read)
	return nil
}

// SetWeight rescales read i, as given by ingestion order.
func (e *Engine) SetWeight(i int, weight float64) error {
	if i < 0 || i >= len(e.reads) {
		return fmt.Errorf("%w: no read %d", ErrInvalidRead, i)
	}
	if weight <= 0 {
		return fmt.Errorf("%w: weight %g", ErrInvalidRead, weight)
	}
	e.reads[i].SetWeight(weight)
	e.dirty = true
	return nil
}

// prepare runs select, pad, count and scan unless the cached run still
// matches the reads and parameters.
func (e *Engine) prepare() {
	if !e.dirty && e.result != nil {
		return
	}
	log := e.Log.WithField("id", e.id)

	e.selected = selectReads(e.reads, e.region, e.params)
	log.WithFields(logrus.Fields{"reads": len(e.reads), "selected": len(e.selected)}).Debug("selected reads")

	e.frame = buildPaddedFrame(e.ref, e.reads, e.selected, e.pool)
	weights := make([]float64, len(e.selected))
	for i, r := range e.selected {
		weights[i] = e.reads[r].Weight
	}
	log.WithFields(logrus.Fields{"cols": e.frame.Len(), "sites": len(e.frame.Widths)}).Debug("built padded frame")

	e.counts = countColumns(e.frame, weights)
	e.result = scan(e.frame, e.counts, weights, e.params)
	log.WithFields(logrus.Fields{
		"segments":  len(e.result.Segments),
		"variants":  len(e.result.Variations),
		"confirmed": len(e.result.Confirmed),
	}).Debug("scanned consensus")
	e.dirty = false
}

// Variations returns the variant ranges with their allele support and the
// confirmed ranges.
func (e *Engine) Variations() (Variations, []Range, error) {
	e.prepare()
	variations := make(Variations, len(e.result.Variations))
	for _, v := range e.result.Variations {
		variations[v.Range] = v.Alleles
	}
	confirmed := make([]Range, len(e.result.Confirmed))
	copy(confirmed, e.result.Confirmed)
	return variations, confirmed, nil
}

// VariationList returns the variations in reference order with their
// column spans and cross counts.
func (e *Engine) VariationList() []Variation {
	e.prepare()
	return e.result.Variations
}

// GetVariationAlignList returns the selected reads corrected against the
// consensus, or only their corrections.
func (e *Engine) GetVariationAlignList(correctionsOnly bool) ([]CorrectedRead, error) {
	e.prepare()
	return correctReads(e.frame, e.result, correctionsOnly), nil
}

// Consensus returns the ungapped consensus of the region, N where it could
// not be resolved.
func (e *Engine) Consensus() (string, error) {
	e.prepare()
	out := make([]byte, 0, e.region.Len())
	for col, b := range e.result.Consensus {
		p := e.frame.ContigPos(col)
		if p != NoContig && !e.region.Contains(p) {
			continue
		}
		if p == NoContig && !e.region.Contains(e.frame.NextContigPos(col)) {
			continue
		}
		if b != Gap {
			out = append(out, b)
		}
	}
	return string(out), nil
}

// Frame exposes the padded alignment of the last run.
func (e *Engine) Frame() *Frame {
	e.prepare()
	return e.frame
}

func (e *Engine) Counts() []ColumnCount {
	e.prepare()
	return e.counts
}

func (e *Engine) Stats() Stats {
	e.prepare()
	s := Stats{
		Reads:         len(e.reads),
		Selected:      len(e.selected),
		Indels:        e.pool.Len(),
		MaxReadLength: e.maxReadLength,
		Columns:       e.frame.Len(),
		Variants:      len(e.result.Variations),
	}
	for _, r := range e.result.Confirmed {
		s.ConfirmedBases += r.Len()
	}
	return s
}
