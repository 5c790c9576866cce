package multalign

import (
	"fmt"

	"github.com/biogo/hts/sam"
)

// AlignedRead is one read placed on the reference. Seq holds the aligned
// query bases (matches and insertions, clips removed) in read order.
type AlignedRead struct {
	Range    Range
	Weight   float64
	Identity float64
	Indels   []IndelRef
	Seq      []byte
}

func (r *AlignedRead) Span() int { return r.Range.Len() }

func (r *AlignedRead) Overlap(o Range) int { return r.Range.Overlap(o) }

func (r *AlignedRead) SetWeight(w float64) { r.Weight = w }

// NewAlignedRead builds a read from its start, aligned bases and indels.
// The indels are interned into pool only if the read is valid.
func NewAlignedRead(start int, seq []byte, indels []Indel, weight, identity float64, pool *IndelPool) (*AlignedRead, error) {
	if weight <= 0 {
		return nil, fmt.Errorf("%w: weight %g", ErrInvalidRead, weight)
	}
	if identity < 0 || identity > 1 {
		return nil, fmt.Errorf("%w: identity %g", ErrInvalidRead, identity)
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: start %d", ErrOutOfRange, start)
	}
	insLen, delLen := 0, 0
	seen := make(map[Indel]bool, len(indels))
	for _, indel := range indels {
		if indel.Len <= 0 {
			return nil, fmt.Errorf("%w: indel %v has length %d", ErrInvalidRead, indel, indel.Len)
		}
		if indel.IsDeletion() && len(indel.Seq) != indel.Len {
			return nil, fmt.Errorf("%w: deletion %v carries %d bases", ErrInvalidRead, indel, len(indel.Seq))
		}
		if seen[indel] {
			return nil, fmt.Errorf("%w: duplicate indel %v", ErrInvalidRead, indel)
		}
		seen[indel] = true
		if indel.IsDeletion() {
			delLen += indel.Len
		} else {
			insLen += indel.Len
		}
	}
	if insLen > len(seq) {
		return nil, fmt.Errorf("%w: %d inserted bases in a %d base read", ErrLengthMismatch, insLen, len(seq))
	}
	r := Range{Start: start, End: start + len(seq) - insLen + delLen}
	for _, indel := range indels {
		end := indel.Loc
		if indel.IsDeletion() {
			end += indel.Len
		}
		if indel.Loc < r.Start || end > r.End {
			return nil, fmt.Errorf("%w: indel %v outside %v", ErrInvalidRead, indel, r)
		}
	}
	read := &AlignedRead{Range: r, Weight: weight, Identity: identity, Seq: seq}
	read.intern(indels, pool)
	return read, nil
}

func (r *AlignedRead) intern(indels []Indel, pool *IndelPool) {
	r.Indels = make([]IndelRef, 0, len(indels))
	for _, indel := range indels {
		r.Indels = append(r.Indels, pool.Intern(indel))
	}
	pool.sortRefs(r.Indels)
}

// NewReadFromSAM parses a SAM style alignment: 0-based reference start,
// CIGAR string and the record's query sequence. ref is the contig the
// read is aligned to and supplies the bases of deletions.
func NewReadFromSAM(weight float64, start int, cigar string, query, ref []byte, pool *IndelPool) (*AlignedRead, error) {
	if err := checkCigarSyntax(cigar); err != nil {
		return nil, err
	}
	c, err := sam.ParseCigar([]byte(cigar))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return buildFromCigar(weight, start, c, query, ref, pool)
}

// NewReadFromRecord builds a read from a decoded SAM/BAM record.
func NewReadFromRecord(rec *sam.Record, weight float64, ref []byte, pool *IndelPool) (*AlignedRead, error) {
	if len(rec.Cigar) == 0 {
		return nil, fmt.Errorf("%w: record %s has no cigar", ErrParse, rec.Name)
	}
	read, err := buildFromCigar(weight, rec.Pos, rec.Cigar, rec.Seq.Expand(), ref, pool)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rec.Name, err)
	}
	return read, nil
}

// checkCigarSyntax rejects the inputs sam.ParseCigar silently accepts:
// operations without a length and trailing lengths without an operation.
func checkCigarSyntax(cigar string) error {
	if cigar == "" || cigar == "*" {
		return fmt.Errorf("%w: empty cigar", ErrParse)
	}
	digits := 0
	for i := 0; i < len(cigar); i++ {
		c := cigar[i]
		if '0' <= c && c <= '9' {
			digits++
			if digits > 9 {
				return fmt.Errorf("%w: %q: length too long at %d", ErrParse, cigar, i)
			}
			continue
		}
		if digits == 0 {
			return fmt.Errorf("%w: %q: operation %q at %d has no length", ErrParse, cigar, c, i)
		}
		digits = 0
	}
	if digits != 0 {
		return fmt.Errorf("%w: %q: trailing length without operation", ErrParse, cigar)
	}
	return nil
}

func buildFromCigar(weight float64, start int, cigar sam.Cigar, query, ref []byte, pool *IndelPool) (*AlignedRead, error) {
	if weight <= 0 {
		return nil, fmt.Errorf("%w: weight %g", ErrInvalidRead, weight)
	}
	if start < 0 || start > len(ref) {
		return nil, fmt.Errorf("%w: start %d on a %d base reference", ErrOutOfRange, start, len(ref))
	}
	if _, qlen := cigar.Lengths(); qlen > len(query) {
		return nil, fmt.Errorf("%w: cigar %v consumes %d bases, query has %d", ErrLengthMismatch, cigar, qlen, len(query))
	}

	var (
		indels   []Indel
		seq      = make([]byte, 0, len(query))
		refPos   = start
		queryPos = 0
		matches  = 0
		columns  = 0
	)
	for _, co := range cigar {
		n := co.Len()
		if n <= 0 {
			return nil, fmt.Errorf("%w: zero length operation in %v", ErrParse, cigar)
		}
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if refPos+n > len(ref) {
				return nil, fmt.Errorf("%w: match ends at %d on a %d base reference", ErrOutOfRange, refPos+n, len(ref))
			}
			for i := 0; i < n; i++ {
				b := query[queryPos+i]
				switch co.Type() {
				case sam.CigarEqual:
					matches++
				case sam.CigarMatch:
					if upper(b) == upper(ref[refPos+i]) {
						matches++
					}
				}
			}
			seq = append(seq, query[queryPos:queryPos+n]...)
			columns += n
			refPos += n
			queryPos += n
		case sam.CigarInsertion:
			if last := len(indels) - 1; last >= 0 && !indels[last].IsDeletion() && indels[last].Loc == refPos {
				indels[last].Len += n
			} else {
				indels = append(indels, Indel{Loc: refPos, Len: n})
			}
			seq = append(seq, query[queryPos:queryPos+n]...)
			columns += n
			queryPos += n
		case sam.CigarDeletion, sam.CigarSkipped:
			if refPos+n > len(ref) {
				return nil, fmt.Errorf("%w: deletion ends at %d on a %d base reference", ErrOutOfRange, refPos+n, len(ref))
			}
			indels = append(indels, Indel{Loc: refPos, Len: n, Seq: string(ref[refPos : refPos+n])})
			if co.Type() == sam.CigarDeletion {
				columns += n
			}
			refPos += n
		case sam.CigarSoftClipped:
			queryPos += n
		case sam.CigarHardClipped:
		default:
			return nil, fmt.Errorf("%w: unsupported operation %v", ErrParse, co)
		}
	}

	var identity float64
	if columns > 0 {
		identity = float64(matches) / float64(columns)
	}
	read := &AlignedRead{
		Range:    Range{Start: start, End: refPos},
		Weight:   weight,
		Identity: identity,
		Seq:      seq,
	}
	read.intern(indels, pool)
	return read, nil
}

func upper(b byte) byte {
	if 'a' <= b && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
