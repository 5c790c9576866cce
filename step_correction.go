package multalign

import "github.com/biogo/hts/sam"

// Correction is one read symbol overridden by the consensus.
type Correction struct {
	Col  int
	Pos  int // reference position, insertion site for gap columns
	From byte
	To   byte
}

// CorrectedRead is a selected read after consensus correction, re-aligned
// against the reference. Cigar and Seq are left empty when only the
// corrections were asked for.
type CorrectedRead struct {
	Index       int
	Pos         int
	Cigar       sam.Cigar
	Seq         []byte
	Corrections []Correction
}

func correctReads(frame *Frame, result *ScanResult, correctionsOnly bool) []CorrectedRead {
	var reads []CorrectedRead
	for i := range frame.Rows {
		row := &frame.Rows[i]
		corrected := make([]byte, len(row.Seq))
		copy(corrected, row.Seq)

		var corrections []Correction
		for k, b := range row.Seq {
			col := row.StartCol + k
			if result.Status[col] != Confirmed || b == result.Consensus[col] {
				continue
			}
			pos := frame.ContigPos(col)
			if pos == NoContig {
				pos = frame.NextContigPos(col)
			}
			corrections = append(corrections, Correction{Col: col, Pos: pos, From: b, To: result.Consensus[col]})
			corrected[k] = result.Consensus[col]
		}

		if correctionsOnly {
			if len(corrections) > 0 {
				reads = append(reads, CorrectedRead{Index: row.Read, Pos: frame.NextContigPos(row.StartCol), Corrections: corrections})
			}
			continue
		}
		pos, cigar, seq := rowAlignment(frame, row.StartCol, corrected)
		if len(cigar) == 0 {
			continue
		}
		reads = append(reads, CorrectedRead{
			Index:       row.Read,
			Pos:         pos,
			Cigar:       cigar,
			Seq:         seq,
			Corrections: corrections,
		})
	}
	return reads
}

// rowAlignment turns a padded row back into a reference position, CIGAR
// and ungapped sequence. Deletions at either end are dropped.
func rowAlignment(frame *Frame, startCol int, padded []byte) (int, sam.Cigar, []byte) {
	var (
		cigar sam.Cigar
		seq   = make([]byte, 0, len(padded))
		pos   = -1
		op    sam.CigarOpType
		n     int
	)
	flush := func() {
		if n > 0 {
			cigar = append(cigar, sam.NewCigarOp(op, n))
		}
		n = 0
	}
	emit := func(t sam.CigarOpType) {
		if n > 0 && t != op {
			flush()
		}
		op = t
		n++
	}

	for k, b := range padded {
		col := startCol + k
		refGap := frame.Reference[col] == Gap
		readGap := b == Gap
		switch {
		case refGap && readGap:
		case readGap:
			if pos < 0 {
				continue
			}
			emit(sam.CigarDeletion)
		case refGap:
			if pos < 0 {
				pos = frame.NextContigPos(col)
			}
			emit(sam.CigarInsertion)
			seq = append(seq, b)
		default:
			if pos < 0 {
				pos = frame.ContigPos(col)
			}
			emit(sam.CigarMatch)
			seq = append(seq, b)
		}
	}
	if op != sam.CigarDeletion {
		flush()
	}
	return pos, cigar, seq
}
