package multalign

import "bytes"

const (
	Gap        = '-'
	NotCovered = ' '
	NoContig   = -1
)

// Row is one read in padded coordinates. Seq holds columns [StartCol, EndCol).
type Row struct {
	Read     int
	StartCol int
	EndCol   int
	Seq      []byte
}

// At returns the read symbol in column col, NotCovered outside the read.
func (row *Row) At(col int) byte {
	if col < row.StartCol || col >= row.EndCol {
		return NotCovered
	}
	return row.Seq[col-row.StartCol]
}

func (row *Row) Covers(start, end int) bool {
	return row.StartCol <= start && end <= row.EndCol
}

// Padded returns the row spread over the full frame width.
func (row *Row) Padded(width int) []byte {
	result := bytes.Repeat([]byte{NotCovered}, width)
	copy(result[row.StartCol:], row.Seq)
	return result
}

// Frame is the shared gapped coordinate system of the reference and the
// selected reads.
type Frame struct {
	Reference       []byte // padded reference
	ContigToAligned []int  // one entry per reference base plus the frame width
	AlignedToContig []int  // NoContig for insertion columns
	Widths          map[int]int
	Rows            []Row
}

func (f *Frame) Len() int { return len(f.Reference) }

// ContigPos maps a column back to the reference, NoContig for gap columns
// and columns outside the frame.
func (f *Frame) ContigPos(col int) int {
	if col < 0 || col >= len(f.AlignedToContig) {
		return NoContig
	}
	return f.AlignedToContig[col]
}

// NextContigPos returns the first reference position at or after col,
// which is where an insertion column sits on the reference.
func (f *Frame) NextContigPos(col int) int {
	for ; col < len(f.AlignedToContig); col++ {
		if p := f.AlignedToContig[col]; p != NoContig {
			return p
		}
	}
	return len(f.ContigToAligned) - 1
}

func buildPaddedFrame(ref []byte, reads []*AlignedRead, selected []int, pool *IndelPool) *Frame {
	widths := make(map[int]int)
	for _, i := range selected {
		for _, r := range reads[i].Indels {
			indel := pool.Get(r)
			if !indel.IsDeletion() && indel.Len > widths[indel.Loc] {
				widths[indel.Loc] = indel.Len
			}
		}
	}

	frame := &Frame{
		ContigToAligned: make([]int, len(ref)+1),
		Widths:          widths,
	}
	var padded bytes.Buffer
	for p := 0; p <= len(ref); p++ {
		for k := 0; k < widths[p]; k++ {
			padded.WriteByte(Gap)
			frame.AlignedToContig = append(frame.AlignedToContig, NoContig)
		}
		frame.ContigToAligned[p] = padded.Len()
		if p < len(ref) {
			padded.WriteByte(upper(ref[p]))
			frame.AlignedToContig = append(frame.AlignedToContig, p)
		}
	}
	frame.Reference = padded.Bytes()

	frame.Rows = make([]Row, 0, len(selected))
	for _, i := range selected {
		frame.Rows = append(frame.Rows, frame.project(i, reads[i], pool))
	}
	return frame
}

// project lays a read into the frame. Insertions shorter than their site
// are left aligned: bases first, gaps after.
func (f *Frame) project(index int, read *AlignedRead, pool *IndelPool) Row {
	c2a := f.ContigToAligned
	insAt := func(loc int) bool {
		for _, r := range read.Indels {
			indel := pool.Get(r)
			if indel.Loc > loc {
				break
			}
			if indel.Loc == loc && !indel.IsDeletion() {
				return true
			}
		}
		return false
	}

	startCol := c2a[read.Range.Start]
	if insAt(read.Range.Start) {
		startCol -= f.Widths[read.Range.Start]
	}
	endCol := c2a[read.Range.End]
	if !insAt(read.Range.End) {
		endCol -= f.Widths[read.Range.End]
	}

	row := Row{
		Read:     index,
		StartCol: startCol,
		EndCol:   endCol,
		Seq:      bytes.Repeat([]byte{Gap}, endCol-startCol),
	}
	q := 0
	put := func(col int) {
		if q < len(read.Seq) {
			row.Seq[col-startCol] = normalizeBase(read.Seq[q])
		}
		q++
	}
	pos := read.Range.Start
	for _, r := range read.Indels {
		indel := pool.Get(r)
		for ; pos < indel.Loc; pos++ {
			put(c2a[pos])
		}
		if indel.IsDeletion() {
			pos = indel.Loc + indel.Len
			continue
		}
		first := c2a[indel.Loc] - f.Widths[indel.Loc]
		for k := 0; k < indel.Len; k++ {
			put(first + k)
		}
	}
	for ; pos < read.Range.End; pos++ {
		put(c2a[pos])
	}
	return row
}

func normalizeBase(b byte) byte {
	switch b = upper(b); b {
	case 'A', 'C', 'G', 'T', Gap:
		return b
	}
	return 'N'
}
