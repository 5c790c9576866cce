package multalign

import (
	"bytes"
	"math/rand"
	"reflect"
	"testing"
)

func plainRead(t *testing.T, pool *IndelPool, start, length int, identity float64) *AlignedRead {
	t.Helper()
	read, err := NewAlignedRead(start, bytes.Repeat([]byte{'A'}, length), nil, 1, identity, pool)
	if err != nil {
		t.Fatalf("read at %d: %v", start, err)
	}
	return read
}

func TestSelectReadsCap(t *testing.T) {
	pool := NewIndelPool()
	reads := []*AlignedRead{
		plainRead(t, pool, 0, 10, 0.90),
		plainRead(t, pool, 0, 10, 0.99),
		plainRead(t, pool, 0, 10, 0.95),
		plainRead(t, pool, 0, 10, 0.80),
		plainRead(t, pool, 0, 10, 0.97),
		plainRead(t, pool, 5, 10, 0.50),
	}
	params := DefaultParams()
	params.MinEdgeLength = 0
	params.MaxCoverage = 2
	region := Range{0, 20}

	got := selectReads(reads, region, params)
	if want := []int{1, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("selected %v, want %v", got, want)
	}

	for pos := region.Start; pos < region.End; pos++ {
		before, after := 0, 0
		for i, read := range reads {
			if !read.Range.Contains(pos) {
				continue
			}
			before++
			for _, j := range got {
				if i == j {
					after++
				}
			}
		}
		if want := min(before, params.MinCoverage); after < want {
			t.Errorf("position %d: depth %d after selection, want at least %d", pos, after, want)
		}
	}

	params.MaxCoverage = 0
	if got := selectReads(reads, region, params); len(got) != len(reads) {
		t.Errorf("uncapped selection kept %d of %d reads", len(got), len(reads))
	}
}

func TestSelectReadsEdges(t *testing.T) {
	pool := NewIndelPool()
	reads := []*AlignedRead{
		plainRead(t, pool, 0, 12, 1),  // 2 bases inside
		plainRead(t, pool, 0, 25, 1),  // 15 bases inside
		plainRead(t, pool, 12, 8, 1),  // contained
		plainRead(t, pool, 28, 12, 1), // 2 bases inside
		plainRead(t, pool, 35, 5, 1),  // outside
	}
	got := selectReads(reads, Range{10, 30}, DefaultParams())
	if want := []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("selected %v, want %v", got, want)
	}
}

func TestSelectReadsShortRegion(t *testing.T) {
	pool := NewIndelPool()
	reads := []*AlignedRead{
		plainRead(t, pool, 0, 30, 1),  // spans the region
		plainRead(t, pool, 10, 20, 1), // spans the region
		plainRead(t, pool, 0, 14, 1),  // 2 bases inside
		plainRead(t, pool, 13, 3, 1),  // contained
	}
	got := selectReads(reads, Range{12, 18}, DefaultParams())
	if want := []int{0, 1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("selected %v, want %v", got, want)
	}
	got = selectReads(reads, Range{15, 16}, DefaultParams())
	if want := []int{0, 1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("single base region: selected %v, want %v", got, want)
	}
}

// Wherever trusted input reads give depth d, the selection keeps at least
// min(d, cap), for long and short regions alike.
func TestSelectReadsKeepsCoverage(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		pool := NewIndelPool()
		var reads []*AlignedRead
		for i := 0; i < 30; i++ {
			reads = append(reads, plainRead(t, pool, rng.Intn(80), 1+rng.Intn(30), rng.Float64()))
		}
		params := DefaultParams()
		params.MaxCoverage = []int{0, 1, 2, 3, 5}[rng.Intn(5)]
		start := rng.Intn(90)
		region := Range{start, start + 1 + rng.Intn(25)}

		got := selectReads(reads, region, params)
		selected := make(map[int]bool, len(got))
		for _, i := range got {
			selected[i] = true
		}
		limit := params.selectionCap()
		for pos := region.Start; pos < region.End; pos++ {
			in, out := 0, 0
			for i, read := range reads {
				if !read.Range.Contains(pos) {
					continue
				}
				contained := read.Range.Start >= region.Start && read.Range.End <= region.End
				spanning := read.Range.Start <= region.Start && read.Range.End >= region.End
				if contained || spanning || read.Overlap(region) >= params.MinEdgeLength {
					in++
				}
				if selected[i] {
					out++
				}
			}
			want := in
			if limit > 0 {
				want = min(in, limit)
			}
			if out < want {
				t.Errorf("seed %d region %v cap %d: depth %d at %d, want at least %d", seed, region, limit, out, pos, want)
			}
		}
	}
}
