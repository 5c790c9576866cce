package multalign

import (
	"sort"
	"strconv"
	"strings"
)

// Range is a half-open interval [Start, End) on the reference.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

func (r Range) Empty() bool { return r.End <= r.Start }

func (r Range) Contains(pos int) bool { return pos >= r.Start && pos < r.End }

// Overlap returns the number of positions shared by r and o.
func (r Range) Overlap(o Range) int {
	start, end := r.Start, r.End
	if o.Start > start {
		start = o.Start
	}
	if o.End < end {
		end = o.End
	}
	if end < start {
		return 0
	}
	return end - start
}

func (r Range) String() string {
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// Indel is a single insertion or deletion against the reference.
// Insertions go in front of reference base Loc; deletions remove
// [Loc, Loc+Len) and keep the removed bases in Seq.
type Indel struct {
	Loc int
	Len int
	Seq string
}

func (a Indel) IsDeletion() bool { return a.Seq != "" }

// Compare orders by location, deletions before insertions, length, then sequence.
func (a Indel) Compare(b Indel) int {
	switch {
	case a.Loc != b.Loc:
		return cmpInt(a.Loc, b.Loc)
	case a.IsDeletion() != b.IsDeletion():
		if a.IsDeletion() {
			return -1
		}
		return 1
	case a.Len != b.Len:
		return cmpInt(a.Len, b.Len)
	}
	return strings.Compare(a.Seq, b.Seq)
}

func (a Indel) String() string {
	if a.IsDeletion() {
		return strconv.Itoa(a.Loc) + "D:" + a.Seq
	}
	return strconv.Itoa(a.Loc) + "I" + strconv.Itoa(a.Len)
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// IndelRef is a stable handle into an IndelPool.
type IndelRef int

// IndelPool interns indels so reads sharing an event share one handle.
type IndelPool struct {
	indels []Indel
	index  map[Indel]IndelRef
}

func NewIndelPool() *IndelPool {
	var result IndelPool
	result.index = make(map[Indel]IndelRef)
	return &result
}

func (pool *IndelPool) Intern(indel Indel) IndelRef {
	if ref, ok := pool.index[indel]; ok {
		return ref
	}
	ref := IndelRef(len(pool.indels))
	pool.indels = append(pool.indels, indel)
	pool.index[indel] = ref
	return ref
}

func (pool *IndelPool) Get(ref IndelRef) Indel {
	return pool.indels[ref]
}

func (pool *IndelPool) Len() int {
	return len(pool.indels)
}

// Sorted returns every handle in Indel order.
func (pool *IndelPool) Sorted() []IndelRef {
	refs := make([]IndelRef, len(pool.indels))
	for i := range refs {
		refs[i] = IndelRef(i)
	}
	pool.sortRefs(refs)
	return refs
}

func (pool *IndelPool) sortRefs(refs []IndelRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		return pool.indels[refs[i]].Compare(pool.indels[refs[j]]) < 0
	})
}
