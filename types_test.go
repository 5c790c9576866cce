package multalign

import (
	"math/rand"
	"testing"
)

func TestIndelPoolIntern(t *testing.T) {
	pool := NewIndelPool()
	a := pool.Intern(Indel{Loc: 10, Len: 2})
	b := pool.Intern(Indel{Loc: 15, Len: 3, Seq: "TCA"})
	if pool.Len() != 2 {
		t.Fatalf("pool has %d indels, want 2", pool.Len())
	}
	if again := pool.Intern(Indel{Loc: 10, Len: 2}); again != a {
		t.Errorf("second intern of insertion gave %d, want %d", again, a)
	}
	if again := pool.Intern(Indel{Loc: 15, Len: 3, Seq: "TCA"}); again != b {
		t.Errorf("second intern of deletion gave %d, want %d", again, b)
	}
	if pool.Len() != 2 {
		t.Errorf("pool grew to %d on repeated interning", pool.Len())
	}
	if got := pool.Get(b); got.Seq != "TCA" || !got.IsDeletion() {
		t.Errorf("Get(%d) = %v", b, got)
	}
}

func TestIndelCompare(t *testing.T) {
	type test struct {
		a, b Indel
		want int
	}
	tests := []test{
		{Indel{Loc: 4, Len: 1}, Indel{Loc: 5, Len: 1}, -1},
		{Indel{Loc: 5, Len: 9}, Indel{Loc: 5, Len: 1, Seq: "A"}, 1},
		{Indel{Loc: 5, Len: 1, Seq: "A"}, Indel{Loc: 5, Len: 2, Seq: "AA"}, -1},
		{Indel{Loc: 5, Len: 2}, Indel{Loc: 5, Len: 3}, -1},
		{Indel{Loc: 5, Len: 1, Seq: "C"}, Indel{Loc: 5, Len: 1, Seq: "A"}, 1},
		{Indel{Loc: 5, Len: 1, Seq: "C"}, Indel{Loc: 5, Len: 1, Seq: "C"}, 0},
	}
	for _, test := range tests {
		if got := test.a.Compare(test.b); got != test.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func randomIndel(rng *rand.Rand) Indel {
	indel := Indel{Loc: rng.Intn(5), Len: 1 + rng.Intn(3)}
	if rng.Intn(2) == 0 {
		b := make([]byte, indel.Len)
		for i := range b {
			b[i] = "ACGT"[rng.Intn(4)]
		}
		indel.Seq = string(b)
	}
	return indel
}

func TestIndelOrderIsTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		a, b, c := randomIndel(rng), randomIndel(rng), randomIndel(rng)
		ab, ba := a.Compare(b), b.Compare(a)
		if ab != -ba {
			t.Fatalf("%v vs %v not antisymmetric: %d %d", a, b, ab, ba)
		}
		if (ab == 0) != (a == b) {
			t.Fatalf("%v vs %v: compare %d but equal=%v", a, b, ab, a == b)
		}
		if ab < 0 && b.Compare(c) < 0 && a.Compare(c) >= 0 {
			t.Fatalf("not transitive: %v < %v < %v", a, b, c)
		}
		if a.Loc < b.Loc && ab >= 0 {
			t.Fatalf("%v should sort before %v", a, b)
		}
		if a.Loc == b.Loc && a.IsDeletion() && !b.IsDeletion() && ab >= 0 {
			t.Fatalf("deletion %v should sort before insertion %v", a, b)
		}
	}
}

func TestPoolSorted(t *testing.T) {
	pool := NewIndelPool()
	pool.Intern(Indel{Loc: 7, Len: 1})
	pool.Intern(Indel{Loc: 3, Len: 2})
	pool.Intern(Indel{Loc: 7, Len: 1, Seq: "G"})
	want := []Indel{{Loc: 3, Len: 2}, {Loc: 7, Len: 1, Seq: "G"}, {Loc: 7, Len: 1}}
	for i, ref := range pool.Sorted() {
		if pool.Get(ref) != want[i] {
			t.Errorf("sorted[%d] = %v, want %v", i, pool.Get(ref), want[i])
		}
	}
}

func TestRangeOverlap(t *testing.T) {
	type test struct {
		a, b Range
		want int
	}
	tests := []test{
		{Range{0, 10}, Range{5, 20}, 5},
		{Range{0, 10}, Range{10, 20}, 0},
		{Range{3, 4}, Range{0, 20}, 1},
		{Range{5, 5}, Range{0, 20}, 0},
	}
	for _, test := range tests {
		if got := test.a.Overlap(test.b); got != test.want {
			t.Errorf("%v.Overlap(%v) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
