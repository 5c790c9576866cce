package main

import (
	"reflect"
	"testing"
)

func TestParseRegion(t *testing.T) {
	type test struct {
		in   string
		want Region
		ok   bool
	}
	tests := []test{
		{"chr1:11-22", Region{id: "chr1:11-22", Chromosome: "chr1", Start: 10, End: 22}, true},
		{"chr1:1,001-2,000", Region{id: "chr1:1,001-2,000", Chromosome: "chr1", Start: 1000, End: 2000}, true},
		{"HLA-A*01:01:1-5", Region{id: "HLA-A*01:01:1-5", Chromosome: "HLA-A*01:01", Start: 0, End: 5}, true},
		{"chrM", Region{id: "chrM", Chromosome: "chrM", End: -1}, true},
		{"chr1:0-5", Region{}, false},
		{"chr1:9-5", Region{}, false},
		{"chr1:5", Region{}, false},
		{":1-5", Region{}, false},
		{"", Region{}, false},
	}
	for _, test := range tests {
		got, err := parseRegion(test.in)
		if (err == nil) != test.ok {
			t.Errorf("parseRegion(%q) error %v", test.in, err)
			continue
		}
		if test.ok && got != test.want {
			t.Errorf("parseRegion(%q) = %+v, want %+v", test.in, got, test.want)
		}
	}
}

func TestFindIntersectingIntervals(t *testing.T) {
	store := NewRegionStore()
	store.add(Region{Chromosome: "chr1", Start: 100, End: 200})
	store.add(Region{Chromosome: "chr2", Start: 100, End: 200})
	store.add(Region{Chromosome: "chr1", Start: 150, End: 400})
	store.add(Region{Chromosome: "chr1", Start: 120, End: 130})

	type test struct {
		chr        string
		start, end int
		want       []int
	}
	tests := []test{
		{"chr1", 0, 100, nil},
		{"chr1", 90, 101, []int{0}},
		{"chr1", 50, 500, []int{0, 2, 3}},
		{"chr1", 199, 210, []int{0, 2}},
		{"chr1", 400, 500, nil},
		{"chr3", 0, 1000, nil},
	}
	for _, test := range tests {
		got := store.findIntersectingIntervals(test.chr, test.start, test.end)
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("%s:%d-%d intersects %v, want %v", test.chr, test.start, test.end, got, test.want)
		}
	}
}

func TestRegionList(t *testing.T) {
	var l regionList
	l.Set("chr1:1-10")
	l.Set("chr2")
	if l.String() != "chr1:1-10,chr2" {
		t.Errorf("regionList = %s", l.String())
	}
}
