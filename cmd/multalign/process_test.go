package main

import (
	"reflect"
	"testing"

	"github.com/biogo/hts/sam"

	"github.com/balanur/multalign"
)

const testChr = "GATTACAGAT" + "ACGTACGTACGT" + "CCGGA"

// testReference returns chr1 registered in a header, as records need a
// reference with a valid ID.
func testReference(t *testing.T) *sam.Reference {
	t.Helper()
	ref, err := sam.NewReference("chr1", "", "", len(testChr), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sam.NewHeader(nil, []*sam.Reference{ref}); err != nil {
		t.Fatal(err)
	}
	return ref
}

func testRecord(t *testing.T, ref *sam.Reference, name string, pos int, seq string, flags sam.Flags) *sam.Record {
	t.Helper()
	cigar := []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(seq))}
	rec, err := sam.NewRecord(name, ref, nil, pos, -1, 0, 60, cigar, []byte(seq), nil, nil)
	if err != nil {
		t.Fatalf("record %s: %v", name, err)
	}
	rec.Flags = flags
	return rec
}

func TestCallRegionShiftsToChromosome(t *testing.T) {
	ref := testReference(t)
	var records []*sam.Record
	for i, seq := range []string{"ACGTACGTACGT", "ACGTACGTACGT", "ACGTGCGTACGT", "ACGTACGTACGT", "ACGTACGTACGT"} {
		records = append(records, testRecord(t, ref, string(rune('a'+i)), 10, seq, 0))
	}

	params := multalign.DefaultParams()
	params.MinAbsoluteSupport = 2
	params.MinRelativeSupport = 0.15
	provider := multalign.MapProvider{"chr1": []byte(testChr)}
	region := Region{id: "snp", Chromosome: "chr1", Start: 10, End: 22}

	result, err := callRegion(region, records, provider, params, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.offset != 10 || len(result.records) != 5 || result.rejected != 0 {
		t.Fatalf("offset %d, %d records, %d rejected", result.offset, len(result.records), result.rejected)
	}
	if len(result.variations) != 1 {
		t.Fatalf("variations = %+v", result.variations)
	}
	v := result.variations[0]
	if v.Range != (multalign.Range{Start: 14, End: 15}) {
		t.Errorf("variation at %v, want 14-15", v.Range)
	}
	if want := []multalign.Range{{Start: 10, End: 14}, {Start: 15, End: 22}}; !reflect.DeepEqual(result.confirmed, want) {
		t.Errorf("confirmed = %v, want %v", result.confirmed, want)
	}

	rec := toVcf(result.ref, v)
	if rec.Pos != 15 || rec.Ref != "A" || !reflect.DeepEqual(rec.Alt, []string{"G"}) {
		t.Errorf("vcf record %+v", rec)
	}

	missing := Region{id: "gone", Chromosome: "chrX", Start: 0, End: 10}
	if result, err := callRegion(missing, nil, provider, params, nil); err != nil || len(result.variations) != 0 {
		t.Errorf("missing contig: %v, %+v", err, result)
	}
}

func TestInRegion(t *testing.T) {
	target := multalign.Range{Start: 10, End: 20}
	type test struct {
		r    multalign.Range
		want bool
	}
	tests := []test{
		{multalign.Range{Start: 10, End: 10}, true},
		{multalign.Range{Start: 19, End: 19}, true},
		{multalign.Range{Start: 20, End: 20}, false},
		{multalign.Range{Start: 9, End: 9}, false},
		{multalign.Range{Start: 8, End: 11}, true},
		{multalign.Range{Start: 20, End: 22}, false},
	}
	for _, test := range tests {
		if got := inRegion(test.r, target); got != test.want {
			t.Errorf("inRegion(%v) = %v, want %v", test.r, got, test.want)
		}
	}
}
