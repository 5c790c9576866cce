package multalign

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestReadFasta(t *testing.T) {
	const in = ">chr1\nACGT\nAC\n>chr2 second contig\nGGTT\n"
	p, err := ReadFasta(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"chr1", "chr2"}; !reflect.DeepEqual(p.Names(), want) {
		t.Errorf("names = %v, want %v", p.Names(), want)
	}
	type test struct {
		name string
		want string
	}
	tests := []test{
		{"chr1", "ACGTAC"},
		{"chr2", "GGTT"},
	}
	for _, test := range tests {
		s, err := p.Sequence(test.name)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if string(s) != test.want {
			t.Errorf("%s = %s, want %s", test.name, s, test.want)
		}
	}
	if _, err := p.Sequence("chrM"); !errors.Is(err, ErrReferenceUnavailable) {
		t.Errorf("missing record: %v", err)
	}
}

func TestNewFastaProviderMissingFile(t *testing.T) {
	if _, err := NewFastaProvider("testdata/does-not-exist.fa"); !errors.Is(err, ErrReferenceUnavailable) {
		t.Errorf("missing file: %v", err)
	}
}
