package multalign

import (
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// SequenceProvider resolves an accession to its bases.
type SequenceProvider interface {
	Sequence(accession string) ([]byte, error)
}

// MapProvider serves sequences held in memory.
type MapProvider map[string][]byte

func (m MapProvider) Sequence(accession string) ([]byte, error) {
	s, ok := m[accession]
	if !ok {
		return nil, fmt.Errorf("%w: no sequence %q", ErrReferenceUnavailable, accession)
	}
	return s, nil
}

// FastaProvider holds every record of a FASTA file, keyed by record ID.
type FastaProvider struct {
	chrs  map[string][]byte
	names []string
}

func NewFastaProvider(fileName string) (*FastaProvider, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReferenceUnavailable, err)
	}
	defer f.Close()
	return ReadFasta(f)
}

func ReadFasta(r io.Reader) (*FastaProvider, error) {
	result := &FastaProvider{chrs: make(map[string][]byte)}
	reader := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA))
	for {
		s, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading fasta: %v", ErrReferenceUnavailable, err)
		}
		l := s.(*linear.Seq)
		content := make([]byte, len(l.Seq))
		for i, v := range l.Seq {
			content[i] = byte(v)
		}
		result.chrs[l.Name()] = content
		result.names = append(result.names, l.Name())
	}
	return result, nil
}

func (p *FastaProvider) Sequence(accession string) ([]byte, error) {
	s, ok := p.chrs[accession]
	if !ok {
		return nil, fmt.Errorf("%w: %q not in fasta", ErrReferenceUnavailable, accession)
	}
	return s, nil
}

// Names lists the records in file order.
func (p *FastaProvider) Names() []string {
	return p.names
}
