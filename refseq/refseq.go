// Package refseq locates and describes the reference sequence the coverage
// pipeline aligns against.
package refseq

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/grailbio/base/errors"
)

var (
	// ErrNotFound indicates the directory holds no reference fasta file.
	ErrNotFound = errors.New("no reference fasta file found")
	// ErrAmbiguous indicates more than one candidate reference fasta file.
	ErrAmbiguous = errors.New("multiple reference fasta files found")
)

// Reference is a located reference sequence file.
type Reference struct {
	// Path of the fasta file.
	Path string
	// Name is the filename stem; output artifacts are named after it.
	Name string
}

// Locate finds the single .fasta file in dir. Zero or multiple candidates
// are configuration errors (ErrNotFound, ErrAmbiguous). macOS resource-fork
// droppings ("._" prefix) are ignored.
func Locate(dir string) (Reference, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return Reference{}, errors.E(err, "reading reference directory", dir)
	}
	var candidates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".fasta") || strings.HasPrefix(name, "._") {
			continue
		}
		candidates = append(candidates, name)
	}
	switch len(candidates) {
	case 0:
		return Reference{}, ErrNotFound
	case 1:
	default:
		return Reference{}, ErrAmbiguous
	}
	name := candidates[0]
	return Reference{
		Path: filepath.Join(dir, name),
		Name: strings.TrimSuffix(name, ".fasta"),
	}, nil
}

// Describe parses the reference fasta and returns the record ID and length of
// its first sequence. Used for logging and sanity-checking the reference
// before handing it to the aligner.
func (r Reference) Describe() (id string, length int, err error) {
	in, err := os.Open(r.Path)
	if err != nil {
		return "", 0, errors.E(err, "opening reference", r.Path)
	}
	defer in.Close() // nolint: errcheck

	fr := fasta.NewReader(in, linear.NewSeq("", nil, alphabet.DNAredundant))
	s, err := fr.Read()
	if err != nil {
		return "", 0, errors.E(err, "parsing reference", r.Path)
	}
	return s.Name(), s.Len(), nil
}
