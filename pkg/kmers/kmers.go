// K-mer extraction for protein and DNA marker sequences.

package kmers

import (
	"fmt"
	"strings"
)

// Set holds the distinct fixed-length substrings of one sequence.
type Set map[string]bool

// Alphabet selects which residues are admitted during extraction.
type Alphabet int

const (
	AminoAcid Alphabet = iota
	DNA
)

func (a Alphabet) String() string {
	switch a {
	case AminoAcid:
		return "prot"
	case DNA:
		return "dna"
	default:
		return "unknown"
	}
}

// The 20 standard residues. B, J, O, U, X and Z are ambiguity or
// non-standard codes and any k-mer containing them is discarded.
var validAA = [256]bool{
	'A': true, 'C': true, 'D': true, 'E': true, 'F': true,
	'G': true, 'H': true, 'I': true, 'K': true, 'L': true,
	'M': true, 'N': true, 'P': true, 'Q': true, 'R': true,
	'S': true, 'T': true, 'V': true, 'W': true, 'Y': true,
}

var validNT = [256]bool{
	'A': true, 'C': true, 'G': true, 'T': true,
}

var complement = [256]byte{
	'A': 'T', 'T': 'A', 'G': 'C', 'C': 'G',
}

// Extractor produces k-mer sets at a fixed window size for one alphabet.
type Extractor struct {
	K     int
	Alpha Alphabet
}

func NewExtractor(k int, alpha Alphabet) (*Extractor, error) {
	if k < 1 {
		return nil, fmt.Errorf("kmer size must be positive, got %d", k)
	}
	return &Extractor{K: k, Alpha: alpha}, nil
}

// Extract returns the deduplicated k-mer set of seq. Sequences of length
// <= K yield an empty set; callers treat that as indeterminate, not as
// zero similarity.
func (x *Extractor) Extract(seq string) Set {
	valid := &validAA
	if x.Alpha == DNA {
		valid = &validNT
	}

	ret := make(Set)
	if len(seq) <= x.K {
		return ret
	}

	s := strings.ToUpper(seq)

	// bad tracks the most recent position holding a residue outside the
	// alphabet; a window starting at i is clean only once bad < i.
	bad := -1
	for i := 0; i < len(s); i++ {
		if !valid[s[i]] {
			bad = i
		}
		start := i - x.K + 1
		if start < 0 || bad >= start {
			continue
		}
		mer := s[start : i+1]
		if x.Alpha == DNA {
			mer = canonical(mer)
		}
		ret[mer] = true
	}

	return ret
}

// Extract is the protein-alphabet convenience form.
func Extract(seq string, k int) Set {
	x := Extractor{K: k, Alpha: AminoAcid}
	return x.Extract(seq)
}

// ExtractDNA extracts canonicalized nucleotide k-mers: each window is
// replaced by the lexicographic minimum of itself and its reverse
// complement, so both strands of a genome produce the same set.
func ExtractDNA(seq string, k int) Set {
	x := Extractor{K: k, Alpha: DNA}
	return x.Extract(seq)
}

func canonical(mer string) string {
	rc := ReverseComplement(mer)
	if rc < mer {
		return rc
	}
	return mer
}

// ReverseComplement reverses seq and complements each base. Only strict
// ACGT input reaches here from Extract; other bytes map to zero.
func ReverseComplement(seq string) string {
	rc := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		rc[len(seq)-1-i] = complement[seq[i]]
	}
	return string(rc)
}
