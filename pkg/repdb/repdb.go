// In-memory database of representative genomes keyed by their seed
// marker protein (Phenylalanyl-tRNA synthetase alpha chain). Similarity
// between genomes is the number of protein k-mers their markers share.

package repdb

import (
	"errors"
	"fmt"

	"github.com/SEEDtk/kernel-sub003/pkg/kmers"
)

// Stock parameters for a representative set. A persisted K file
// overrides both; the defaults only apply when the caller asks for them.
const (
	DefaultK        = 8
	DefaultMinScore = 100
)

// Defining possible errors
var (
	ErrMalformedDirectory    = errors.New("rep-genome directory is missing required files")
	ErrDuplicateGenome       = errors.New("genome ID already present in the representative set")
	ErrSequenceTooShort      = errors.New("marker sequence is not longer than the kmer size")
	ErrUnknownRepresentative = errors.New("representative genome ID is not in the set")
)

// RepGenome is one representative: its ID, display name, seed protein
// and the protein's cached k-mer set.
type RepGenome struct {
	GenomeID string
	Name     string
	Protein  string

	mers        kmers.Set
	represented []Represented
}

// Represented records one genome connected to a representative.
type Represented struct {
	GenomeID string `json:"genome_id"`
	Score    int    `json:"score"`
}

// Placement names the representative claiming a genome and the score
// it was connected at.
type Placement struct {
	RepID string `json:"rep_id"`
	Score int    `json:"score"`
}

// Kmers exposes the cached marker k-mer set. Computed once at insertion;
// callers must not mutate it.
func (g *RepGenome) Kmers() kmers.Set {
	return g.mers
}

// Score counts the marker k-mers shared with another representative.
func (g *RepGenome) Score(other *RepGenome) int {
	return kmers.Shared(g.mers, other.mers)
}

// RepresentedCount reports how many genomes have been connected to g.
func (g *RepGenome) RepresentedCount() int {
	return len(g.represented)
}

// DB holds the representative collection. Insertion order is stored
// explicitly so that tie-breaks and persisted output are reproducible
// run over run.
type DB struct {
	K        int
	MinScore int

	// Alpha picks the extraction alphabet. The zero value is protein;
	// DNA sets are canonical (reverse-complement minimum). Change it
	// before the first Insert, never after.
	Alpha kmers.Alphabet

	order []*RepGenome
	byID  map[string]*RepGenome
}

// New creates an empty representative set for the given kmer size and
// default build threshold.
func New(k, minScore int) *DB {
	return &DB{
		K:        k,
		MinScore: minScore,
		byID:     make(map[string]*RepGenome),
	}
}

// Size returns the number of representatives.
func (db *DB) Size() int {
	return len(db.order)
}

func (db *DB) extract(seq string) kmers.Set {
	x := kmers.Extractor{K: db.K, Alpha: db.Alpha}
	return x.Extract(seq)
}

// Insert adds a representative. The marker's k-mer set is computed here
// and cached for every later query. A duplicate ID or a marker no longer
// than K leaves the set unchanged.
func (db *DB) Insert(genomeID, name, protein string) error {
	if _, ok := db.byID[genomeID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGenome, genomeID)
	}
	if len(protein) <= db.K {
		return fmt.Errorf("%w: %s has %d residues at K=%d", ErrSequenceTooShort, genomeID, len(protein), db.K)
	}

	g := &RepGenome{
		GenomeID: genomeID,
		Name:     name,
		Protein:  protein,
		mers:     db.extract(protein),
	}
	db.order = append(db.order, g)
	db.byID[genomeID] = g
	return nil
}

// IsRepresentative reports whether genomeID is in the set.
func (db *DB) IsRepresentative(genomeID string) bool {
	_, ok := db.byID[genomeID]
	return ok
}

// Get returns the representative for genomeID.
func (db *DB) Get(genomeID string) (*RepGenome, bool) {
	g, ok := db.byID[genomeID]
	return g, ok
}

// Reps returns the representatives in insertion order. The slice is a
// copy; the entries are shared.
func (db *DB) Reps() []*RepGenome {
	out := make([]*RepGenome, len(db.order))
	copy(out, db.order)
	return out
}

// BestMatch scores seq against every representative and returns the
// winner with its score. Ties go to the earlier-inserted representative,
// so repeated runs against an unchanged set reproduce exactly. A query
// too short to yield k-mers, or an empty set, finds no match ("", 0).
func (db *DB) BestMatch(seq string) (string, int) {
	return db.bestMatchSet(db.extract(seq))
}

func (db *DB) bestMatchSet(qs kmers.Set) (string, int) {
	if len(qs) == 0 {
		return "", 0
	}

	bestID, best := "", -1
	for _, g := range db.order {
		// Strictly greater: the first-inserted holder keeps a tied score.
		if s := kmers.Shared(qs, g.mers); s > best {
			bestID, best = g.GenomeID, s
		}
	}
	if bestID == "" {
		return "", 0
	}
	return bestID, best
}

// MatchesAbove returns every representative scoring at least minScore
// against seq. An empty map is the normal "unrepresented" outcome,
// not an error.
func (db *DB) MatchesAbove(seq string, minScore int) map[string]int {
	return db.matchesAboveSet(db.extract(seq), minScore)
}

func (db *DB) matchesAboveSet(qs kmers.Set, minScore int) map[string]int {
	out := make(map[string]int)
	if len(qs) == 0 {
		return out
	}
	for _, g := range db.order {
		if s := kmers.Shared(qs, g.mers); s >= minScore {
			out[g.GenomeID] = s
		}
	}
	return out
}

// CountAbove reports how many representatives score at least minScore,
// without building the match map. Used by batch loops that only need
// the count.
func (db *DB) CountAbove(seq string, minScore int) int {
	qs := db.extract(seq)
	if len(qs) == 0 {
		return 0
	}
	n := 0
	for _, g := range db.order {
		if kmers.Shared(qs, g.mers) >= minScore {
			n++
		}
	}
	return n
}

// Connect records that genomeID is represented by repID with the given
// score. The representative must already be in the set.
func (db *DB) Connect(repID, genomeID string, score int) error {
	g, ok := db.byID[repID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRepresentative, repID)
	}
	g.represented = append(g.represented, Represented{GenomeID: genomeID, Score: score})
	return nil
}

// RepresentedList returns the genomes connected to repID, in connect
// order.
func (db *DB) RepresentedList(repID string) ([]Represented, error) {
	g, ok := db.byID[repID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRepresentative, repID)
	}
	out := make([]Represented, len(g.represented))
	copy(out, g.represented)
	return out, nil
}

// RepresentativesOf is the reverse lookup: every representative whose
// connect list names genomeID. Usually zero or one entry, but a genome
// near a threshold boundary can sit under several.
func (db *DB) RepresentativesOf(genomeID string) []Placement {
	var out []Placement
	for _, g := range db.order {
		for _, r := range g.represented {
			if r.GenomeID == genomeID {
				out = append(out, Placement{RepID: g.GenomeID, Score: r.Score})
			}
		}
	}
	return out
}
