// Package report renders pipeline results as tab-delimited tables,
// the interchange format the surrounding tooling consumes.
package report

import (
	"fmt"
	"io"

	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
)

// NoneMarker fills the representative columns for a query no
// representative could claim. Downstream scripts key on the literal.
const NoneMarker = "<none>"

// Classification is one query's placement.
type Classification struct {
	QueryID string
	RepID   string
	RepName string
	Score   int
}

// Placed reports whether a representative claimed the query.
func (c Classification) Placed() bool {
	return c.RepID != ""
}

// WriteClassifications writes the four-column placement table.
// Unplaced queries carry NoneMarker; an unrepresented genome is a
// result, not an error.
func WriteClassifications(w io.Writer, rows []Classification) error {
	if _, err := fmt.Fprintln(w, "query_id\trep_id\trep_name\tscore"); err != nil {
		return err
	}
	for _, c := range rows {
		rep_id, rep_name := c.RepID, c.RepName
		if !c.Placed() {
			rep_id, rep_name = NoneMarker, NoneMarker
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.QueryID, rep_id, rep_name, c.Score); err != nil {
			return err
		}
	}
	return nil
}

// Pair is one similarity-matrix cell at or above the threshold.
type Pair struct {
	GenomeA string
	GenomeB string
	Score   int
}

// Matrix scores every unordered pair of representatives and keeps the
// ones reaching minScore. Pairs come out row-major in insertion order,
// so output is reproducible run to run.
func Matrix(db *repdb.DB, minScore int) []Pair {
	reps := db.Reps()
	var out []Pair
	for i, a := range reps {
		for _, b := range reps[i+1:] {
			if s := a.Score(b); s >= minScore {
				out = append(out, Pair{GenomeA: a.GenomeID, GenomeB: b.GenomeID, Score: s})
			}
		}
	}
	return out
}

// WriteMatrix writes the three-column pair table.
func WriteMatrix(w io.Writer, pairs []Pair) error {
	if _, err := fmt.Fprintln(w, "genome_id1\tgenome_id2\tscore"); err != nil {
		return err
	}
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", p.GenomeA, p.GenomeB, p.Score); err != nil {
			return err
		}
	}
	return nil
}

// WriteGroups writes one row per group member, grouped under each
// representative in insertion order.
func WriteGroups(w io.Writer, db *repdb.DB, groups map[string]*repdb.Group) error {
	if _, err := fmt.Fprintln(w, "rep_id\trep_name\tgenome_id\tscore"); err != nil {
		return err
	}
	for _, g := range db.Reps() {
		grp, ok := groups[g.GenomeID]
		if !ok {
			continue
		}
		for _, member := range grp.Members() {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
				g.GenomeID, g.Name, member, grp.Scores[member]); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteRepList writes the representative roster with member counts.
func WriteRepList(w io.Writer, db *repdb.DB) error {
	if _, err := fmt.Fprintln(w, "genome_id\tname\trepresented"); err != nil {
		return err
	}
	for _, g := range db.Reps() {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", g.GenomeID, g.Name, g.RepresentedCount()); err != nil {
			return err
		}
	}
	return nil
}

// WriteMergeReport writes the outcome of a directory merge: connected
// genomes first, outliers after, NoneMarker standing in for the
// missing representative.
func WriteMergeReport(w io.Writer, rep *repdb.MergeReport) error {
	if _, err := fmt.Fprintln(w, "genome_id\tname\trep_id\tscore"); err != nil {
		return err
	}
	write := func(o repdb.MergeOutcome) error {
		rep_id := o.RepID
		if !o.Placed() {
			rep_id = NoneMarker
		}
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", o.GenomeID, o.Name, rep_id, o.Score)
		return err
	}
	for _, o := range rep.Connected {
		if err := write(o); err != nil {
			return err
		}
	}
	for _, o := range rep.Outliers {
		if err := write(o); err != nil {
			return err
		}
	}
	return nil
}

// RoleSet pairs a representative with the core roles derived for its
// group.
type RoleSet struct {
	RepID string
	Roles []string
}

// WriteRoles writes the core-role table, one line per (rep, role).
// Role order within a set is left to the caller.
func WriteRoles(w io.Writer, sets []RoleSet) error {
	if _, err := fmt.Fprintln(w, "rep_id\trole"); err != nil {
		return err
	}
	for _, set := range sets {
		for _, role := range set.Roles {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", set.RepID, role); err != nil {
				return err
			}
		}
	}
	return nil
}
