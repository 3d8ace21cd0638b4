package repdb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/SEEDtk/kernel-sub003/pkg/kmers"
)

func TestBuildGroups(t *testing.T) {
	db := New(8, 100)
	marker_b := mutate(markerA, 6)
	mustInsert(t, db, "100.1", "Escherichia coli K-12", markerA)
	mustInsert(t, db, "100.2", "Bacillus subtilis 168", marker_b)

	queries := []QuerySeq{
		{GenomeID: "q1", Protein: markerA},
		{GenomeID: "q2", Protein: mutate(markerA, 35)},
		{GenomeID: "q3", Protein: strings.Repeat("X", 40)},
		{GenomeID: "q4", Protein: "MKTAYIA"},
	}

	groups := BuildGroups(db, queries, 100)

	grp, ok := groups["100.1"]
	if !ok {
		t.Fatal("no group formed under 100.1")
	}
	members := grp.Members()
	if len(members) != 2 || members[0] != "q1" || members[1] != "q2" {
		t.Errorf("members of 100.1 = %v, want [q1 q2]", members)
	}
	if want := len(kmers.Extract(markerA, 8)); grp.Scores["q1"] != want {
		t.Errorf("score of q1 = %d, want self-similarity %d", grp.Scores["q1"], want)
	}

	// Membership in the second group follows the direct k-mer
	// computation, whichever way it falls for this fixture.
	q2_in_b := kmers.Shared(
		kmers.Extract(queries[1].Protein, 8), kmers.Extract(marker_b, 8)) >= 100
	got_b := false
	if grp_b, ok := groups["100.2"]; ok {
		_, got_b = grp_b.Scores["q2"]
	}
	if got_b != q2_in_b {
		t.Errorf("q2 in group 100.2 = %v, direct computation says %v", got_b, q2_in_b)
	}

	// Indeterminate queries land nowhere: q3 is long enough but all
	// ambiguity codes, q4 is shorter than K.
	for rep_id, g := range groups {
		for _, id := range []string{"q3", "q4"} {
			if _, ok := g.Scores[id]; ok {
				t.Errorf("%s assigned to %s despite having no k-mers", id, rep_id)
			}
		}
	}
}

func TestCommonRoles(t *testing.T) {
	group := &Group{RepID: "100.1", Scores: make(map[string]int)}
	role_counts := make(map[string]map[string]int)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("g%02d", i)
		group.Scores[id] = 150
		counts := map[string]int{"Phenylalanyl-tRNA synthetase alpha chain": 1}
		if i < 8 {
			counts["DNA polymerase III beta subunit"] = 2
		}
		if i < 3 {
			counts["Arsenical resistance operon repressor"] = 1
		}
		if i == 0 {
			counts["Hypothetical protein"] = 0
		}
		role_counts[id] = counts
	}

	roles := CommonRoles(group, role_counts, 80, 5)
	for _, want := range []string{
		"Phenylalanyl-tRNA synthetase alpha chain",
		"DNA polymerase III beta subunit",
	} {
		if !roles[want] {
			t.Errorf("core roles missing %q", want)
		}
	}
	if roles["Arsenical resistance operon repressor"] {
		t.Error("3-of-10 role passed the 80 percent bar")
	}
	if roles["Hypothetical protein"] {
		t.Error("zero-count role treated as present")
	}

	if got := CommonRoles(group, role_counts, 80, 50); got != nil {
		t.Errorf("undersized group produced roles %v, want nil", got)
	}

	// A zero percent bar still needs one occurrence.
	loose := CommonRoles(group, role_counts, 0, 5)
	if !loose["Arsenical resistance operon repressor"] {
		t.Error("rare role missing at a zero percent bar")
	}
	if loose["Hypothetical protein"] {
		t.Error("zero-count role present at a zero percent bar")
	}
}

func TestReadRoleCounts(t *testing.T) {
	input := "200.1\tPhenylalanyl-tRNA synthetase alpha chain\t1\n" +
		"200.1\tDNA gyrase subunit B\n" +
		"200.1\tDNA gyrase subunit B\t2\n" +
		"200.2\tPhenylalanyl-tRNA synthetase alpha chain\t1\n" +
		"garbage-no-tab\n" +
		"200.3\tBroken count\txyz\n"

	counts, err := ReadRoleCounts(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if got := counts["200.1"]["Phenylalanyl-tRNA synthetase alpha chain"]; got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
	if got := counts["200.1"]["DNA gyrase subunit B"]; got != 3 {
		t.Errorf("accumulated count = %d, want 3", got)
	}
	if got := counts["200.2"]["Phenylalanyl-tRNA synthetase alpha chain"]; got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
	if _, ok := counts["200.3"]; ok {
		t.Error("line with unparseable count was kept")
	}
}
