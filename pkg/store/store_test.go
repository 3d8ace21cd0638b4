package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
)

const testMarker = "MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQAPILSRVGDGTQDNLSGAEKAVQVKVKALPDAQFEVVHSLAKWKRQTLGQHDFSAGEGLYTHMKALRPDEDRLSPLHSVYVDQWDWELVMGDGERQFSTLKSTVEAIWAGIKATEAA"

func buildTestDB(t *testing.T) *repdb.DB {
	t.Helper()
	rdb := repdb.New(8, 50)
	if err := rdb.Insert("100.1", "Escherichia coli K-12", testMarker); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := rdb.Insert("100.2", "Salmonella enterica LT2", testMarker+"LLKQWE"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := rdb.Connect("100.1", "300.7", 140); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := rdb.Connect("100.1", "300.8", 95); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return rdb
}

func TestSaveLoadMirror(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "repdb.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	orig := buildTestDB(t)
	if err := s.SaveDB(ctx, orig); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.LoadDB(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.K != orig.K || loaded.MinScore != orig.MinScore {
		t.Errorf("parms = (%d, %d), want (%d, %d)", loaded.K, loaded.MinScore, orig.K, orig.MinScore)
	}
	if loaded.Size() != orig.Size() {
		t.Fatalf("Size = %d, want %d", loaded.Size(), orig.Size())
	}

	orig_reps := orig.Reps()
	for i, g := range loaded.Reps() {
		if g.GenomeID != orig_reps[i].GenomeID || g.Name != orig_reps[i].Name {
			t.Errorf("rep %d = %s, want %s", i, g.GenomeID, orig_reps[i].GenomeID)
		}
	}

	list, err := loaded.RepresentedList("100.1")
	if err != nil {
		t.Fatalf("represented list: %v", err)
	}
	if len(list) != 2 || list[0].GenomeID != "300.7" || list[1].GenomeID != "300.8" {
		t.Errorf("represented list = %+v, want [300.7 300.8]", list)
	}
}

func TestSaveDBReplacesPriorContents(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "repdb.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.SaveDB(ctx, buildTestDB(t)); err != nil {
		t.Fatalf("first save: %v", err)
	}

	smaller := repdb.New(8, 50)
	if err := smaller.Insert("500.5", "Vibrio cholerae N16961", testMarker); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.SaveDB(ctx, smaller); err != nil {
		t.Fatalf("second save: %v", err)
	}

	reps, err := s.Representatives(ctx)
	if err != nil {
		t.Fatalf("representatives: %v", err)
	}
	if len(reps) != 1 || reps[0].GenomeID != "500.5" {
		t.Errorf("representatives = %+v, want just 500.5", reps)
	}
}

func TestRepresentativesSummary(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "repdb.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.SaveDB(ctx, buildTestDB(t)); err != nil {
		t.Fatalf("save: %v", err)
	}

	reps, err := s.Representatives(ctx)
	if err != nil {
		t.Fatalf("representatives: %v", err)
	}
	if len(reps) != 2 {
		t.Fatalf("got %d rows, want 2", len(reps))
	}
	if reps[0].GenomeID != "100.1" || reps[0].Represented != 2 {
		t.Errorf("row 0 = %+v, want 100.1 with 2 represented", reps[0])
	}
	if reps[1].GenomeID != "100.2" || reps[1].Represented != 0 {
		t.Errorf("row 1 = %+v, want 100.2 with 0 represented", reps[1])
	}

	members, err := s.RepresentedOf(ctx, "100.1")
	if err != nil {
		t.Fatalf("represented of: %v", err)
	}
	if len(members) != 2 || members[0].GenomeID != "300.7" || members[0].Score != 140 {
		t.Errorf("members = %+v, want 300.7 first at 140", members)
	}

	placements, err := s.PlacementsOf(ctx, "300.7")
	if err != nil {
		t.Fatalf("placements of: %v", err)
	}
	if len(placements) != 1 || placements[0].RepID != "100.1" || placements[0].Score != 140 {
		t.Errorf("placements = %+v, want 100.1 at 140", placements)
	}

	if none, err := s.PlacementsOf(ctx, "999.9"); err != nil || len(none) != 0 {
		t.Errorf("placements of unknown genome = (%+v, %v), want empty", none, err)
	}
}
