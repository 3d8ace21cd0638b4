package repdb

import (
	"strings"
	"testing"

	"github.com/SEEDtk/kernel-sub003/pkg/kmers"
)

func TestUpdateConnectsAndReportsOutliers(t *testing.T) {
	target := New(8, 50)
	mustInsert(t, target, "100.1", "Escherichia coli K-12", markerA)

	near := mutate(markerA, 30)
	far := strings.Repeat("MKWQERTYIPASDFGHLCVN", 5)

	src := New(8, 50)
	mustInsert(t, src, "100.1", "Escherichia coli K-12", markerA)
	mustInsert(t, src, "200.1", "Shigella flexneri 2a", near)
	mustInsert(t, src, "300.1", "Methanococcus jannaschii", far)

	report := Update(target, src, target.MinScore)

	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 for the shared representative", report.Skipped)
	}

	want_score := kmers.Shared(kmers.Extract(near, 8), kmers.Extract(markerA, 8))
	if len(report.Connected) != 1 {
		t.Fatalf("Connected = %+v, want exactly one entry", report.Connected)
	}
	c := report.Connected[0]
	if c.GenomeID != "200.1" || c.RepID != "100.1" || c.Score != want_score {
		t.Errorf("connected = %+v, want 200.1 under 100.1 at %d", c, want_score)
	}

	list, err := target.RepresentedList("100.1")
	if err != nil {
		t.Fatalf("represented list: %v", err)
	}
	if len(list) != 1 || list[0].GenomeID != "200.1" {
		t.Errorf("represented list = %+v, want [200.1]", list)
	}

	if len(report.Outliers) != 1 {
		t.Fatalf("Outliers = %+v, want exactly one entry", report.Outliers)
	}
	if o := report.Outliers[0]; o.GenomeID != "300.1" || o.Placed() {
		t.Errorf("outlier = %+v, want unplaced 300.1", o)
	}

	// A second pass finds everything either representative or already
	// connected; only the outlier comes back.
	again := Update(target, src, target.MinScore)
	if len(again.Connected) != 0 || again.Skipped != 2 || len(again.Outliers) != 1 {
		t.Errorf("second pass = %d connected / %d skipped / %d outliers, want 0/2/1",
			len(again.Connected), again.Skipped, len(again.Outliers))
	}
}

func TestUpdateRescoresAcrossDifferentK(t *testing.T) {
	target := New(8, 50)
	mustInsert(t, target, "100.1", "Escherichia coli K-12", markerA)

	near := mutate(markerA, 20)
	src := New(9, 50)
	mustInsert(t, src, "400.1", "Escherichia fergusonii", near)

	report := Update(target, src, target.MinScore)

	// The source cached 9-mers; the merge must rescore with the
	// target's K.
	want_score := kmers.Shared(kmers.Extract(near, 8), kmers.Extract(markerA, 8))
	if len(report.Connected) != 1 {
		t.Fatalf("Connected = %+v, want exactly one entry", report.Connected)
	}
	if c := report.Connected[0]; c.Score != want_score {
		t.Errorf("score = %d, want %d computed at the target's K", c.Score, want_score)
	}
}

func TestUpdateRescoresAcrossDifferentAlphabets(t *testing.T) {
	target := New(8, 50)
	mustInsert(t, target, "100.1", "Escherichia coli K-12", markerA)

	// The source was built as a DNA set, so its cached canonical k-mers
	// share next to nothing with the target's protein sets even though
	// the raw markers are close relatives. The merge must notice the
	// alphabet mismatch and rescore from the raw sequence.
	near := mutate(markerA, 30)
	src := New(8, 50)
	src.Alpha = kmers.DNA
	mustInsert(t, src, "200.1", "Shigella flexneri 2a", near)

	report := Update(target, src, target.MinScore)

	want_score := kmers.Shared(kmers.Extract(near, 8), kmers.Extract(markerA, 8))
	if len(report.Connected) != 1 {
		t.Fatalf("Connected = %+v, want exactly one entry; outliers = %+v",
			report.Connected, report.Outliers)
	}
	if c := report.Connected[0]; c.RepID != "100.1" || c.Score != want_score {
		t.Errorf("connected = %+v, want 200.1 under 100.1 at %d", c, want_score)
	}
}
