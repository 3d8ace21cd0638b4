package repdb

import (
	"github.com/SEEDtk/kernel-sub003/logger"
	"go.uber.org/zap"
)

// MergeOutcome records what happened to one source genome during Update.
// RepID is empty when the genome could not be placed under any target
// representative.
type MergeOutcome struct {
	GenomeID string
	Name     string
	RepID    string
	Score    int
}

// MergeReport summarizes a cross-directory merge.
type MergeReport struct {
	Connected []MergeOutcome
	Outliers  []MergeOutcome
	Skipped   int
}

// Placed reports whether the outcome found a representative.
func (m MergeOutcome) Placed() bool {
	return m.RepID != ""
}

// Update folds the representatives of src into target as represented
// genomes. A source genome already known to the target, either as a
// representative or inside a connect list, is skipped. Every other
// source genome is scored against the target's representatives and
// connected to its best match when the score clears minScore; genomes
// clearing nothing are returned as outliers and left out of the target.
//
// The target itself gains no new representatives; growing the
// representative set is a curation decision, not a merge side effect.
func Update(target, src *DB, minScore int) *MergeReport {
	report := &MergeReport{}

	for _, g := range src.Reps() {
		if target.IsRepresentative(g.GenomeID) || target.isRepresented(g.GenomeID) {
			report.Skipped++
			continue
		}

		var repID string
		var score int
		if src.K == target.K && src.Alpha == target.Alpha {
			repID, score = target.bestMatchSet(g.Kmers())
		} else {
			// kmer sets cached under a different K or alphabet say
			// nothing about the target; rebuild from the raw sequence.
			repID, score = target.BestMatch(g.Protein)
		}

		outcome := MergeOutcome{GenomeID: g.GenomeID, Name: g.Name, Score: score}
		if repID != "" && score >= minScore {
			outcome.RepID = repID
			if err := target.Connect(repID, g.GenomeID, score); err != nil {
				logger.Warn("Connect failed during merge", zap.String("rep_id", repID), zap.Error(err))
				continue
			}
			report.Connected = append(report.Connected, outcome)
		} else {
			report.Outliers = append(report.Outliers, outcome)
		}
	}

	return report
}

func (db *DB) isRepresented(genomeID string) bool {
	return len(db.RepresentativesOf(genomeID)) > 0
}
