package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/SEEDtk/kernel-sub003/pkg/cache"
	"github.com/SEEDtk/kernel-sub003/pkg/kmers"
	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
	"github.com/SEEDtk/kernel-sub003/pkg/report"
)

func classifyCommand() *cobra.Command {
	var (
		dir      string
		input    string
		output   string
		strategy string
		minScore int
		all      bool
		dna      bool
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Assign query genomes to their closest representatives",
		Long: `Classify reads marker sequences from a query FASTA and reports, for
each query, the closest representative and the number of k-mers their
markers share. Queries that clear the minimum score nowhere get
` + report.NoneMarker + ` in the rep columns.

With --all, every representative clearing the minimum score is listed
instead of just the best one. --strategy scaled reports the score as
shared k-mers per hundred k-mers of the smaller set; matching and
thresholds always use the raw count.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(repDir(dir), input, output, strategy, minScore, all, dna)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Rep-genome directory (default $REPDB_DATA or ./data)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Query FASTA (default stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output table (default stdout)")
	cmd.Flags().IntVarP(&minScore, "min-score", "m", -1, "Minimum similarity score (default: the directory's stored threshold)")
	cmd.Flags().BoolVar(&all, "all", false, "Report every representative above the minimum score")
	cmd.Flags().BoolVar(&dna, "dna", false, "Treat the directory and queries as DNA")
	cmd.Flags().StringVar(&strategy, "strategy", "raw", "Score column strategy: raw or scaled")
	cmd.Flags().SortFlags = false
	return cmd
}

// classifyRow carries the raw classification plus the scaled score,
// which only the scaled strategy prints.
type classifyRow struct {
	report.Classification
	scaled float64
}

func runClassify(dir, input, output, strategyName string, minScore int, all, dna bool) error {
	strat, err := kmers.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	db, err := loadRepDir(dir, dna)
	if err != nil {
		return err
	}
	if minScore < 0 {
		minScore = db.MinScore
	}

	in, err := openInput(input)
	if err != nil {
		return err
	}
	defer in.Close()

	queries, err := repdb.ReadQueries(in)
	if err != nil {
		return err
	}

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()

	// Pooled samples repeat sequences; memoize the best-match scan per
	// distinct query.
	cc, err := cache.New(cache.DefaultSize)
	if err != nil {
		return err
	}

	// The scaled strategy needs the query's own set for its denominator.
	var extractor *kmers.Extractor
	if strat == kmers.StrategyScaled {
		alpha := kmers.AminoAcid
		if dna {
			alpha = kmers.DNA
		}
		extractor, err = kmers.NewExtractor(db.K, alpha)
		if err != nil {
			return err
		}
	}

	bar := pb.Full.Start(len(queries))
	bar.SetWriter(os.Stderr)

	rows := make([]classifyRow, 0, len(queries))
	for _, q := range queries {
		var qs kmers.Set
		if extractor != nil {
			qs = extractor.Extract(q.Protein)
		}

		if all {
			matches := db.MatchesAbove(q.Protein, minScore)
			found := false
			for _, g := range db.Reps() {
				score, ok := matches[g.GenomeID]
				if !ok {
					continue
				}
				found = true
				rows = append(rows, newClassifyRow(db, strat, q.GenomeID, qs, g.GenomeID, score))
			}
			if !found {
				rows = append(rows, classifyRow{Classification: report.Classification{QueryID: q.GenomeID}})
			}
		} else {
			rep, score := cc.BestMatch(db, q.Protein)
			if rep == "" || score < minScore {
				rows = append(rows, classifyRow{Classification: report.Classification{QueryID: q.GenomeID, Score: score}})
			} else {
				rows = append(rows, newClassifyRow(db, strat, q.GenomeID, qs, rep, score))
			}
		}
		bar.Increment()
	}
	bar.Finish()

	return writeClassifyRows(out, strat, rows)
}

func newClassifyRow(db *repdb.DB, strat kmers.Strategy, queryID string, qs kmers.Set, repID string, raw int) classifyRow {
	row := classifyRow{Classification: report.Classification{QueryID: queryID, RepID: repID, Score: raw}}
	if g, ok := db.Get(repID); ok {
		row.RepName = g.Name
		if strat == kmers.StrategyScaled {
			row.scaled = strat.Score(qs, g.Kmers())
		}
	}
	return row
}

func writeClassifyRows(w io.Writer, strat kmers.Strategy, rows []classifyRow) error {
	if strat != kmers.StrategyScaled {
		flat := make([]report.Classification, len(rows))
		for i, r := range rows {
			flat[i] = r.Classification
		}
		return report.WriteClassifications(w, flat)
	}

	if _, err := fmt.Fprintln(w, "query_id\trep_id\trep_name\tscore"); err != nil {
		return err
	}
	for _, r := range rows {
		rep_id, rep_name := r.RepID, r.RepName
		if !r.Placed() {
			rep_id, rep_name = report.NoneMarker, report.NoneMarker
		}
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.QueryID, rep_id, rep_name, strconv.FormatFloat(r.scaled, 'f', 2, 64))
		if err != nil {
			return err
		}
	}
	return nil
}
