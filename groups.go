package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
	"github.com/SEEDtk/kernel-sub003/pkg/report"
	"github.com/SEEDtk/kernel-sub003/pkg/store"
)

func groupsCommand() *cobra.Command {
	var (
		dir      string
		input    string
		output   string
		dbPath   string
		minScore int
		saveList bool
		dna      bool
	)
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Group query genomes under their representatives",
		Long: `Groups runs every query marker against the directory and connects it
to each representative it scores at least the minimum against. One
genome can land in several groups near a threshold boundary; that
multiplicity is kept, not resolved.

The grouping is written as a table. --save-list also records it in
the directory's rep_db.tbl; --db mirrors it into a sqlite database
for the HTTP service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroups(repDir(dir), input, output, dbPath, minScore, saveList, dna)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Rep-genome directory (default $REPDB_DATA or ./data)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Query FASTA (default stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output table (default stdout)")
	cmd.Flags().IntVarP(&minScore, "min-score", "m", -1, "Minimum similarity score (default: the directory's stored threshold)")
	cmd.Flags().BoolVar(&saveList, "save-list", false, "Write the connect lists back to rep_db.tbl")
	cmd.Flags().StringVar(&dbPath, "db", "", "Mirror the connect lists into this sqlite database")
	cmd.Flags().BoolVar(&dna, "dna", false, "Treat the directory and queries as DNA")
	cmd.Flags().SortFlags = false
	return cmd
}

func runGroups(dir, input, output, dbPath string, minScore int, saveList, dna bool) error {
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

	groups := repdb.BuildGroups(db, queries, minScore)
	logger.Info("Grouped queries",
		zap.Int("queries", len(queries)), zap.Int("groups", len(groups)))

	// Record the memberships on the index: representatives in insertion
	// order, members sorted, so repeated runs connect identically. The
	// directory may already hold connect lists; those stay as they are.
	connected := make(map[string]bool)
	for _, g := range db.Reps() {
		list, err := db.RepresentedList(g.GenomeID)
		if err != nil {
			return err
		}
		for _, r := range list {
			connected[g.GenomeID+"\t"+r.GenomeID] = true
		}
	}
	for _, g := range db.Reps() {
		grp, ok := groups[g.GenomeID]
		if !ok {
			continue
		}
		for _, member := range grp.Members() {
			if connected[g.GenomeID+"\t"+member] {
				continue
			}
			if err := db.Connect(g.GenomeID, member, grp.Scores[member]); err != nil {
				return err
			}
		}
	}

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := report.WriteGroups(out, db, groups); err != nil {
		return err
	}

	if saveList {
		if err := db.SaveList(dir); err != nil {
			return err
		}
		logger.Info("Wrote represented lists", zap.String("dir", dir))
	}
	if dbPath != "" {
		return mirrorToStore(dbPath, db)
	}
	return nil
}

// mirrorToStore rewrites the sqlite mirror the HTTP service reads.
func mirrorToStore(path string, db *repdb.DB) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := st.SaveDB(ctx, db); err != nil {
		return err
	}
	logger.Info("Mirrored represented lists to sqlite", zap.String("db", path))
	return nil
}
