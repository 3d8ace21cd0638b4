package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
	"github.com/SEEDtk/kernel-sub003/pkg/report"
)

func updateCommand() *cobra.Command {
	var (
		targetDir string
		sourceDir string
		output    string
		dbPath    string
		minScore  int
		saveList  bool
		dna       bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Fold another directory's genomes into this one",
		Long: `Update loads a source directory and finds, for each of its genomes not
already known to the target, the best-matching target representative.
Genomes clearing the minimum score are connected; the rest are
reported as outliers. The target gains no new representatives either
way.

When the two directories were built at different k-mer sizes, source
markers are rescored at the target's size.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(repDir(targetDir), sourceDir, output, dbPath, minScore, saveList, dna)
		},
	}
	cmd.Flags().StringVarP(&targetDir, "target", "t", "", "Target directory (default $REPDB_DATA or ./data)")
	cmd.Flags().StringVarP(&sourceDir, "source", "s", "", "Source directory to merge from")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Merge report (default stdout)")
	cmd.Flags().IntVarP(&minScore, "min-score", "m", -1, "Minimum similarity score (default: the target's stored threshold)")
	cmd.Flags().BoolVar(&saveList, "save-list", false, "Write the grown connect lists back to the target's rep_db.tbl")
	cmd.Flags().StringVar(&dbPath, "db", "", "Mirror the target into this sqlite database")
	cmd.Flags().BoolVar(&dna, "dna", false, "Treat both directories as DNA")
	cmd.Flags().SortFlags = false
	cmd.MarkFlagRequired("source")
	return cmd
}

func runUpdate(targetDir, sourceDir, output, dbPath string, minScore int, saveList, dna bool) error {
	target, err := loadRepDir(targetDir, dna)
	if err != nil {
		return err
	}
	src, err := loadRepDir(sourceDir, dna)
	if err != nil {
		return err
	}
	if minScore < 0 {
		minScore = target.MinScore
	}

	rep := repdb.Update(target, src, minScore)
	logger.Info("Merge complete",
		zap.Int("connected", len(rep.Connected)),
		zap.Int("outliers", len(rep.Outliers)),
		zap.Int("skipped", rep.Skipped))

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := report.WriteMergeReport(out, rep); err != nil {
		return err
	}

	if saveList {
		if err := target.SaveList(targetDir); err != nil {
			return err
		}
		logger.Info("Wrote represented lists", zap.String("dir", targetDir))
	}
	if dbPath != "" {
		return mirrorToStore(dbPath, target)
	}
	return nil
}
