package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/report"
)

func matrixCommand() *cobra.Command {
	var (
		dir      string
		output   string
		minScore int
		dna      bool
	)
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Score every pair of representatives against each other",
		Long: `Matrix scores every unordered pair of representatives and lists the
pairs whose shared k-mer count clears the minimum score. Pairs near
the build threshold mark representatives close enough that one of
them may be redundant. Use --min-score 0 for the complete matrix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := loadRepDir(repDir(dir), dna)
			if err != nil {
				return err
			}
			if minScore < 0 {
				minScore = db.MinScore
			}

			pairs := report.Matrix(db, minScore)
			logger.Info("Scored representative pairs",
				zap.Int("representatives", db.Size()),
				zap.Int("pairs_reported", len(pairs)),
				zap.Int("min_score", minScore))

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()
			return report.WriteMatrix(out, pairs)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Rep-genome directory (default $REPDB_DATA or ./data)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output table (default stdout)")
	cmd.Flags().IntVarP(&minScore, "min-score", "m", -1, "Minimum similarity score (default: the directory's stored threshold)")
	cmd.Flags().BoolVar(&dna, "dna", false, "Treat the directory as DNA")
	cmd.Flags().SortFlags = false
	return cmd
}
