package main

import (
	"fmt"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/kmers"
	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
)

func buildCommand() *cobra.Command {
	var (
		fastaFile string
		namesFile string
		dir       string
		kmerSize  int
		minScore  int
		dna       bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a rep-genome directory from marker sequences",
		Long: `Build creates a representative-genome directory from a marker FASTA
and a genomeID<TAB>name table. Records whose marker is too short for
the k-mer size are skipped with a warning; the rest become the
representative set, in file order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(fastaFile, namesFile, repDir(dir), kmerSize, minScore, dna)
		},
	}
	cmd.Flags().StringVarP(&fastaFile, "fasta", "f", "", "Marker FASTA, one record per representative")
	cmd.Flags().StringVarP(&namesFile, "names", "n", "", "Tab-delimited genomeID<TAB>name table")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (default $REPDB_DATA or ./data)")
	cmd.Flags().IntVarP(&kmerSize, "kmer", "k", repdb.DefaultK, "K-mer size")
	cmd.Flags().IntVarP(&minScore, "min-score", "m", repdb.DefaultMinScore, "Default similarity threshold stored with the directory")
	cmd.Flags().BoolVar(&dna, "dna", false, "Treat markers as DNA (canonical k-mers)")
	cmd.Flags().SortFlags = false
	cmd.MarkFlagRequired("fasta")
	cmd.MarkFlagRequired("names")
	return cmd
}

func runBuild(fastaFile, namesFile, dir string, kmerSize, minScore int, dna bool) error {
	if kmerSize < 1 {
		return fmt.Errorf("kmer size must be positive, got %d", kmerSize)
	}

	names, err := repdb.ReadNames(namesFile)
	if err != nil {
		return err
	}

	f, err := os.Open(fastaFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", fastaFile, err)
	}
	defer f.Close()

	records, err := repdb.ReadQueries(f)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no FASTA records in %s", fastaFile)
	}

	db := repdb.New(kmerSize, minScore)
	if dna {
		db.Alpha = kmers.DNA
	}

	bar := pb.Full.Start(len(records))
	bar.SetWriter(os.Stderr)
	for _, rec := range records {
		name, ok := names[rec.GenomeID]
		if !ok {
			logger.Warn("No name for genome", zap.String("genome_id", rec.GenomeID))
			name = "<unknown>"
		}
		if err := db.Insert(rec.GenomeID, name, rec.Protein); err != nil {
			logger.Warn("Skipping record",
				zap.String("genome_id", rec.GenomeID), zap.String("reason", err.Error()))
		}
		bar.Increment()
	}
	bar.Finish()

	if db.Size() == 0 {
		return fmt.Errorf("no usable marker in %s at K=%d", fastaFile, kmerSize)
	}

	if err := db.Save(dir); err != nil {
		return err
	}
	logger.Info("Built rep-genome directory",
		zap.String("dir", dir), zap.Int("representatives", db.Size()), zap.Int("K", db.K))
	return nil
}
