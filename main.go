// Command repdb builds, queries and serves representative-genome
// databases: collections of genomes keyed by their seed marker protein
// (Phenylalanyl-tRNA synthetase alpha chain), compared by the number of
// protein k-mers the markers share.
package main

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
)

const version = "0.4.1"

func main() {

	// Establish logger
	if err := logger.InitLogger(logLevel()); err != nil {
		panic(err)
	}

	// Try load env
	dotenvErr := godotenv.Load()

	if dotenvErr != nil {
		logger.Warn("No .env found, using local environment")
	}

	defer logger.Sync() // Make sure that the buffered is flushed.

	root := &cobra.Command{
		Use:   "repdb",
		Short: "Representative-genome database tools",
		Long: `repdb builds, queries and serves representative-genome databases.

A database is a directory holding one seed marker protein per
representative genome; similarity between two genomes is the number
of marker k-mers they share.`,
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		buildCommand(),
		listCommand(),
		classifyCommand(),
		matrixCommand(),
		groupsCommand(),
		rolesCommand(),
		updateCommand(),
		serverCommand(),
		versionCommand(),
	)

	if err := root.Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}

// logLevel maps REPDB_LOG to a zap level; anything but "debug" means
// the info default.
func logLevel() zapcore.Level {
	if os.Getenv("REPDB_LOG") == "debug" {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// repDir resolves the database directory: the flag when given, then
// REPDB_DATA, then ./data.
func repDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("REPDB_DATA"); env != "" {
		return env
	}
	logger.Warn("No local environment (REPDB_DATA), using default value (./data)")
	return "./data"
}

func loadRepDir(dir string, dna bool) (*repdb.DB, error) {
	db, err := repdb.LoadWith(dir, repdb.LoadOptions{DNA: dna})
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded rep-genome directory",
		zap.String("dir", dir),
		zap.Int("representatives", db.Size()),
		zap.Int("K", db.K),
		zap.Int("min_score", db.MinScore))
	return db, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
