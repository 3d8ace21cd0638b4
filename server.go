package main

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEEDtk/kernel-sub003/internal/util"
	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/cache"
	"github.com/SEEDtk/kernel-sub003/pkg/handler"
	"github.com/SEEDtk/kernel-sub003/pkg/middle"
	"github.com/SEEDtk/kernel-sub003/pkg/store"
)

// StoreFileName is the sqlite mirror the service prefers for roster and
// reverse lookups. The flat files stay the source of truth; the mirror
// is written by groups --db / update --db.
const StoreFileName = "rep_db.sqlite"

func serverCommand() *cobra.Command {
	var (
		dir    string
		addr   string
		dbPath string
		dna    bool
	)
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the directory over HTTP",
		Long: `Server loads the directory into memory and serves classification and
lookup endpoints. The listen address comes from --addr, then
REPDB_ADDR, then :8080.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(repDir(dir), addr, dbPath, dna)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Rep-genome directory (default $REPDB_DATA or ./data)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default $REPDB_ADDR or :8080)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Sqlite mirror (default <dir>/"+StoreFileName+" when present)")
	cmd.Flags().BoolVar(&dna, "dna", false, "Treat the directory and query bodies as DNA")
	cmd.Flags().SortFlags = false
	return cmd
}

func runServer(dir, addr, dbPath string, dna bool) error {
	if addr == "" {
		addr = os.Getenv("REPDB_ADDR")
	}
	if addr == "" {
		logger.Warn("No local environment (REPDB_ADDR), using default value (:8080)")
		addr = ":8080"
	}

	db, err := loadRepDir(dir, dna)
	if err != nil {
		return err
	}

	cc, err := cache.New(cache.DefaultSize)
	if err != nil {
		return err
	}

	rctx := &handler.RepContext{
		DB:    db,
		Cache: cc,
		Jobs:  handler.NewClassifyJobManager(),
	}

	if dbPath == "" {
		if candidate := filepath.Join(dir, StoreFileName); util.FileExists(candidate) {
			dbPath = candidate
		}
	}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		rctx.Store = st
		logger.Info("Open database on", zap.String("DB_LOC", dbPath))
	}

	logger.Info("Start:", zap.String("Version", version))

	mux := NewRouter(rctx)

	// Apply middleware
	mlog := middle.CreateMiddlewareLogger(logLevel())
	wrapped := middle.RequestIDMiddleware(mlog)(middle.LoggingMiddleware(mlog)(mux))

	logger.Info("Server starting", zap.String("addr", addr))
	if httpErr := http.ListenAndServe(addr, wrapped); httpErr != nil {
		logger.Error("Error starting server:", zap.String("error message", httpErr.Error()))
		return httpErr
	}
	return nil
}

func NewRouter(rctx *handler.RepContext) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", rctx.HealthCheck)

	// Roster and lookups
	mux.HandleFunc("GET /reps", rctx.ListRepsHandler)
	mux.HandleFunc("GET /rep/{genome_id}", rctx.RepDetailHandler)
	mux.HandleFunc("GET /represented", rctx.RepresentedHandler)

	// Classification
	mux.HandleFunc("POST /classify", rctx.ClassifyHandler)
	mux.HandleFunc("POST /classify/job", rctx.ClassifySubmitHandler)
	mux.HandleFunc("GET /classify/job/{job_id}", rctx.ClassifyJobStatusHandler)

	return mux
}
