package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/middle"
	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
	"github.com/SEEDtk/kernel-sub003/pkg/report"
	"go.uber.org/zap"
)

// ClassifyResult is one placement row of an async job, mirroring the
// columns of the tab-delimited report.
type ClassifyResult struct {
	QueryID string `json:"query_id"`
	RepID   string `json:"rep_id"`
	RepName string `json:"rep_name"`
	Score   int    `json:"score"`
}

// classifyParams reads the shared query-string knobs. min_score
// defaults to the set's configured threshold.
func (rctx *RepContext) classifyParams(r *http.Request) (int, bool, error) {
	min_score := rctx.DB.MinScore
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, false, fmt.Errorf("min_score must be an integer")
		}
		min_score = parsed
	}

	all := false
	if raw := r.URL.Query().Get("all"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return 0, false, fmt.Errorf("all must be bool-like")
		}
		all = parsed
	}

	return min_score, all, nil
}

// ClassifyHandler places a FASTA stream of query markers and writes
// the four-column report back.
func (rctx *RepContext) ClassifyHandler(w http.ResponseWriter, r *http.Request) {

	min_score, all, err := rctx.classifyParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	queries, err := repdb.ReadQueries(r.Body)
	if err != nil {
		logger.Error("Bad classify body", zap.Error(err))
		http.Error(w, "Invalid FASTA body", http.StatusBadRequest)
		return
	}
	if len(queries) == 0 {
		http.Error(w, "FASTA body cannot be empty", http.StatusBadRequest)
		return
	}

	rows := rctx.classifyQueries(queries, min_score, all)

	w.Header().Set("Content-Type", "text/tab-separated-values")
	if err := report.WriteClassifications(w, rows); err != nil {
		logger.Error("Writing classify report failed", zap.Error(err))
	}
}

// ClassifySubmitHandler queues the batch and returns the job handle
// right away.
func (rctx *RepContext) ClassifySubmitHandler(w http.ResponseWriter, r *http.Request) {

	if rctx.Jobs == nil {
		http.Error(w, "Job queue not enabled", http.StatusServiceUnavailable)
		return
	}

	min_score, all, err := rctx.classifyParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	queries, err := repdb.ReadQueries(r.Body)
	if err != nil {
		logger.Error("Bad classify body", zap.Error(err))
		http.Error(w, "Invalid FASTA body", http.StatusBadRequest)
		return
	}
	if len(queries) == 0 {
		http.Error(w, "FASTA body cannot be empty", http.StatusBadRequest)
		return
	}

	job := rctx.Jobs.NewJob()
	go rctx.runClassifyJob(job.ID, queries, min_score, all)

	// The job outlives the request; the request id is the only thread
	// tying the two together in the logs.
	logger.Info("Classify job queued",
		zap.String("job_id", job.ID),
		zap.String("request_id", middle.RequestID(r.Context())),
		zap.Int("queries", len(queries)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(job)
}

// ClassifyJobStatusHandler reports a job, including results once the
// batch completes.
func (rctx *RepContext) ClassifyJobStatusHandler(w http.ResponseWriter, r *http.Request) {

	if rctx.Jobs == nil {
		http.Error(w, "Job queue not enabled", http.StatusServiceUnavailable)
		return
	}

	job_id := r.PathValue("job_id")
	job, ok := rctx.Jobs.GetJob(job_id)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (rctx *RepContext) runClassifyJob(jobID string, queries []repdb.QuerySeq, minScore int, all bool) {
	defer func() {
		if rec := recover(); rec != nil {
			rctx.Jobs.FailJob(jobID, fmt.Errorf("classify panic: %v", rec))
		}
	}()

	rctx.Jobs.SetRunning(jobID)
	rows := rctx.classifyQueries(queries, minScore, all)
	rctx.Jobs.CompleteJob(jobID, toClassifyResults(rows))
}

// classifyQueries places each query. In best-match mode a query gets
// one row, unplaced when nothing reaches minScore; in all mode it gets
// one row per representative at or above minScore, in insertion order.
func (rctx *RepContext) classifyQueries(queries []repdb.QuerySeq, minScore int, all bool) []report.Classification {
	rows := make([]report.Classification, 0, len(queries))

	for _, q := range queries {
		if all {
			matches := rctx.DB.MatchesAbove(q.Protein, minScore)
			if len(matches) == 0 {
				rows = append(rows, report.Classification{QueryID: q.GenomeID})
				continue
			}
			for _, g := range rctx.DB.Reps() {
				if s, ok := matches[g.GenomeID]; ok {
					rows = append(rows, report.Classification{
						QueryID: q.GenomeID, RepID: g.GenomeID, RepName: g.Name, Score: s,
					})
				}
			}
			continue
		}

		rep_id, score := rctx.bestMatch(q.Protein)
		if rep_id == "" || score < minScore {
			rows = append(rows, report.Classification{QueryID: q.GenomeID, Score: score})
			continue
		}
		g, _ := rctx.DB.Get(rep_id)
		rows = append(rows, report.Classification{
			QueryID: q.GenomeID, RepID: rep_id, RepName: g.Name, Score: score,
		})
	}

	return rows
}

func toClassifyResults(rows []report.Classification) []ClassifyResult {
	out := make([]ClassifyResult, len(rows))
	for i, c := range rows {
		out[i] = ClassifyResult{QueryID: c.QueryID, RepID: c.RepID, RepName: c.RepName, Score: c.Score}
		if !c.Placed() {
			out[i].RepID, out[i].RepName = report.NoneMarker, report.NoneMarker
		}
	}
	return out
}
