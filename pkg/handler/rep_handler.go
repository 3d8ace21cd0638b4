package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
	"github.com/SEEDtk/kernel-sub003/pkg/store"
	"go.uber.org/zap"
)

type RepListResponse struct {
	Reps  []store.RepSummary `json:"reps"`
	Total int                `json:"total"`
}

type RepDetailResponse struct {
	GenomeID      string              `json:"genome_id"`
	Name          string              `json:"name"`
	ProteinLength int                 `json:"protein_length"`
	Kmers         int                 `json:"kmers"`
	Represented   int                 `json:"represented"`
	Members       []repdb.Represented `json:"members"`
}

type RepresentedResponse struct {
	GenomeID   string            `json:"genome_id"`
	Placements []repdb.Placement `json:"placements"`
}

// ListRepsHandler returns the representative roster with member
// counts. The sqlite mirror answers when attached; otherwise the
// in-memory set does.
func (rctx *RepContext) ListRepsHandler(w http.ResponseWriter, r *http.Request) {

	var rows []store.RepSummary
	if rctx.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		var err error
		rows, err = rctx.Store.Representatives(ctx)
		if err != nil {
			logger.Error("Listing representatives failed", zap.Error(err))
			http.Error(w, "Listing failed", http.StatusInternalServerError)
			return
		}
	} else {
		for _, g := range rctx.DB.Reps() {
			rows = append(rows, store.RepSummary{
				GenomeID:    g.GenomeID,
				Name:        g.Name,
				Represented: g.RepresentedCount(),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RepListResponse{Reps: rows, Total: len(rows)})
}

// RepDetailHandler returns one representative with its connect list.
func (rctx *RepContext) RepDetailHandler(w http.ResponseWriter, r *http.Request) {

	genome_id := r.PathValue("genome_id")
	g, ok := rctx.DB.Get(genome_id)
	if !ok {
		http.Error(w, "Representative not found", http.StatusNotFound)
		return
	}

	// The mirror may carry connect lists the flat files never got, so
	// it wins when attached.
	var members []repdb.Represented
	var err error
	if rctx.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		members, err = rctx.Store.RepresentedOf(ctx, genome_id)
	} else {
		members, err = rctx.DB.RepresentedList(genome_id)
	}
	if err != nil {
		logger.Error("Represented list failed", zap.String("genome_id", genome_id), zap.Error(err))
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}

	response := RepDetailResponse{
		GenomeID:      g.GenomeID,
		Name:          g.Name,
		ProteinLength: len(g.Protein),
		Kmers:         len(g.Kmers()),
		Represented:   len(members),
		Members:       members,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RepresentedHandler is the reverse lookup: which representatives
// claim the given genome. An empty placement list is a valid answer,
// not an error.
func (rctx *RepContext) RepresentedHandler(w http.ResponseWriter, r *http.Request) {

	genome_id := r.URL.Query().Get("genome_id")
	if genome_id == "" {
		http.Error(w, "Missing genome_id", http.StatusBadRequest)
		return
	}

	var placements []repdb.Placement
	if rctx.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		var err error
		placements, err = rctx.Store.PlacementsOf(ctx, genome_id)
		if err != nil {
			logger.Error("Placement lookup failed", zap.String("genome_id", genome_id), zap.Error(err))
			http.Error(w, "Lookup failed", http.StatusInternalServerError)
			return
		}
	} else {
		placements = rctx.DB.RepresentativesOf(genome_id)
	}

	if placements == nil {
		placements = []repdb.Placement{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RepresentedResponse{GenomeID: genome_id, Placements: placements})
}
