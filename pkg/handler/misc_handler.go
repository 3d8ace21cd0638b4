// Handler for miscellaneous endpoints such as health check

package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Genomes   int       `json:"genomes"`
	KmerSize  int       `json:"kmer_size"`
	MinScore  int       `json:"min_score"`
	Timestamp time.Time `json:"timestamp"`
}

func (rctx *RepContext) HealthCheck(w http.ResponseWriter, r *http.Request) {

	response := HealthResponse{
		Health:    "ok",
		Genomes:   rctx.DB.Size(),
		KmerSize:  rctx.DB.K,
		MinScore:  rctx.DB.MinScore,
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

}
