// Package cache memoizes classification results across a batch run.
//
// Batch inputs repeat sequences surprisingly often (resubmitted
// genomes, duplicate markers across close strains), and every
// best-match call is a full scan of the representative set. Instead of
// a package-level map, the cache is an explicit object handed to the
// code that needs it, so its lifetime ends with the batch instead of
// the process.
package cache

import (
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
)

// DefaultSize bounds the number of cached results. A few thousand
// entries covers heavy duplication without pinning a whole batch in
// memory.
const DefaultSize = 4096

// Result is one memoized placement. RepID is empty for queries the
// set could not place.
type Result struct {
	RepID string
	Score int
}

// ClassifyCache wraps an LRU of best-match results keyed by sequence
// digest. Results are only valid against the representative set they
// were computed from; scope one cache per set. Safe for concurrent use.
type ClassifyCache struct {
	lru    *lru.Cache[string, Result]
	hits   atomic.Int64
	misses atomic.Int64
}

// New builds a cache. A size of zero or below falls back to
// DefaultSize.
func New(size int) (*ClassifyCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	l, err := lru.New[string, Result](size)
	if err != nil {
		return nil, err
	}
	return &ClassifyCache{lru: l}, nil
}

// Key digests seq into the cache key. Exposed so callers can correlate
// cache entries with external checksum tables.
func Key(seq string) string {
	sum := blake2b.Sum256([]byte(seq))
	return hex.EncodeToString(sum[:])
}

// BestMatch returns db's best match for seq, consulting the cache
// first.
func (c *ClassifyCache) BestMatch(db *repdb.DB, seq string) (string, int) {
	key := Key(seq)
	if r, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return r.RepID, r.Score
	}
	c.misses.Add(1)
	rep_id, score := db.BestMatch(seq)
	c.lru.Add(key, Result{RepID: rep_id, Score: score})
	return rep_id, score
}

// Len returns the number of resident entries.
func (c *ClassifyCache) Len() int {
	return c.lru.Len()
}

// Stats reports hit and miss counts since construction.
func (c *ClassifyCache) Stats() (hits, misses int) {
	return int(c.hits.Load()), int(c.misses.Load())
}
