package handler

// DI for all handlers alike.

import (
	"github.com/SEEDtk/kernel-sub003/pkg/cache"
	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
	"github.com/SEEDtk/kernel-sub003/pkg/store"
)

// RepContext carries the loaded representative set plus the optional
// serving extras. DB is read-only while the server runs; Store and
// Cache may be nil, Jobs must be set before the async routes are
// mounted.
type RepContext struct {
	DB    *repdb.DB
	Store *store.Store
	Cache *cache.ClassifyCache
	Jobs  *ClassifyJobManager
}

// bestMatch routes through the result cache when one is attached.
func (rctx *RepContext) bestMatch(seq string) (string, int) {
	if rctx.Cache != nil {
		return rctx.Cache.BestMatch(rctx.DB, seq)
	}
	return rctx.DB.BestMatch(seq)
}
