package service

import (
	"context"
	"log"
	"time"

	"github.com/lox/hangorburn/internal/cache"
)

const rawPayloadRetentionDays = 30

// Maintainer prunes expired cache rows and old raw payloads.
type Maintainer interface {
	PurgeExpired(ctx context.Context) (int64, error)
	CleanupOldRawPayloads(ctx context.Context, retentionDays int) (int64, error)
}

// Refresher keeps the forecast cache warm for a fixed list of places.
type Refresher struct {
	svc        *Service
	places     []string
	interval   time.Duration
	maintainer Maintainer
}

func NewRefresher(svc *Service, places []string, interval time.Duration, m Maintainer) *Refresher {
	return &Refresher{svc: svc, places: places, interval: interval, maintainer: m}
}

// Run refreshes immediately, then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	r.RefreshAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("refresher: shutting down")
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll fetches every configured place, bypassing the cache, and
// returns how many succeeded.
func (r *Refresher) RefreshAll(ctx context.Context) int {
	ok := 0
	for _, place := range r.places {
		if ctx.Err() != nil {
			return ok
		}
		loc, err := r.svc.Resolve(ctx, place)
		if err != nil {
			log.Printf("refresher: resolve %q: %v", place, err)
			continue
		}
		series, err := r.svc.fetch(ctx, loc, cache.CoordinateKey(loc.Latitude, loc.Longitude))
		if err != nil {
			log.Printf("refresher: fetch %q: %v", place, err)
			continue
		}
		log.Printf("refresher: %s refreshed, %d hours", place, len(series))
		ok++
	}

	if r.maintainer != nil {
		if n, err := r.maintainer.PurgeExpired(ctx); err != nil {
			log.Printf("refresher: purge cache: %v", err)
		} else if n > 0 {
			log.Printf("refresher: purged %d expired cache entries", n)
		}
		if n, err := r.maintainer.CleanupOldRawPayloads(ctx, rawPayloadRetentionDays); err != nil {
			log.Printf("refresher: cleanup raw payloads: %v", err)
		} else if n > 0 {
			log.Printf("refresher: removed %d old raw payloads", n)
		}
	}
	return ok
}
