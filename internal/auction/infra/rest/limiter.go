package rest

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 10000
)

// BidderLimiter throttles bid traffic per bidder with a token bucket each.
type BidderLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	buckets map[uuid.UUID]*bucket
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewBidderLimiter allows each bidder rps requests per second with the given
// burst. A non-positive rps disables limiting.
func NewBidderLimiter(rps float64, burst int) *BidderLimiter {
	return &BidderLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[uuid.UUID]*bucket),
		now:     time.Now,
	}
}

// Allow reports whether bidderID may place another request now.
func (l *BidderLimiter) Allow(bidderID uuid.UUID) bool {
	if l == nil || l.rps <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[bidderID]
	if !ok {
		if len(l.buckets) >= limiterSweepSize {
			l.sweep(now)
		}
		b = &bucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[bidderID] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *BidderLimiter) sweep(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(l.buckets, id)
		}
	}
}
