package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const defaultMaxAttempts = 5

// Store keeps auction state in process memory. It implements
// domain.AuctionStore with optimistic compare-and-set on Auction.Version.
type Store struct {
	mu          sync.RWMutex
	auctions    map[uuid.UUID]*domain.AuctionState
	maxAttempts int
}

type Option func(*Store)

// WithMaxAttempts bounds how many times Commit re-runs a mutation after a
// version conflict before giving up with domain.ErrConflict.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		auctions:    make(map[uuid.UUID]*domain.AuctionState),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) CreateAuction(ctx context.Context, a *domain.Auction) error {
	if err := ctx.Err(); err != nil {
		return domain.StoreFailure("create auction", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.auctions[a.ID]; exists {
		return domain.StoreFailure("create auction", fmt.Errorf("auction %s already exists", a.ID))
	}
	s.auctions[a.ID] = domain.NewAuctionState(a.Clone(), nil, nil, nil)
	return nil
}

func (s *Store) LoadAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return state.Auction.Clone(), nil
}

func (s *Store) LoadState(ctx context.Context, id uuid.UUID) (*domain.AuctionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return state.Clone(), nil
}

// Commit runs fn against a private snapshot and swaps it in when nobody
// committed in between. On a version conflict fn runs again against a fresh
// snapshot, up to the configured number of attempts.
func (s *Store) Commit(ctx context.Context, id uuid.UUID, fn domain.MutationFunc) (*domain.AuctionState, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.StoreFailure("commit", err)
		}

		s.mu.RLock()
		current, ok := s.auctions[id]
		var snapshot *domain.AuctionState
		if ok {
			snapshot = current.Clone()
		}
		s.mu.RUnlock()
		if !ok {
			return nil, domain.ErrAuctionNotFound
		}

		base := snapshot.Auction.Version
		if err := fn(snapshot); err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.auctions[id].Auction.Version != base {
			s.mu.Unlock()
			log.Debug("Version conflict, retrying mutation",
				zap.String("auctionID", id.String()),
				zap.Int("attempt", attempt),
			)
			continue
		}
		snapshot.Auction.Version = base + 1
		s.auctions[id] = snapshot.Clone()
		s.mu.Unlock()
		return snapshot, nil
	}

	log.Warn("Giving up after repeated version conflicts",
		zap.String("auctionID", id.String()),
		zap.Int("attempts", s.maxAttempts),
	)
	return nil, domain.ErrConflict
}

// ListDue returns active auctions whose end time or next price drop has come,
// earliest end first.
func (s *Store) ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*domain.Auction
	for _, state := range s.auctions {
		a := state.Auction
		if a.Status != domain.StatusActive {
			continue
		}
		if !now.Before(a.EndsAt) || (a.NextPriceDropAt != nil && !now.Before(*a.NextPriceDropAt)) {
			due = append(due, a)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].EndsAt.Before(due[j].EndsAt) })

	ids := make([]uuid.UUID, len(due))
	for i, a := range due {
		ids[i] = a.ID
	}
	return ids, nil
}
