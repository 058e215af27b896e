package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/db/migrations"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

// newTestStore connects to TEST_DATABASE_URL and migrates it. Without the
// variable the database tests are skipped.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	assert.NoError(t, migrations.RunMigrations(url))

	pool, err := pgxpool.New(context.Background(), url)
	assert.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewStore(pool)
}

func TestStore_CommitRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	a, err := domain.NewAuction(domain.CreateAuctionParams{
		SellerID:     uuid.New(),
		Title:        "Bicycle",
		Type:         domain.TypeAscending,
		StartPrice:   1000,
		BidIncrement: 100,
		InstantPrice: domain.Int64Ptr(9000),
		Duration:     time.Hour,
	}, now)
	assert.NoError(t, err)
	assert.NoError(t, s.CreateAuction(ctx, a))

	proxy, human := uuid.New(), uuid.New()
	committed, err := s.Commit(ctx, a.ID, func(state *domain.AuctionState) error {
		ab := domain.NewAutoBid(a.ID, proxy, 3000, now)
		state.PutAutoBid(ab, now)
		domain.Resolve(state, domain.AutoSource(ab), now)
		state.AddWatch(human, now)
		return nil
	})
	assert.NoError(t, err)
	check.Equal(t, int64(1), committed.Auction.Version)

	_, err = s.Commit(ctx, a.ID, func(state *domain.AuctionState) error {
		domain.Resolve(state, domain.HumanSource(human, 2000, now), now)
		return nil
	})
	assert.NoError(t, err)

	loaded, err := s.LoadState(ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, int64(2), loaded.Auction.Version)
	check.Equal(t, int64(2100), loaded.Auction.CurrentPrice)
	check.Equal(t, 2, len(loaded.Bids))
	check.Equal(t, 1, loaded.Auction.WatchCount)
	check.Equal(t, proxy, loaded.WinningBid().BidderID)
	check.Equal(t, 1, len(loaded.ActiveAutoBids()))
}

func TestStore_MutationErrorRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a, err := domain.NewAuction(domain.CreateAuctionParams{
		SellerID:          uuid.New(),
		Title:             "Piano",
		Type:              domain.TypeDescending,
		StartPrice:        5000,
		PriceDropAmount:   500,
		PriceDropInterval: time.Minute,
		Duration:          time.Hour,
	}, now)
	assert.NoError(t, err)
	assert.NoError(t, s.CreateAuction(ctx, a))

	_, err = s.Commit(ctx, a.ID, func(state *domain.AuctionState) error {
		state.AppendBid(domain.NewBid(a.ID, uuid.New(), 5000, now))
		return domain.ErrPriceMismatch
	})
	check.True(t, errors.Is(err, domain.ErrPriceMismatch))

	loaded, err := s.LoadState(ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, 0, len(loaded.Bids))
	check.Equal(t, int64(0), loaded.Auction.Version)

	due, err := s.ListDue(ctx, now.Add(2*time.Minute))
	assert.NoError(t, err)
	check.True(t, len(due) >= 1)

	_, err = s.LoadAuction(ctx, uuid.New())
	check.True(t, errors.Is(err, domain.ErrAuctionNotFound))
}

func TestStore_AuctionOnlyCommitBumpsVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	a, err := domain.NewAuction(domain.CreateAuctionParams{
		SellerID:          uuid.New(),
		Title:             "Clock",
		Type:              domain.TypeDescending,
		StartPrice:        3000,
		PriceDropAmount:   1000,
		PriceDropInterval: time.Minute,
		Duration:          time.Hour,
	}, now)
	assert.NoError(t, err)
	assert.NoError(t, s.CreateAuction(ctx, a))

	committed, err := s.Commit(ctx, a.ID, func(state *domain.AuctionState) error {
		domain.ApplyPriceDrop(state.Auction, now.Add(time.Minute))
		check.True(t, state.Changes().Empty())
		return nil
	})
	assert.NoError(t, err)
	check.Equal(t, int64(1), committed.Auction.Version)

	loaded, err := s.LoadAuction(ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, int64(2000), loaded.CurrentPrice)
	check.Equal(t, int64(1), loaded.Version)
}
