package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func ascendingState(t *testing.T, instant *int64) *AuctionState {
	t.Helper()
	a, err := NewAuction(CreateAuctionParams{
		SellerID:     uuid.New(),
		Title:        "Lamp",
		Type:         TypeAscending,
		StartPrice:   1000,
		BidIncrement: 100,
		InstantPrice: instant,
		Duration:     time.Hour,
	}, t0)
	assert.NoError(t, err)
	return NewAuctionState(a, nil, nil, nil)
}

func descendingState(t *testing.T) *AuctionState {
	t.Helper()
	a, err := NewAuction(CreateAuctionParams{
		SellerID:          uuid.New(),
		Title:             "Tulips",
		Type:              TypeDescending,
		StartPrice:        1000,
		MinPrice:          ptr(int64(200)),
		PriceDropAmount:   300,
		PriceDropInterval: time.Minute,
		Duration:          time.Hour,
	}, t0)
	assert.NoError(t, err)
	return NewAuctionState(a, nil, nil, nil)
}

// placeAuto stores an instruction and resolves it the way the engine does.
func placeAuto(s *AuctionState, user uuid.UUID, ceiling int64, now time.Time) (*AutoBid, *Resolution) {
	ab := NewAutoBid(s.Auction.ID, user, ceiling, now)
	s.PutAutoBid(ab, now)
	return ab, Resolve(s, AutoSource(ab), now)
}

func winningRows(s *AuctionState) int {
	n := 0
	for _, b := range s.Bids {
		if b.IsWinning {
			n++
		}
	}
	return n
}
