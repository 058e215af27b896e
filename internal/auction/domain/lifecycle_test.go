package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestBuyNow_SellsAtInstantPrice(t *testing.T) {
	s := ascendingState(t, ptr(int64(5000)))
	buyer := uuid.New()

	_, _, err := BuyNow(s, Proposal{BidderID: buyer, BidAmount: 4999}, t0)
	check.True(t, errors.Is(err, ErrBidTooLow))
	check.Equal(t, 0, len(s.Bids))

	row, tr, err := BuyNow(s, Proposal{BidderID: buyer, BidAmount: 6000}, t0)
	assert.NoError(t, err)
	check.Equal(t, Transition{From: StatusActive, To: StatusSold}, tr)
	check.True(t, row.IsWinning)
	a := s.Auction
	check.Equal(t, StatusSold, a.Status)
	check.Equal(t, int64(5000), *a.FinalPrice)
	check.Equal(t, int64(5000), a.CurrentPrice)
	check.Equal(t, buyer, *a.WinnerID)
	check.Equal(t, row.ID, *a.WinningBidID)
}

func TestAcceptPrice_SellsAtCurrentPrice(t *testing.T) {
	s := descendingState(t)
	buyer := uuid.New()
	ApplyPriceDrop(s.Auction, t0.Add(time.Minute))

	row, _, err := AcceptPrice(s, Proposal{Kind: ProposalAccept, BidderID: buyer, BidAmount: 700}, t0.Add(time.Minute))
	assert.NoError(t, err)
	check.Equal(t, int64(700), row.BidAmount)
	check.Equal(t, int64(700), *s.Auction.FinalPrice)
	check.True(t, s.Auction.NextPriceDropAt == nil)
	check.Equal(t, 1, winningRows(s))
}

func TestSell_OnlyFromActive(t *testing.T) {
	s := ascendingState(t, nil)
	Resolve(s, HumanSource(uuid.New(), 1100, t0), t0)
	_, err := Cancel(s, t0)
	assert.NoError(t, err)

	_, err = Sell(s, s.WinningBid(), 1100, t0)
	check.True(t, errors.Is(err, ErrNotActive))
	_, err = Cancel(s, t0)
	check.True(t, errors.Is(err, ErrNotActive))
	_, err = EndUnsold(s, t0)
	check.True(t, errors.Is(err, ErrLifecycle))
	check.Equal(t, StatusCancelled, s.Auction.Status)
	check.True(t, s.Auction.WinnerID == nil)
}

func TestExpire(t *testing.T) {
	t.Run("not due", func(t *testing.T) {
		s := ascendingState(t, nil)
		_, ok, err := Expire(s, t0.Add(59*time.Minute))
		assert.NoError(t, err)
		check.False(t, ok)
		check.Equal(t, StatusActive, s.Auction.Status)
	})

	t.Run("ascending with leader is sold", func(t *testing.T) {
		s := ascendingState(t, nil)
		a, b := uuid.New(), uuid.New()
		Resolve(s, HumanSource(a, 1500, t0), t0)
		Resolve(s, HumanSource(b, 1200, t0), t0)

		tr, ok, err := Expire(s, s.Auction.EndsAt)
		assert.NoError(t, err)
		check.True(t, ok)
		check.Equal(t, StatusSold, tr.To)
		check.Equal(t, a, *s.Auction.WinnerID)
		check.Equal(t, int64(1300), *s.Auction.FinalPrice)
	})

	t.Run("ascending without bids ends", func(t *testing.T) {
		s := ascendingState(t, nil)
		tr, ok, err := Expire(s, s.Auction.EndsAt.Add(time.Second))
		assert.NoError(t, err)
		check.True(t, ok)
		check.Equal(t, StatusEnded, tr.To)
		check.True(t, s.Auction.FinalPrice == nil)
	})

	t.Run("descending ends", func(t *testing.T) {
		s := descendingState(t)
		tr, ok, err := Expire(s, s.Auction.EndsAt)
		assert.NoError(t, err)
		check.True(t, ok)
		check.Equal(t, StatusEnded, tr.To)
		check.True(t, s.Auction.NextPriceDropAt == nil)
	})
}
