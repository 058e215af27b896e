package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestNewAuction_Defaults(t *testing.T) {
	s := ascendingState(t, nil)
	a := s.Auction
	check.Equal(t, StatusActive, a.Status)
	check.Equal(t, VisibilityPublic, a.Visibility)
	check.Equal(t, int64(1000), a.CurrentPrice)
	check.Equal(t, t0.Add(time.Hour), a.EndsAt)
	check.True(t, a.NextPriceDropAt == nil)

	d := descendingState(t).Auction
	assert.True(t, d.NextPriceDropAt != nil)
	check.Equal(t, t0.Add(time.Minute), *d.NextPriceDropAt)
	check.Equal(t, int64(200), d.Floor())
}

func TestNewAuction_RejectsBadParams(t *testing.T) {
	base := CreateAuctionParams{
		SellerID:     uuid.New(),
		Type:         TypeAscending,
		StartPrice:   1000,
		BidIncrement: 100,
		Duration:     time.Hour,
	}
	cases := map[string]func(p *CreateAuctionParams){
		"no seller":           func(p *CreateAuctionParams) { p.SellerID = uuid.Nil },
		"zero start":          func(p *CreateAuctionParams) { p.StartPrice = 0 },
		"zero duration":       func(p *CreateAuctionParams) { p.Duration = 0 },
		"zero increment":      func(p *CreateAuctionParams) { p.BidIncrement = 0 },
		"instant below start": func(p *CreateAuctionParams) { p.InstantPrice = ptr(int64(900)) },
		"unknown type":        func(p *CreateAuctionParams) { p.Type = "dutch" },
		"unknown visibility":  func(p *CreateAuctionParams) { p.Visibility = "secret" },
		"descending no drop": func(p *CreateAuctionParams) {
			p.Type = TypeDescending
			p.PriceDropInterval = time.Minute
		},
		"descending floor above start": func(p *CreateAuctionParams) {
			p.Type = TypeDescending
			p.PriceDropAmount = 10
			p.PriceDropInterval = time.Minute
			p.MinPrice = ptr(int64(1001))
		},
	}
	for name, mutate := range cases {
		p := base
		mutate(&p)
		_, err := NewAuction(p, t0)
		if !errors.Is(err, ErrInvalidAuction) {
			t.Errorf("%s: got %v", name, err)
		}
	}
}

func TestAuction_CloneDoesNotAlias(t *testing.T) {
	a := descendingState(t).Auction
	c := a.Clone()
	*c.MinPrice = 1
	*c.NextPriceDropAt = t0
	check.Equal(t, int64(200), *a.MinPrice)
	check.Equal(t, t0.Add(time.Minute), *a.NextPriceDropAt)
}

func TestAuction_IsOpen(t *testing.T) {
	a := ascendingState(t, nil).Auction
	check.True(t, a.IsOpen(t0))
	check.False(t, a.IsOpen(a.EndsAt))
	a.Status = StatusCancelled
	check.False(t, a.IsOpen(t0))
}
