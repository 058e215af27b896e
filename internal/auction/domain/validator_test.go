package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
)

func TestValidate(t *testing.T) {
	asc := ascendingState(t, nil).Auction
	desc := descendingState(t).Auction
	bidder := uuid.New()

	cases := []struct {
		name string
		a    *Auction
		p    Proposal
		now  time.Time
		want error
	}{
		{"ascending ok", asc, Proposal{Kind: ProposalBid, BidderID: bidder, BidAmount: 1100}, t0, nil},
		{"auto ok", asc, Proposal{Kind: ProposalAutoBid, BidderID: bidder, BidAmount: 1100, MaxBidAmount: 3000}, t0, nil},
		{"closed", asc, Proposal{Kind: ProposalBid, BidderID: bidder, BidAmount: 1100}, asc.EndsAt, ErrAuctionClosed},
		{"zero amount", asc, Proposal{Kind: ProposalBid, BidderID: bidder}, t0, ErrInvalidAmount},
		{"zero max", asc, Proposal{Kind: ProposalAutoBid, BidderID: bidder, BidAmount: 1100}, t0, ErrInvalidAmount},
		{"seller", asc, Proposal{Kind: ProposalBid, BidderID: asc.SellerID, BidAmount: 1100}, t0, ErrSelfBid},
		{"seller with zero amount", asc, Proposal{Kind: ProposalBid, BidderID: asc.SellerID}, t0, ErrSelfBid},
		{"below increment", asc, Proposal{Kind: ProposalBid, BidderID: bidder, BidAmount: 1099}, t0, ErrBidTooLow},
		{"max below bid", asc, Proposal{Kind: ProposalAutoBid, BidderID: bidder, BidAmount: 1200, MaxBidAmount: 1150}, t0, ErrInvalidMaxBid},
		{"accept on ascending", asc, Proposal{Kind: ProposalAccept, BidderID: bidder, BidAmount: 1100}, t0, ErrWrongAuctionType},
		{"accept ok", desc, Proposal{Kind: ProposalAccept, BidderID: bidder, BidAmount: 1000}, t0, nil},
		{"accept stale price", desc, Proposal{Kind: ProposalAccept, BidderID: bidder, BidAmount: 1300}, t0, ErrPriceMismatch},
		{"auto on descending", desc, Proposal{Kind: ProposalAutoBid, BidderID: bidder, BidAmount: 1000, MaxBidAmount: 1000}, t0, ErrWrongAuctionType},
		{"accept after close", desc, Proposal{Kind: ProposalAccept, BidderID: bidder, BidAmount: 1000}, desc.EndsAt, ErrPriceMismatch},
	}
	for _, tc := range cases {
		err := Validate(tc.a, tc.p, tc.now)
		if tc.want == nil {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: %v is not a validation error", tc.name, err)
		}
	}
}

func TestValidate_LateAcceptReportsPriceMismatch(t *testing.T) {
	desc := descendingState(t).Auction
	desc.Status = StatusSold
	err := Validate(desc, Proposal{Kind: ProposalAccept, BidderID: uuid.New(), BidAmount: 1000}, t0)
	check.True(t, errors.Is(err, ErrAuctionClosed))
	check.Equal(t, ReasonPriceMismatch, Reason(err))
}

func TestValidate_HasNoSideEffects(t *testing.T) {
	a := ascendingState(t, nil).Auction
	before := *a
	_ = Validate(a, Proposal{Kind: ProposalBid, BidderID: uuid.New(), BidAmount: 5000}, t0)
	check.Equal(t, before.CurrentPrice, a.CurrentPrice)
	check.Equal(t, before.BidCount, a.BidCount)
	check.Equal(t, before.UpdatedAt, a.UpdatedAt)
}

func TestReason(t *testing.T) {
	check.Equal(t, "", Reason(nil))
	check.Equal(t, ReasonBidTooLow, Reason(ErrBidTooLow))
	check.Equal(t, ReasonNotFound, Reason(ErrAuctionNotFound))
	check.Equal(t, ReasonStore, Reason(StoreFailure("commit", errors.New("boom"))))
	check.Equal(t, ReasonConflict, Reason(fmt.Errorf("place bid: %w", ErrConflict)))
	check.Equal(t, "", Reason(errors.New("other")))
}
