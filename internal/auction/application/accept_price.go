package application

import (
	"context"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AcceptCurrentPrice buys a descending auction at price, the price the buyer
// saw. It succeeds only while that is still the current price; a drop or a
// competing accept committed first makes it fail with ErrPriceMismatch.
func (e *Engine) AcceptCurrentPrice(ctx context.Context, auctionID, userID uuid.UUID, price int64) (*BidResult, error) {
	log.Info("Accepting current price",
		zap.String("auctionID", auctionID.String()),
		zap.String("userID", userID.String()),
		zap.Int64("price", price),
	)

	release := e.units.acquire(auctionID)
	defer release()
	now := e.now()

	var row *domain.Bid
	state, err := e.store.Commit(ctx, auctionID, func(s *domain.AuctionState) error {
		p := domain.Proposal{Kind: domain.ProposalAccept, BidderID: userID, BidAmount: price}
		if err := domain.Validate(s.Auction, p, now); err != nil {
			return err
		}
		bid, _, err := domain.AcceptPrice(s, p, now)
		row = bid
		return err
	})
	if err != nil {
		return rejected("accept price", auctionID, err)
	}

	e.publishBid(state)
	return &BidResult{
		Success:         true,
		BidID:           row.ID,
		InstantWin:      true,
		NewCurrentPrice: state.Auction.CurrentPrice,
	}, nil
}
