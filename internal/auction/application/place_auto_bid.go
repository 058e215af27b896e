package application

import (
	"context"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaceAutoBid registers a proxy instruction bidding on the user's behalf up
// to maxAmount, replacing any earlier active instruction of the same user,
// and resolves it against the standing bids right away.
func (e *Engine) PlaceAutoBid(ctx context.Context, auctionID, userID uuid.UUID, maxAmount int64) (*BidResult, error) {
	log.Info("Placing auto-bid",
		zap.String("auctionID", auctionID.String()),
		zap.String("userID", userID.String()),
		zap.Int64("maxAmount", maxAmount),
	)

	release := e.units.acquire(auctionID)
	defer release()
	now := e.now()

	var (
		row     *domain.Bid
		instant bool
	)
	state, err := e.store.Commit(ctx, auctionID, func(s *domain.AuctionState) error {
		row, instant = nil, false
		p := domain.Proposal{
			Kind:         domain.ProposalAutoBid,
			BidderID:     userID,
			BidAmount:    domain.MinimumNextBid(s.Auction),
			MaxBidAmount: maxAmount,
		}
		if err := domain.Validate(s.Auction, p, now); err != nil {
			return err
		}

		ab := domain.NewAutoBid(auctionID, userID, maxAmount, now)
		s.PutAutoBid(ab, now)
		res := domain.Resolve(s, domain.AutoSource(ab), now)
		row = res.Incoming
		if res.InstantWin {
			instant = true
			if _, err := domain.Sell(s, res.Leader, res.Price, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return rejected("place auto-bid", auctionID, err)
	}

	e.publishBid(state)
	log.Info("Auto-bid registered",
		zap.String("auctionID", auctionID.String()),
		zap.String("bidID", row.ID.String()),
		zap.Int64("currentPrice", state.Auction.CurrentPrice),
		zap.Bool("instantWin", instant),
	)
	return &BidResult{
		Success:         true,
		BidID:           row.ID,
		InstantWin:      instant,
		NewCurrentPrice: state.Auction.CurrentPrice,
	}, nil
}
