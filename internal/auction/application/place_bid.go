package application

import (
	"context"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaceBid places a human bid. On an ascending auction the bid challenges
// the leader through proxy resolution, or buys the item outright once it
// reaches the instant price. On a descending auction a bid is an accept of
// the current price.
func (e *Engine) PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, amount int64) (*BidResult, error) {
	log.Info("Placing bid",
		zap.String("auctionID", auctionID.String()),
		zap.String("bidderID", bidderID.String()),
		zap.Int64("amount", amount),
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
		a := s.Auction
		p := domain.Proposal{Kind: domain.ProposalBid, BidderID: bidderID, BidAmount: amount}
		if err := domain.Validate(a, p, now); err != nil {
			return err
		}

		if a.Type == domain.TypeDescending {
			bid, _, err := domain.AcceptPrice(s, p, now)
			row, instant = bid, true
			return err
		}

		if a.InstantPrice != nil && amount >= *a.InstantPrice {
			bid, _, err := domain.BuyNow(s, p, now)
			row, instant = bid, true
			return err
		}

		res := domain.Resolve(s, domain.HumanSource(bidderID, amount, now), now)
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
		return rejected("place bid", auctionID, err)
	}

	e.publishBid(state)
	log.Info("Bid accepted",
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
