package domain

import (
	"time"

	"go.uber.org/zap"
)

// Transition describes a status change made by the lifecycle manager.
type Transition struct {
	From AuctionStatus
	To   AuctionStatus
}

// Sell closes the auction in favour of the winning row at price. The winning
// row becomes the only winning row and is frozen from here on.
func Sell(state *AuctionState, winning *Bid, price int64, now time.Time) (Transition, error) {
	a := state.Auction
	if a.Status != StatusActive {
		return Transition{}, ErrNotActive
	}
	state.SetWinner(winning)

	winnerID := winning.BidderID
	bidID := winning.ID
	soldAt := now
	a.CurrentPrice = price
	a.Status = StatusSold
	a.WinnerID = &winnerID
	a.WinningBidID = &bidID
	a.FinalPrice = &price
	a.SoldAt = &soldAt
	a.NextPriceDropAt = nil
	a.UpdatedAt = now

	log.Info("Auction sold",
		zap.String("auctionID", a.ID.String()),
		zap.String("winnerID", winnerID.String()),
		zap.String("winningBidID", bidID.String()),
		zap.Int64("finalPrice", price),
	)
	return Transition{From: StatusActive, To: StatusSold}, nil
}

// BuyNow records a human bid that reached the instant price and sells at that price.
func BuyNow(state *AuctionState, proposal Proposal, now time.Time) (*Bid, Transition, error) {
	a := state.Auction
	if a.InstantPrice == nil || proposal.BidAmount < *a.InstantPrice {
		return nil, Transition{}, ErrBidTooLow
	}
	row := NewBid(a.ID, proposal.BidderID, proposal.BidAmount, now)
	state.AppendBid(row)
	t, err := Sell(state, row, *a.InstantPrice, now)
	return row, t, err
}

// AcceptPrice sells a descending auction to the buyer at the current price.
// The caller has already compared the offered price under the serialization unit.
func AcceptPrice(state *AuctionState, proposal Proposal, now time.Time) (*Bid, Transition, error) {
	a := state.Auction
	row := NewBid(a.ID, proposal.BidderID, a.CurrentPrice, now)
	state.AppendBid(row)
	t, err := Sell(state, row, a.CurrentPrice, now)
	return row, t, err
}

// EndUnsold closes an active auction without a winner.
func EndUnsold(state *AuctionState, now time.Time) (Transition, error) {
	a := state.Auction
	if a.Status != StatusActive {
		return Transition{}, ErrNotActive
	}
	a.Status = StatusEnded
	a.NextPriceDropAt = nil
	a.UpdatedAt = now
	log.Info("Auction ended without winner",
		zap.String("auctionID", a.ID.String()),
		zap.Int64("finalPrice", a.CurrentPrice),
	)
	return Transition{From: StatusActive, To: StatusEnded}, nil
}

// Cancel applies an administrative cancellation. Only active auctions can be cancelled.
func Cancel(state *AuctionState, now time.Time) (Transition, error) {
	a := state.Auction
	if a.Status != StatusActive {
		log.Warn("Attempted to cancel auction that is not active",
			zap.String("auctionID", a.ID.String()),
			zap.String("status", string(a.Status)),
		)
		return Transition{}, ErrNotActive
	}
	a.Status = StatusCancelled
	a.NextPriceDropAt = nil
	a.UpdatedAt = now
	log.Info("Auction cancelled", zap.String("auctionID", a.ID.String()))
	return Transition{From: StatusActive, To: StatusCancelled}, nil
}

// Expire fixes the outcome of an auction whose end time has passed. An
// ascending auction with a leader is sold at the current price, anything
// else ends unsold. ok is false when the auction is not due.
func Expire(state *AuctionState, now time.Time) (t Transition, ok bool, err error) {
	a := state.Auction
	if a.Status != StatusActive || now.Before(a.EndsAt) {
		return Transition{}, false, nil
	}
	if a.Type == TypeAscending {
		if leader := state.WinningBid(); leader != nil {
			t, err = Sell(state, leader, a.CurrentPrice, now)
			return t, err == nil, err
		}
	}
	t, err = EndUnsold(state, now)
	return t, err == nil, err
}
