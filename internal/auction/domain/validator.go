package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProposalKind tells the validator which rules apply.
type ProposalKind int

const (
	ProposalBid ProposalKind = iota
	ProposalAutoBid
	ProposalAccept
)

// Proposal is a bid that has not been accepted yet.
type Proposal struct {
	Kind         ProposalKind
	BidderID     uuid.UUID
	BidAmount    int64
	MaxBidAmount int64 // auto-bids only
}

// MinimumNextBid is the smallest amount an ascending bid must reach.
func MinimumNextBid(a *Auction) int64 {
	return a.CurrentPrice + a.BidIncrement
}

// Validate checks p against a snapshot of a. It has no side effects.
func Validate(a *Auction, p Proposal, now time.Time) error {
	if !a.IsOpen(now) {
		// an accept races on the offered price; once the auction left active
		// that price no longer exists
		if a.Type == TypeDescending && p.Kind != ProposalAutoBid {
			return fmt.Errorf("%w: %w", ErrPriceMismatch, ErrAuctionClosed)
		}
		return ErrAuctionClosed
	}

	if p.BidderID == a.SellerID {
		return ErrSelfBid
	}

	if p.BidAmount <= 0 || (p.Kind == ProposalAutoBid && p.MaxBidAmount <= 0) {
		return ErrInvalidAmount
	}

	switch a.Type {
	case TypeAscending:
		if p.Kind == ProposalAccept {
			return ErrWrongAuctionType
		}
		if p.BidAmount < MinimumNextBid(a) {
			return ErrBidTooLow
		}
		if p.Kind == ProposalAutoBid {
			if p.MaxBidAmount < p.BidAmount || p.MaxBidAmount < MinimumNextBid(a) {
				return ErrInvalidMaxBid
			}
		}
	case TypeDescending:
		if p.Kind == ProposalAutoBid {
			return ErrWrongAuctionType
		}
		if p.BidAmount != a.CurrentPrice {
			return ErrPriceMismatch
		}
	default:
		return ErrWrongAuctionType
	}
	return nil
}
