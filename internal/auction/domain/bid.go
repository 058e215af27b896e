package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bid is one recorded bid row. Rows are append-mostly: only IsWinning and,
// for the leading auto-bid row, BidAmount change after insertion.
type Bid struct {
	ID           uuid.UUID
	AuctionID    uuid.UUID
	BidderID     uuid.UUID
	BidAmount    int64
	MaxBidAmount *int64 // set only for auto-bids
	IsAutoBid    bool
	IsWinning    bool
	IsCancelled  bool
	CreatedAt    time.Time
}

// NewBid creates a human bid row.
func NewBid(auctionID, bidderID uuid.UUID, amount int64, createdAt time.Time) *Bid {
	return &Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		BidAmount: amount,
		CreatedAt: createdAt,
	}
}

// NewAutoBidRow creates a synthetic bid row emitted on behalf of an auto-bid instruction.
func NewAutoBidRow(auctionID, bidderID uuid.UUID, amount, maxAmount int64, createdAt time.Time) *Bid {
	return &Bid{
		ID:           uuid.New(),
		AuctionID:    auctionID,
		BidderID:     bidderID,
		BidAmount:    amount,
		MaxBidAmount: &maxAmount,
		IsAutoBid:    true,
		CreatedAt:    createdAt,
	}
}

// Ceiling is the most this row's bidder has authorised: the stated amount for
// human bids, the instruction maximum for auto-bids.
func (b *Bid) Ceiling() int64 {
	if b.IsAutoBid && b.MaxBidAmount != nil {
		return *b.MaxBidAmount
	}
	return b.BidAmount
}

func (b *Bid) Clone() *Bid {
	c := *b
	c.MaxBidAmount = cloneInt64(b.MaxBidAmount)
	return &c
}

// AutoBid is a standing proxy instruction. It is never the source of truth
// for the leader; the resolver turns it into Bid rows.
type AutoBid struct {
	ID        uuid.UUID
	AuctionID uuid.UUID
	UserID    uuid.UUID
	MaxAmount int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewAutoBid(auctionID, userID uuid.UUID, maxAmount int64, now time.Time) *AutoBid {
	return &AutoBid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		UserID:    userID,
		MaxAmount: maxAmount,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (ab *AutoBid) Clone() *AutoBid {
	c := *ab
	return &c
}

// Watch marks a user following an auction. It has no effect on bidding.
type Watch struct {
	ID        uuid.UUID
	AuctionID uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

func (w *Watch) Clone() *Watch {
	c := *w
	return &c
}
