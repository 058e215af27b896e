package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MutationFunc runs against a private snapshot of one auction. Returning an
// error aborts the commit and nothing is written.
type MutationFunc func(state *AuctionState) error

// AuctionStore owns persisted auction state.
type AuctionStore interface {
	CreateAuction(ctx context.Context, a *Auction) error
	LoadAuction(ctx context.Context, id uuid.UUID) (*Auction, error)
	LoadState(ctx context.Context, id uuid.UUID) (*AuctionState, error)
	// Commit applies fn atomically with compare-and-set on Auction.Version
	// and returns the committed state.
	Commit(ctx context.Context, id uuid.UUID, fn MutationFunc) (*AuctionState, error)
	// ListDue returns active auctions whose end time or next price drop is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// SettlementRequester is the payment collaborator. Retrying is its concern.
type SettlementRequester interface {
	RequestSettlement(ctx context.Context, req SettlementRequest) error
}

type SettlementRequest struct {
	AuctionID  uuid.UUID `json:"auction_id"`
	WinnerID   uuid.UUID `json:"winner_id"`
	FinalPrice int64     `json:"final_price"`
}

// Notifier delivers engine events to bidders and watchers. The engine never
// waits on it.
type Notifier interface {
	LeaderChanged(ctx context.Context, ev LeaderEvent)
	AuctionEnded(ctx context.Context, ev EndEvent)
	WatchCountChanged(ctx context.Context, ev WatchEvent)
	PriceDropped(ctx context.Context, ev PriceEvent)
}

type LeaderEvent struct {
	AuctionID    uuid.UUID     `json:"auction_id"`
	LeaderID     uuid.UUID     `json:"leader_id"`
	CurrentPrice int64         `json:"current_price"`
	BidCount     int           `json:"bid_count"`
	WatchCount   int           `json:"watch_count"`
	Visibility   BidVisibility `json:"visibility"`
	At           time.Time     `json:"at"`
}

type EndEvent struct {
	AuctionID  uuid.UUID     `json:"auction_id"`
	Status     AuctionStatus `json:"status"`
	WinnerID   *uuid.UUID    `json:"winner_id,omitempty"`
	FinalPrice *int64        `json:"final_price,omitempty"`
	At         time.Time     `json:"at"`
}

type WatchEvent struct {
	AuctionID  uuid.UUID `json:"auction_id"`
	WatchCount int       `json:"watch_count"`
}

type PriceEvent struct {
	AuctionID       uuid.UUID  `json:"auction_id"`
	CurrentPrice    int64      `json:"current_price"`
	NextPriceDropAt *time.Time `json:"next_price_drop_at,omitempty"`
	At              time.Time  `json:"at"`
}
