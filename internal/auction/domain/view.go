package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// AuctionView is the read model handed to bidders, with private-auction
// amounts hidden from anyone but the seller and the leader.
type AuctionView struct {
	ID              uuid.UUID     `json:"id"`
	SellerID        uuid.UUID     `json:"seller_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Type            AuctionType   `json:"auction_type"`
	Visibility      BidVisibility `json:"bid_visibility"`
	Status          AuctionStatus `json:"status"`
	StartPrice      int64         `json:"start_price"`
	CurrentPrice    *int64        `json:"current_price,omitempty"`
	MinimumNextBid  *int64        `json:"minimum_next_bid,omitempty"`
	BidIncrement    int64         `json:"bid_increment"`
	InstantPrice    *int64        `json:"instant_price,omitempty"`
	NextPriceDropAt *time.Time    `json:"next_price_drop_at,omitempty"`
	DropsToFloor    *int64        `json:"drops_to_floor,omitempty"`
	EndsAt          time.Time     `json:"ends_at"`
	LeaderID        *uuid.UUID    `json:"leader_id,omitempty"`
	WinnerID        *uuid.UUID    `json:"winner_id,omitempty"`
	FinalPrice      *int64        `json:"final_price,omitempty"`
	BidCount        int           `json:"bid_count"`
	WatchCount      int           `json:"watch_count"`
	RecentBids      []BidView     `json:"recent_bids"`
}

type BidView struct {
	ID        uuid.UUID `json:"id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Amount    *int64    `json:"amount,omitempty"`
	IsAutoBid bool      `json:"is_auto_bid"`
	IsWinning bool      `json:"is_winning"`
	CreatedAt time.Time `json:"created_at"`
}

// View renders state for viewer. recent limits the bid history, newest first.
func View(state *AuctionState, viewer uuid.UUID, recent int) *AuctionView {
	a := state.Auction
	leader := state.WinningBid()
	v := &AuctionView{
		ID:              a.ID,
		SellerID:        a.SellerID,
		Title:           a.Title,
		Description:     a.Description,
		Type:            a.Type,
		Visibility:      a.Visibility,
		Status:          a.Status,
		StartPrice:      a.StartPrice,
		BidIncrement:    a.BidIncrement,
		InstantPrice:    a.InstantPrice,
		NextPriceDropAt: a.NextPriceDropAt,
		EndsAt:          a.EndsAt,
		WinnerID:        a.WinnerID,
		FinalPrice:      a.FinalPrice,
		BidCount:        a.BidCount,
		WatchCount:      a.WatchCount,
		RecentBids:      []BidView{},
	}

	privileged := viewer == a.SellerID || (leader != nil && leader.BidderID == viewer)
	showAmounts := a.Visibility == VisibilityPublic || privileged || a.Status.IsTerminal()

	if showAmounts || a.Type == TypeDescending {
		// a descending auction's price is the offer itself
		price := a.CurrentPrice
		v.CurrentPrice = &price
	}
	if a.Type == TypeDescending && a.Status == StatusActive {
		drops := DropsToFloor(a)
		v.DropsToFloor = &drops
	}
	if showAmounts && a.Type == TypeAscending && a.Status == StatusActive {
		next := MinimumNextBid(a)
		v.MinimumNextBid = &next
	}
	if leader != nil && showAmounts {
		id := leader.BidderID
		v.LeaderID = &id
	}

	bids := make([]*Bid, len(state.Bids))
	copy(bids, state.Bids)
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].CreatedAt.After(bids[j].CreatedAt) })
	if recent > 0 && len(bids) > recent {
		bids = bids[:recent]
	}
	for _, b := range bids {
		bv := BidView{ID: b.ID, BidderID: b.BidderID, IsAutoBid: b.IsAutoBid, IsWinning: b.IsWinning, CreatedAt: b.CreatedAt}
		if showAmounts || b.BidderID == viewer {
			amount := b.BidAmount
			bv.Amount = &amount
		}
		v.RecentBids = append(v.RecentBids, bv)
	}
	return v
}
