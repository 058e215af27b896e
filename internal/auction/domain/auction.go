package domain

import (
	"time"

	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/google/uuid"
)

var log = logger.GetLogger()

// AuctionType selects how the price moves.
type AuctionType string

const (
	TypeAscending  AuctionType = "ascending"
	TypeDescending AuctionType = "descending"
)

// BidVisibility controls whether amounts are shown to bidders who are not leading.
type BidVisibility string

const (
	VisibilityPublic  BidVisibility = "public"
	VisibilityPrivate BidVisibility = "private"
)

// AuctionStatus is the lifecycle state of an auction. Only active is non-terminal.
type AuctionStatus string

const (
	StatusActive    AuctionStatus = "active"
	StatusEnded     AuctionStatus = "ended"
	StatusCancelled AuctionStatus = "cancelled"
	StatusSold      AuctionStatus = "sold"
)

// IsTerminal reports whether no further transition can leave this status.
func (s AuctionStatus) IsTerminal() bool {
	return s != StatusActive
}

// Auction is the aggregate root. Amounts are minor currency units.
type Auction struct {
	ID          uuid.UUID
	SellerID    uuid.UUID
	Title       string
	Description string
	Type        AuctionType
	Visibility  BidVisibility

	StartPrice   int64
	CurrentPrice int64
	MinPrice     *int64 // descending floor
	InstantPrice *int64 // buy-now price, ascending only
	BidIncrement int64

	PriceDropAmount   int64
	PriceDropInterval time.Duration
	NextPriceDropAt   *time.Time

	StartedAt time.Time
	EndsAt    time.Time
	Status    AuctionStatus

	WinnerID     *uuid.UUID
	WinningBidID *uuid.UUID
	FinalPrice   *int64
	SoldAt       *time.Time

	BidCount   int
	WatchCount int

	// Version is bumped by the store on every commit and used for compare-and-set.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateAuctionParams carries what a seller supplies when listing an auction.
type CreateAuctionParams struct {
	SellerID          uuid.UUID
	Title             string
	Description       string
	Type              AuctionType
	Visibility        BidVisibility
	StartPrice        int64
	MinPrice          *int64
	InstantPrice      *int64
	BidIncrement      int64
	PriceDropAmount   int64
	PriceDropInterval time.Duration
	Duration          time.Duration
}

// NewAuction validates params and returns an active auction starting at now.
func NewAuction(p CreateAuctionParams, now time.Time) (*Auction, error) {
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	a := &Auction{
		ID:           uuid.New(),
		SellerID:     p.SellerID,
		Title:        p.Title,
		Description:  p.Description,
		Type:         p.Type,
		Visibility:   p.Visibility,
		StartPrice:   p.StartPrice,
		CurrentPrice: p.StartPrice,
		MinPrice:     p.MinPrice,
		InstantPrice: p.InstantPrice,
		BidIncrement: p.BidIncrement,
		StartedAt:    now,
		EndsAt:       now.Add(p.Duration),
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Type == TypeDescending {
		a.PriceDropAmount = p.PriceDropAmount
		a.PriceDropInterval = p.PriceDropInterval
		next := now.Add(p.PriceDropInterval)
		a.NextPriceDropAt = &next
	}
	return a, nil
}

func (p CreateAuctionParams) validate() error {
	if p.SellerID == uuid.Nil || p.StartPrice <= 0 || p.Duration <= 0 {
		return ErrInvalidAuction
	}
	if p.Visibility != VisibilityPublic && p.Visibility != VisibilityPrivate {
		return ErrInvalidAuction
	}
	switch p.Type {
	case TypeAscending:
		if p.BidIncrement <= 0 {
			return ErrInvalidAuction
		}
		if p.InstantPrice != nil && *p.InstantPrice <= p.StartPrice {
			return ErrInvalidAuction
		}
	case TypeDescending:
		if p.PriceDropAmount <= 0 || p.PriceDropInterval <= 0 {
			return ErrInvalidAuction
		}
		if p.MinPrice != nil && (*p.MinPrice < 0 || *p.MinPrice > p.StartPrice) {
			return ErrInvalidAuction
		}
	default:
		return ErrInvalidAuction
	}
	return nil
}

// Floor is the lowest price a descending auction may reach.
func (a *Auction) Floor() int64 {
	if a.MinPrice != nil {
		return *a.MinPrice
	}
	return 0
}

// IsOpen reports whether the auction accepts bids at now.
func (a *Auction) IsOpen(now time.Time) bool {
	return a.Status == StatusActive && now.Before(a.EndsAt)
}

// Clone returns a deep copy so mutations never alias stored state.
func (a *Auction) Clone() *Auction {
	c := *a
	c.MinPrice = cloneInt64(a.MinPrice)
	c.InstantPrice = cloneInt64(a.InstantPrice)
	c.FinalPrice = cloneInt64(a.FinalPrice)
	c.NextPriceDropAt = cloneTime(a.NextPriceDropAt)
	c.SoldAt = cloneTime(a.SoldAt)
	c.WinnerID = cloneUUID(a.WinnerID)
	c.WinningBidID = cloneUUID(a.WinningBidID)
	return &c
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneUUID(v *uuid.UUID) *uuid.UUID {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Int64Ptr is a convenience for optional prices.
func Int64Ptr(v int64) *int64 {
	return &v
}
