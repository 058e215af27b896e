package application

import (
	"context"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
)

// AuctionService is the application surface the transport layers depend on.
type AuctionService interface {
	CreateAuction(ctx context.Context, params domain.CreateAuctionParams) (*domain.Auction, error)
	GetAuction(ctx context.Context, auctionID, viewerID uuid.UUID) (*domain.AuctionView, error)
	PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, amount int64) (*BidResult, error)
	PlaceAutoBid(ctx context.Context, auctionID, userID uuid.UUID, maxAmount int64) (*BidResult, error)
	AcceptCurrentPrice(ctx context.Context, auctionID, userID uuid.UUID, price int64) (*BidResult, error)
	Cancel(ctx context.Context, auctionID, actorID uuid.UUID) error
	Watch(ctx context.Context, auctionID, userID uuid.UUID) (int, error)
	Unwatch(ctx context.Context, auctionID, userID uuid.UUID) (int, error)
	Tick(ctx context.Context, now time.Time) (TickReport, error)
}

var _ AuctionService = (*Engine)(nil)
