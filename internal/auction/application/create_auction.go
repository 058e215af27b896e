package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"go.uber.org/zap"
)

// CreateAuction validates params and persists a new active auction starting now.
func (e *Engine) CreateAuction(ctx context.Context, params domain.CreateAuctionParams) (*domain.Auction, error) {
	a, err := domain.NewAuction(params, e.now())
	if err != nil {
		log.Warn("Rejected auction parameters",
			zap.String("sellerID", params.SellerID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create auction: %w", err)
	}
	if err := e.store.CreateAuction(ctx, a); err != nil {
		log.Error("Failed to persist auction",
			zap.String("auctionID", a.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create auction: %w", err)
	}
	log.Info("Auction created",
		zap.String("auctionID", a.ID.String()),
		zap.String("type", string(a.Type)),
		zap.Int64("startPrice", a.StartPrice),
		zap.Time("endsAt", a.EndsAt),
	)
	return a, nil
}
