package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
)

// GetAuction returns the auction as viewerID may see it. Reads do not take
// the serialization unit; the store hands out a consistent snapshot.
func (e *Engine) GetAuction(ctx context.Context, auctionID, viewerID uuid.UUID) (*domain.AuctionView, error) {
	state, err := e.store.LoadState(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return domain.View(state, viewerID, e.recentBids), nil
}
