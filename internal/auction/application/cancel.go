package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Cancel cancels an active auction. Only the seller or the configured admin
// actor may do so; bids already placed stay recorded.
func (e *Engine) Cancel(ctx context.Context, auctionID, actorID uuid.UUID) error {
	release := e.units.acquire(auctionID)
	defer release()
	now := e.now()

	state, err := e.store.Commit(ctx, auctionID, func(s *domain.AuctionState) error {
		if actorID != s.Auction.SellerID && (e.adminID == uuid.Nil || actorID != e.adminID) {
			return domain.ErrNotAuthorized
		}
		_, err := domain.Cancel(s, now)
		return err
	})
	if err != nil {
		log.Warn("Cancel rejected",
			zap.String("auctionID", auctionID.String()),
			zap.String("actorID", actorID.String()),
			zap.Error(err),
		)
		metrics.Rejected("cancel", domain.Reason(err))
		return fmt.Errorf("cancel auction %s: %w", auctionID, err)
	}

	e.publishEnd(state.Auction)
	return nil
}
