package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
)

// errUnchanged aborts a commit that would not change anything.
var errUnchanged = errors.New("nothing to change")

// Watch adds userID to the auction's watchers and returns the watch count.
// Watching twice is a no-op.
func (e *Engine) Watch(ctx context.Context, auctionID, userID uuid.UUID) (int, error) {
	return e.updateWatch(ctx, auctionID, "watch", func(s *domain.AuctionState) error {
		if s.Auction.Status != domain.StatusActive {
			return domain.ErrNotActive
		}
		if !s.AddWatch(userID, e.now()) {
			return errUnchanged
		}
		return nil
	})
}

// Unwatch removes userID from the auction's watchers and returns the watch count.
func (e *Engine) Unwatch(ctx context.Context, auctionID, userID uuid.UUID) (int, error) {
	return e.updateWatch(ctx, auctionID, "unwatch", func(s *domain.AuctionState) error {
		if !s.RemoveWatch(userID) {
			return errUnchanged
		}
		return nil
	})
}

func (e *Engine) updateWatch(ctx context.Context, auctionID uuid.UUID, op string, fn domain.MutationFunc) (int, error) {
	release := e.units.acquire(auctionID)
	defer release()

	state, err := e.store.Commit(ctx, auctionID, fn)
	if errors.Is(err, errUnchanged) {
		a, loadErr := e.store.LoadAuction(ctx, auctionID)
		if loadErr != nil {
			return 0, fmt.Errorf("%s: %w", op, loadErr)
		}
		return a.WatchCount, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	e.publishWatch(state.Auction)
	return state.Auction.WatchCount, nil
}
