package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errNothingDue = errors.New("nothing due")

// TickReport summarises one scheduler tick.
type TickReport struct {
	Due        int `json:"due"`
	PriceDrops int `json:"price_drops"`
	Sold       int `json:"sold"`
	Ended      int `json:"ended"`
	Failed     int `json:"failed"`
}

// Tick advances every due auction: expired auctions are closed, descending
// auctions drop one step, and a descending auction that already sat at its
// floor for a whole interval ends unsold. Each auction is handled inside its
// own serialization unit; a failure on one does not stop the others.
func (e *Engine) Tick(ctx context.Context, now time.Time) (TickReport, error) {
	start := time.Now()
	defer func() { metrics.ObserveTick(time.Since(start)) }()

	var report TickReport
	ids, err := e.store.ListDue(ctx, now)
	if err != nil {
		log.Error("Tick: failed to list due auctions", zap.Error(err))
		return report, fmt.Errorf("tick: list due auctions: %w", err)
	}
	report.Due = len(ids)

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := e.tickOne(ctx, id, now, &report); err != nil {
			report.Failed++
			log.Error("Tick: failed to advance auction",
				zap.String("auctionID", id.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("tick auction %s: %w", id, err))
		}
	}
	return report, errors.Join(errs...)
}

func (e *Engine) tickOne(ctx context.Context, id uuid.UUID, now time.Time, report *TickReport) error {
	release := e.units.acquire(id)
	defer release()

	var dropped bool
	state, err := e.store.Commit(ctx, id, func(s *domain.AuctionState) error {
		dropped = false
		if _, ok, err := domain.Expire(s, now); ok || err != nil {
			return err
		}
		switch domain.ApplyPriceDrop(s.Auction, now) {
		case domain.DropApplied:
			dropped = true
			return nil
		case domain.DropFloorExpired:
			_, err := domain.EndUnsold(s, now)
			return err
		}
		return errNothingDue
	})
	if errors.Is(err, errNothingDue) {
		return nil
	}
	if err != nil {
		return err
	}

	a := state.Auction
	switch {
	case dropped:
		report.PriceDrops++
		e.publishPriceDrop(a)
	case a.Status == domain.StatusSold:
		report.Sold++
		e.publishEnd(a)
	case a.Status.IsTerminal():
		report.Ended++
		e.publishEnd(a)
	}
	return nil
}
