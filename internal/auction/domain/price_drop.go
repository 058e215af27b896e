package domain

import (
	"time"

	"go.uber.org/zap"
)

// DropOutcome is what a scheduler tick did to a descending auction.
type DropOutcome int

const (
	DropNone DropOutcome = iota
	DropApplied
	// DropFloorExpired means the price sat at the floor for a whole interval
	// without an accept; the auction must end.
	DropFloorExpired
)

// ApplyPriceDrop lowers a due descending auction by one step. At most one
// drop is applied per call so a late scheduler catches up one tick at a time.
func ApplyPriceDrop(a *Auction, now time.Time) DropOutcome {
	if a.Type != TypeDescending || a.Status != StatusActive || a.NextPriceDropAt == nil {
		return DropNone
	}
	if now.Before(*a.NextPriceDropAt) {
		return DropNone
	}

	floor := a.Floor()
	if a.CurrentPrice <= floor {
		return DropFloorExpired
	}

	previous := a.CurrentPrice
	a.CurrentPrice = max(floor, a.CurrentPrice-a.PriceDropAmount)
	next := a.NextPriceDropAt.Add(a.PriceDropInterval)
	a.NextPriceDropAt = &next
	a.UpdatedAt = now

	log.Debug("Price drop applied",
		zap.String("auctionID", a.ID.String()),
		zap.Int64("previousPrice", previous),
		zap.Int64("currentPrice", a.CurrentPrice),
		zap.Time("nextPriceDropAt", next),
	)
	return DropApplied
}

// DropsToFloor is how many more drops take a descending auction to its floor.
func DropsToFloor(a *Auction) int64 {
	gap := a.CurrentPrice - a.Floor()
	if a.Type != TypeDescending || gap <= 0 || a.PriceDropAmount <= 0 {
		return 0
	}
	return (gap + a.PriceDropAmount - 1) / a.PriceDropAmount
}
