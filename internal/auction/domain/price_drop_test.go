package domain

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
)

func TestApplyPriceDrop_WalksToFloor(t *testing.T) {
	s := descendingState(t)
	a := s.Auction
	check.Equal(t, int64(3), DropsToFloor(a))

	check.Equal(t, DropNone, ApplyPriceDrop(a, t0.Add(59*time.Second)))
	check.Equal(t, int64(1000), a.CurrentPrice)

	want := []int64{700, 400, 200}
	for i, price := range want {
		at := t0.Add(time.Duration(i+1) * time.Minute)
		check.Equal(t, DropApplied, ApplyPriceDrop(a, at))
		check.Equal(t, price, a.CurrentPrice)
		check.Equal(t, at.Add(time.Minute), *a.NextPriceDropAt)
		check.Equal(t, int64(len(want)-i-1), DropsToFloor(a))
	}

	// a full interval at the floor without an accept ends the auction
	check.Equal(t, DropNone, ApplyPriceDrop(a, t0.Add(3*time.Minute)))
	check.Equal(t, DropFloorExpired, ApplyPriceDrop(a, t0.Add(4*time.Minute)))
	check.Equal(t, int64(200), a.CurrentPrice)
}

func TestApplyPriceDrop_OneStepPerCall(t *testing.T) {
	a := descendingState(t).Auction
	check.Equal(t, DropApplied, ApplyPriceDrop(a, t0.Add(10*time.Minute)))
	check.Equal(t, int64(700), a.CurrentPrice)
	check.Equal(t, t0.Add(2*time.Minute), *a.NextPriceDropAt)
}

func TestApplyPriceDrop_IgnoresOthers(t *testing.T) {
	asc := ascendingState(t, nil).Auction
	check.Equal(t, DropNone, ApplyPriceDrop(asc, t0.Add(time.Hour)))

	desc := descendingState(t).Auction
	desc.Status = StatusSold
	check.Equal(t, DropNone, ApplyPriceDrop(desc, t0.Add(time.Minute)))
	check.Equal(t, int64(1000), desc.CurrentPrice)
}

func TestApplyPriceDrop_NoFloorDropsToZero(t *testing.T) {
	a := descendingState(t).Auction
	a.MinPrice = nil
	check.Equal(t, int64(4), DropsToFloor(a))
	for i := 1; i <= 4; i++ {
		ApplyPriceDrop(a, t0.Add(time.Duration(i)*time.Minute))
	}
	check.Equal(t, int64(0), a.CurrentPrice)
}
