package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"pgregory.net/rapid"
)

func TestResolve_AutoBidHoldsAgainstHuman(t *testing.T) {
	s := ascendingState(t, ptr(int64(5000)))
	a, b := uuid.New(), uuid.New()

	_, res := placeAuto(s, a, 3000, t0)
	check.Equal(t, int64(1000), res.Price)
	check.True(t, res.LeaderChanged)

	s = s.Clone()
	res = Resolve(s, HumanSource(b, 2000, t0.Add(time.Second)), t0.Add(time.Second))
	check.Equal(t, int64(2100), res.Price)
	check.Equal(t, a, res.Leader.BidderID)
	check.Equal(t, int64(2100), res.Leader.BidAmount)
	check.False(t, res.LeaderChanged)
	check.False(t, res.Incoming.IsWinning)
	check.Equal(t, int64(2000), res.Incoming.BidAmount)
	check.Equal(t, int64(2100), s.Auction.CurrentPrice)
	check.Equal(t, 1, winningRows(s))

	// the leading auto-bid row is rewritten in place
	changes := s.Changes()
	check.Equal(t, 1, len(changes.NewBids))
	assert.Equal(t, 1, len(changes.UpdatedBids))
	check.Equal(t, a, changes.UpdatedBids[0].BidderID)
}

func TestResolve_NewLeaderPaysOneIncrementOverPreviousCeiling(t *testing.T) {
	s := ascendingState(t, nil)
	a, b := uuid.New(), uuid.New()
	placeAuto(s, a, 3000, t0)

	_, res := placeAuto(s, b, 8000, t0.Add(time.Second))
	check.Equal(t, b, res.Leader.BidderID)
	check.Equal(t, int64(3100), res.Price)
	check.True(t, res.LeaderChanged)
	assert.True(t, res.PreviousLeader != nil)
	check.Equal(t, a, *res.PreviousLeader)
	check.Equal(t, 1, winningRows(s))
}

func TestResolve_EqualCeilingsFavourTheEarlierBidder(t *testing.T) {
	s := ascendingState(t, nil)
	a, b := uuid.New(), uuid.New()
	placeAuto(s, a, 3000, t0)

	_, res := placeAuto(s, b, 3000, t0.Add(time.Second))
	check.Equal(t, a, res.Leader.BidderID)
	check.Equal(t, int64(3000), res.Price)
	check.False(t, res.LeaderChanged)
}

func TestResolve_SameUserOnlyRaisesCeiling(t *testing.T) {
	s := ascendingState(t, nil)
	a := uuid.New()
	first := Resolve(s, HumanSource(a, 1100, t0), t0)
	check.Equal(t, int64(1000), first.Price)

	second := Resolve(s, HumanSource(a, 1500, t0.Add(time.Second)), t0.Add(time.Second))
	check.Equal(t, int64(1000), second.Price)
	check.True(t, second.Leader == second.Incoming)
	check.False(t, first.Incoming.IsWinning)
	check.False(t, second.LeaderChanged)
	check.Equal(t, 1, winningRows(s))
}

func TestResolve_InstantWinCapsPrice(t *testing.T) {
	s := ascendingState(t, ptr(int64(5000)))
	a, b := uuid.New(), uuid.New()
	placeAuto(s, a, 6000, t0)

	res := Resolve(s, HumanSource(b, 4950, t0.Add(time.Second)), t0.Add(time.Second))
	check.True(t, res.InstantWin)
	check.Equal(t, int64(5000), res.Price)
	check.Equal(t, a, res.Leader.BidderID)
}

func TestResolve_AutoBidOutranksLeadingAutoBid(t *testing.T) {
	s := ascendingState(t, nil)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	placeAuto(s, a, 4000, t0)
	// b's human bid loses to a, then c's auto-bid outranks both
	Resolve(s, HumanSource(b, 2500, t0.Add(time.Second)), t0.Add(time.Second))
	check.Equal(t, int64(2600), s.Auction.CurrentPrice)

	_, res := placeAuto(s, c, 6000, t0.Add(2*time.Second))
	check.Equal(t, c, res.Leader.BidderID)
	check.Equal(t, int64(4100), res.Price)
	check.Equal(t, int64(4100), res.Leader.BidAmount)
}

func TestResolve_LoweredAutoBidGovernsLeader(t *testing.T) {
	s := ascendingState(t, nil)
	a, b := uuid.New(), uuid.New()
	placeAuto(s, a, 3000, t0)

	lowered, res := placeAuto(s, a, 2000, t0.Add(time.Second))
	check.False(t, res.LeaderChanged)
	check.True(t, res.Leader == res.Incoming)
	check.Equal(t, int64(2000), res.Leader.Ceiling())
	check.Equal(t, int64(1000), res.Price)
	check.Equal(t, lowered.ID, s.ActiveAutoBid(a).ID)
	check.Equal(t, 1, winningRows(s))

	res = Resolve(s, HumanSource(b, 2500, t0.Add(2*time.Second)), t0.Add(2*time.Second))
	check.Equal(t, b, res.Leader.BidderID)
	check.Equal(t, int64(2100), res.Price)
	check.True(t, res.LeaderChanged)
}

func TestResolve_LoweredAutoBidKeepsHigherHumanBid(t *testing.T) {
	s := ascendingState(t, nil)
	a := uuid.New()
	placeAuto(s, a, 3000, t0)
	human := Resolve(s, HumanSource(a, 2500, t0.Add(time.Second)), t0.Add(time.Second)).Incoming
	check.False(t, human.IsWinning)

	_, res := placeAuto(s, a, 2000, t0.Add(2*time.Second))
	check.True(t, res.Leader == human)
	check.Equal(t, int64(2500), res.Leader.Ceiling())
	check.Equal(t, 1, winningRows(s))
}

// ceilingModel tracks what each user currently authorises: the latest
// auto-bid replaces the previous one, human bids only add.
type ceilingModel struct {
	human map[uuid.UUID]int64
	auto  map[uuid.UUID]int64
}

func newCeilingModel() *ceilingModel {
	return &ceilingModel{human: map[uuid.UUID]int64{}, auto: map[uuid.UUID]int64{}}
}

func (m *ceilingModel) see(b *Bid) {
	if b.IsAutoBid {
		m.auto[b.BidderID] = b.Ceiling()
		return
	}
	m.human[b.BidderID] = max(m.human[b.BidderID], b.BidAmount)
}

func (m *ceilingModel) current(user uuid.UUID) int64 {
	return max(m.human[user], m.auto[user])
}

func (m *ceilingModel) users() map[uuid.UUID]struct{} {
	out := map[uuid.UUID]struct{}{}
	for u := range m.human {
		out[u] = struct{}{}
	}
	for u := range m.auto {
		out[u] = struct{}{}
	}
	return out
}

// runnerUp is the highest current ceiling of anyone but leader.
func (m *ceilingModel) runnerUp(leader uuid.UUID) (int64, bool) {
	second, found := int64(0), false
	for user := range m.users() {
		if user == leader {
			continue
		}
		if c := m.current(user); !found || c > second {
			second, found = c, true
		}
	}
	return second, found
}

func TestResolve_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := ascendingState(t, nil)
		users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
		model := newCeilingModel()
		now := t0
		last := s.Auction.CurrentPrice

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			now = now.Add(time.Second)
			user := users[rapid.IntRange(0, len(users)-1).Draw(rt, "user")]
			next := MinimumNextBid(s.Auction)
			amount := rapid.Int64Range(next, next+3000).Draw(rt, "amount")

			var res *Resolution
			if rapid.Bool().Draw(rt, "auto") {
				p := Proposal{Kind: ProposalAutoBid, BidderID: user, BidAmount: next, MaxBidAmount: amount}
				if err := Validate(s.Auction, p, now); err != nil {
					rt.Fatalf("valid auto-bid rejected: %v", err)
				}
				_, res = placeAuto(s, user, amount, now)
			} else {
				p := Proposal{Kind: ProposalBid, BidderID: user, BidAmount: amount}
				if err := Validate(s.Auction, p, now); err != nil {
					rt.Fatalf("valid bid rejected: %v", err)
				}
				res = Resolve(s, HumanSource(user, amount, now), now)
			}
			for _, b := range res.Recorded {
				model.see(b)
			}

			price := s.Auction.CurrentPrice
			leader := s.WinningBid()
			if leader == nil || winningRows(s) != 1 {
				rt.Fatalf("want exactly one winning row, got %d", winningRows(s))
			}
			if price < last {
				rt.Fatalf("price went down from %d to %d", last, price)
			}
			if price > leader.Ceiling() {
				rt.Fatalf("price %d above leader ceiling %d", price, leader.Ceiling())
			}
			if c := model.current(leader.BidderID); c != leader.Ceiling() {
				rt.Fatalf("leader row ceiling %d, leader authorises %d", leader.Ceiling(), c)
			}
			if second, ok := model.runnerUp(leader.BidderID); !ok {
				if price != s.Auction.StartPrice {
					rt.Fatalf("single bidder moved the price to %d", price)
				}
			} else {
				if second > leader.Ceiling() {
					rt.Fatalf("ceiling %d outranks leader ceiling %d", second, leader.Ceiling())
				}
				// an earlier equal ceiling may hold the lead at the runner-up's amount
				want := min(leader.Ceiling(), second+s.Auction.BidIncrement)
				if price != want && price != second {
					rt.Fatalf("price %d, want %d (runner-up %d)", price, want, second)
				}
			}
			if res.Steps > 1+len(s.ActiveAutoBids()) {
				rt.Fatalf("resolution took %d steps with %d instructions", res.Steps, len(s.ActiveAutoBids()))
			}
			last = price
		}
	})
}
