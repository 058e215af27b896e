package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source is one bid source taking part in a resolution: an incoming human
// bid, an incoming auto-bid or a standing auto-bid instruction.
type Source struct {
	UserID    uuid.UUID
	Ceiling   int64
	CreatedAt time.Time
	// AutoBid is nil for human bids.
	AutoBid *AutoBid
}

// HumanSource builds the source for a human bid; its ceiling is the stated amount.
func HumanSource(userID uuid.UUID, amount int64, now time.Time) Source {
	return Source{UserID: userID, Ceiling: amount, CreatedAt: now}
}

// AutoSource builds the source for a standing instruction.
func AutoSource(ab *AutoBid) Source {
	return Source{UserID: ab.UserID, Ceiling: ab.MaxAmount, CreatedAt: ab.CreatedAt, AutoBid: ab}
}

// Resolution is what the resolver did to the state.
type Resolution struct {
	Incoming       *Bid // row recorded for the incoming source
	Leader         *Bid // winning row afterwards
	PreviousLeader *uuid.UUID
	Price          int64
	LeaderChanged  bool
	InstantWin     bool
	Recorded       []*Bid
	Steps          int
}

// Resolve runs sealed-maximum proxy bidding for an ascending auction: the
// incoming source challenges the current leader, then each standing auto-bid
// whose ceiling still exceeds the displayed price challenges once, highest
// ceiling first. The displayed price is always the least amount needed to
// stay ahead of the runner-up. The caller has validated the incoming
// proposal and holds the auction's serialization unit.
func Resolve(state *AuctionState, incoming Source, now time.Time) *Resolution {
	r := &resolver{
		state:  state,
		leader: state.WinningBid(),
		price:  state.Auction.CurrentPrice,
		now:    now,
		res:    &Resolution{},
	}
	if r.leader != nil {
		prev := r.leader.BidderID
		r.res.PreviousLeader = &prev
		r.since = leaderSince(state, r.leader)
	}

	r.res.Incoming = r.challenge(incoming)

	for _, ab := range r.standing(incoming) {
		if r.res.InstantWin || ab.MaxAmount <= r.price {
			break
		}
		if r.leader != nil && ab.UserID == r.leader.BidderID {
			continue
		}
		r.challenge(AutoSource(ab))
	}

	if r.leader.IsAutoBid && r.leader.BidAmount != r.price {
		r.leader.BidAmount = r.price
		state.TouchBid(r.leader)
	}
	state.Auction.CurrentPrice = r.price
	state.Auction.UpdatedAt = now

	r.res.Leader = r.leader
	r.res.Price = r.price
	r.res.LeaderChanged = r.res.PreviousLeader == nil || *r.res.PreviousLeader != r.leader.BidderID

	log.Debug("Auto-bid resolution finished",
		zap.String("auctionID", state.Auction.ID.String()),
		zap.String("leaderID", r.leader.BidderID.String()),
		zap.Int64("price", r.price),
		zap.Int("steps", r.res.Steps),
		zap.Bool("instantWin", r.res.InstantWin),
	)
	return r.res
}

type resolver struct {
	state  *AuctionState
	leader *Bid
	since  time.Time // when the leader's ceiling was first stated, for tie-breaks
	price  int64
	now    time.Time
	res    *Resolution
}

// leaderSince dates an existing leader row. A leading auto-bid row dates
// from its instruction, which may predate the row.
func leaderSince(state *AuctionState, leader *Bid) time.Time {
	if leader.IsAutoBid {
		if ab := state.ActiveAutoBid(leader.BidderID); ab != nil && ab.MaxAmount == leader.Ceiling() && ab.CreatedAt.Before(leader.CreatedAt) {
			return ab.CreatedAt
		}
	}
	return leader.CreatedAt
}

func (r *resolver) lead(row *Bid, s Source) {
	r.state.SetWinner(row)
	r.leader = row
	r.since = s.CreatedAt
}

// standing lists active instructions other than the incoming one, highest
// ceiling first, earliest first on equal ceilings.
func (r *resolver) standing(incoming Source) []*AutoBid {
	var out []*AutoBid
	for _, ab := range r.state.ActiveAutoBids() {
		if incoming.AutoBid != nil && ab.ID == incoming.AutoBid.ID {
			continue
		}
		out = append(out, ab)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MaxAmount != out[j].MaxAmount {
			return out[i].MaxAmount > out[j].MaxAmount
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// challenge applies one step against the current leader and returns the row recorded for s.
func (r *resolver) challenge(s Source) *Bid {
	r.res.Steps++
	inc := r.state.Auction.BidIncrement

	if r.leader == nil {
		row := r.record(s, r.price)
		r.lead(row, s)
		r.checkInstant()
		return row
	}

	// a user never outbids themself. A human bid only raises their ceiling; a
	// replacing auto-bid sets it, bounded below by their own human bids.
	if s.UserID == r.leader.BidderID {
		row := r.record(s, r.price)
		switch {
		case s.Ceiling > r.leader.Ceiling():
			r.lead(row, s)
		case s.AutoBid != nil:
			best, since := row, s.CreatedAt
			if h := r.bestHumanRow(s.UserID); h != nil && h.BidAmount > row.Ceiling() {
				best, since = h, h.CreatedAt
			}
			r.state.SetWinner(best)
			r.leader, r.since = best, since
		}
		return row
	}

	lc := r.leader.Ceiling()
	wins := s.Ceiling > lc || (s.Ceiling == lc && s.CreatedAt.Before(r.since))
	if wins {
		r.raise(min(s.Ceiling, lc+inc))
		r.lead(r.record(s, r.price), s)
	} else {
		r.raise(min(lc, s.Ceiling+inc))
		r.record(s, s.Ceiling)
	}
	r.checkInstant()
	return r.res.Recorded[len(r.res.Recorded)-1]
}

// bestHumanRow returns userID's highest human bid, earliest first on equal amounts.
func (r *resolver) bestHumanRow(userID uuid.UUID) *Bid {
	var best *Bid
	for _, b := range r.state.Bids {
		if b.IsAutoBid || b.IsCancelled || b.BidderID != userID {
			continue
		}
		if best == nil || b.BidAmount > best.BidAmount {
			best = b
		}
	}
	return best
}

func (r *resolver) raise(p int64) {
	if p > r.price {
		r.price = p
	}
}

func (r *resolver) checkInstant() {
	ip := r.state.Auction.InstantPrice
	if ip != nil && r.price >= *ip {
		r.price = *ip
		r.res.InstantWin = true
	}
}

// record appends a row for s. Auto-bid rows carry the amount bid on the
// instruction's behalf, human rows keep the stated amount.
func (r *resolver) record(s Source, autoAmount int64) *Bid {
	var row *Bid
	if s.AutoBid != nil {
		row = NewAutoBidRow(r.state.Auction.ID, s.UserID, min(autoAmount, s.Ceiling), s.Ceiling, r.now)
	} else {
		row = NewBid(r.state.Auction.ID, s.UserID, s.Ceiling, r.now)
	}
	r.state.AppendBid(row)
	r.res.Recorded = append(r.res.Recorded, row)
	return row
}
