package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuctionState is everything one auction owns, handed to a mutation by the
// store. Mutations go through the methods below so the store can persist
// exactly what changed.
type AuctionState struct {
	Auction  *Auction
	Bids     []*Bid
	AutoBids []*AutoBid
	Watches  []*Watch

	changes Changes
}

// Changes is the write set a store applies in one atomic commit.
type Changes struct {
	NewBids        []*Bid
	UpdatedBids    []*Bid
	AutoBids       []*AutoBid // inserted or updated
	NewWatches     []*Watch
	RemovedWatches []*Watch
}

// Empty reports whether nothing besides the auction row changed.
func (c Changes) Empty() bool {
	return len(c.NewBids) == 0 && len(c.UpdatedBids) == 0 && len(c.AutoBids) == 0 &&
		len(c.NewWatches) == 0 && len(c.RemovedWatches) == 0
}

// NewAuctionState wraps loaded rows. The rows are not copied.
func NewAuctionState(a *Auction, bids []*Bid, autoBids []*AutoBid, watches []*Watch) *AuctionState {
	return &AuctionState{Auction: a, Bids: bids, AutoBids: autoBids, Watches: watches}
}

// Clone deep-copies the state and drops any pending changes.
func (s *AuctionState) Clone() *AuctionState {
	c := &AuctionState{
		Auction:  s.Auction.Clone(),
		Bids:     make([]*Bid, len(s.Bids)),
		AutoBids: make([]*AutoBid, len(s.AutoBids)),
		Watches:  make([]*Watch, len(s.Watches)),
	}
	for i, b := range s.Bids {
		c.Bids[i] = b.Clone()
	}
	for i, ab := range s.AutoBids {
		c.AutoBids[i] = ab.Clone()
	}
	for i, w := range s.Watches {
		c.Watches[i] = w.Clone()
	}
	return c
}

// Changes returns the pending write set.
func (s *AuctionState) Changes() Changes {
	return s.changes
}

// WinningBid returns the current winning row, or nil before the first bid.
func (s *AuctionState) WinningBid() *Bid {
	for _, b := range s.Bids {
		if b.IsWinning && !b.IsCancelled {
			return b
		}
	}
	return nil
}

// ActiveAutoBid returns the user's active instruction, if any.
func (s *AuctionState) ActiveAutoBid(userID uuid.UUID) *AutoBid {
	for _, ab := range s.AutoBids {
		if ab.IsActive && ab.UserID == userID {
			return ab
		}
	}
	return nil
}

// ActiveAutoBids returns every active instruction.
func (s *AuctionState) ActiveAutoBids() []*AutoBid {
	var out []*AutoBid
	for _, ab := range s.AutoBids {
		if ab.IsActive {
			out = append(out, ab)
		}
	}
	return out
}

// AppendBid records a new bid row and bumps the bid counter.
func (s *AuctionState) AppendBid(b *Bid) {
	s.Bids = append(s.Bids, b)
	s.Auction.BidCount++
	s.changes.NewBids = append(s.changes.NewBids, b)
}

// TouchBid marks an existing row as updated. Rows added in this mutation are
// already part of NewBids and are skipped.
func (s *AuctionState) TouchBid(b *Bid) {
	for _, nb := range s.changes.NewBids {
		if nb.ID == b.ID {
			return
		}
	}
	for _, ub := range s.changes.UpdatedBids {
		if ub.ID == b.ID {
			return
		}
	}
	s.changes.UpdatedBids = append(s.changes.UpdatedBids, b)
}

// SetWinner makes b the only winning row, flipping every other row to false.
func (s *AuctionState) SetWinner(b *Bid) {
	for _, other := range s.Bids {
		if other.ID != b.ID && other.IsWinning {
			other.IsWinning = false
			s.TouchBid(other)
		}
	}
	if !b.IsWinning {
		b.IsWinning = true
		s.TouchBid(b)
	}
}

// PutAutoBid inserts or replaces the user's instruction, deactivating any
// previous active one so at most one stays active per user.
func (s *AuctionState) PutAutoBid(ab *AutoBid, now time.Time) {
	for _, existing := range s.AutoBids {
		if existing.ID != ab.ID && existing.IsActive && existing.UserID == ab.UserID {
			existing.IsActive = false
			existing.UpdatedAt = now
			s.markAutoBid(existing)
		}
	}
	found := false
	for _, existing := range s.AutoBids {
		if existing.ID == ab.ID {
			found = true
			break
		}
	}
	if !found {
		s.AutoBids = append(s.AutoBids, ab)
	}
	s.markAutoBid(ab)
}

func (s *AuctionState) markAutoBid(ab *AutoBid) {
	for _, c := range s.changes.AutoBids {
		if c.ID == ab.ID {
			return
		}
	}
	s.changes.AutoBids = append(s.changes.AutoBids, ab)
}

// AddWatch registers userID as a watcher. It returns false when already watching.
func (s *AuctionState) AddWatch(userID uuid.UUID, now time.Time) bool {
	for _, w := range s.Watches {
		if w.UserID == userID {
			return false
		}
	}
	w := &Watch{ID: uuid.New(), AuctionID: s.Auction.ID, UserID: userID, CreatedAt: now}
	s.Watches = append(s.Watches, w)
	s.Auction.WatchCount++
	s.changes.NewWatches = append(s.changes.NewWatches, w)
	return true
}

// RemoveWatch drops userID's watch. It returns false when there was none.
func (s *AuctionState) RemoveWatch(userID uuid.UUID) bool {
	for i, w := range s.Watches {
		if w.UserID == userID {
			s.Watches = append(s.Watches[:i], s.Watches[i+1:]...)
			s.Auction.WatchCount--
			s.changes.RemovedWatches = append(s.changes.RemovedWatches, w)
			return true
		}
	}
	return false
}
