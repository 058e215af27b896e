package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/cristianortiz/biddingengine/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	defaultRecentBids      = 20
	defaultCallbackTimeout = 10 * time.Second
)

// BidResult is returned by every bid-like operation. On rejection Success is
// false and Error carries the reason code; the typed error is returned too.
type BidResult struct {
	Success         bool      `json:"success"`
	BidID           uuid.UUID `json:"bid_id,omitempty"`
	InstantWin      bool      `json:"instant_win"`
	NewCurrentPrice int64     `json:"new_current_price"`
	Error           string    `json:"error,omitempty"`
}

// Engine is the auction facade. Every mutation of one auction runs inside
// that auction's serialization unit and is returned only after the store
// committed it. Settlement and notifications run after the commit and are
// never waited on by callers.
type Engine struct {
	store      domain.AuctionStore
	settlement domain.SettlementRequester
	notifier   domain.Notifier
	clock      func() time.Time
	adminID    uuid.UUID
	recentBids int

	callbackTimeout time.Duration

	units *unitTable
	wg    sync.WaitGroup
}

type Option func(*Engine)

func WithSettlement(s domain.SettlementRequester) Option {
	return func(e *Engine) { e.settlement = s }
}

func WithNotifier(n domain.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithAdmin lets actorID cancel any auction besides its seller.
func WithAdmin(actorID uuid.UUID) Option {
	return func(e *Engine) { e.adminID = actorID }
}

func WithRecentBids(n int) Option {
	return func(e *Engine) { e.recentBids = n }
}

func WithCallbackTimeout(d time.Duration) Option {
	return func(e *Engine) { e.callbackTimeout = d }
}

// NewEngine creates the engine over store. Without a settlement requester or
// notifier the matching events are only logged.
func NewEngine(store domain.AuctionStore, opts ...Option) *Engine {
	e := &Engine{
		store:           store,
		clock:           time.Now,
		recentBids:      defaultRecentBids,
		callbackTimeout: defaultCallbackTimeout,
		units:           newUnitTable(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close waits for in-flight settlement requests and notifications.
func (e *Engine) Close() {
	e.wg.Wait()
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

// rejected logs err and wraps it for the caller together with a failed result.
func rejected(op string, auctionID uuid.UUID, err error) (*BidResult, error) {
	fields := []zap.Field{zap.String("auctionID", auctionID.String()), zap.Error(err)}
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrLifecycle), errors.Is(err, domain.ErrAuctionNotFound):
		log.Warn(op+": rejected", fields...)
	default:
		log.Error(op+": failed", fields...)
	}
	metrics.Rejected(op, domain.Reason(err))
	return &BidResult{Success: false, Error: domain.Reason(err)}, fmt.Errorf("%s: %w", op, err)
}

// async runs fn after the commit on its own goroutine, bounded by the
// callback timeout and tracked for Close.
func (e *Engine) async(name string, auctionID uuid.UUID, fn func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("Recovered from panic in engine callback",
					zap.String("callback", name),
					zap.String("auctionID", auctionID.String()),
					zap.Any("panic", r),
				)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), e.callbackTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (e *Engine) publishLeader(state *domain.AuctionState) {
	leader := state.WinningBid()
	if leader == nil || e.notifier == nil {
		return
	}
	a := state.Auction
	ev := domain.LeaderEvent{
		AuctionID:    a.ID,
		LeaderID:     leader.BidderID,
		CurrentPrice: a.CurrentPrice,
		BidCount:     a.BidCount,
		WatchCount:   a.WatchCount,
		Visibility:   a.Visibility,
		At:           a.UpdatedAt,
	}
	e.async("leader_changed", a.ID, func(ctx context.Context) { e.notifier.LeaderChanged(ctx, ev) })
}

func (e *Engine) publishPriceDrop(a *domain.Auction) {
	metrics.PriceDropped()
	if e.notifier == nil {
		return
	}
	ev := domain.PriceEvent{
		AuctionID:       a.ID,
		CurrentPrice:    a.CurrentPrice,
		NextPriceDropAt: a.NextPriceDropAt,
		At:              a.UpdatedAt,
	}
	e.async("price_dropped", a.ID, func(ctx context.Context) { e.notifier.PriceDropped(ctx, ev) })
}

func (e *Engine) publishWatch(a *domain.Auction) {
	if e.notifier == nil {
		return
	}
	ev := domain.WatchEvent{AuctionID: a.ID, WatchCount: a.WatchCount}
	e.async("watch_count_changed", a.ID, func(ctx context.Context) { e.notifier.WatchCountChanged(ctx, ev) })
}

// publishEnd announces a terminal transition and asks for settlement when
// the auction was sold. Settlement failures are logged only.
func (e *Engine) publishEnd(a *domain.Auction) {
	metrics.AuctionClosed(string(a.Status))
	if e.notifier != nil {
		ev := domain.EndEvent{
			AuctionID:  a.ID,
			Status:     a.Status,
			WinnerID:   a.WinnerID,
			FinalPrice: a.FinalPrice,
			At:         a.UpdatedAt,
		}
		e.async("auction_ended", a.ID, func(ctx context.Context) { e.notifier.AuctionEnded(ctx, ev) })
	}

	if a.Status != domain.StatusSold || a.WinnerID == nil || a.FinalPrice == nil {
		return
	}
	req := domain.SettlementRequest{AuctionID: a.ID, WinnerID: *a.WinnerID, FinalPrice: *a.FinalPrice}
	if e.settlement == nil {
		log.Warn("No settlement requester configured, settlement skipped",
			zap.String("auctionID", req.AuctionID.String()),
			zap.String("winnerID", req.WinnerID.String()),
			zap.Int64("finalPrice", req.FinalPrice),
		)
		return
	}
	e.async("settlement", a.ID, func(ctx context.Context) {
		if err := e.settlement.RequestSettlement(ctx, req); err != nil {
			log.Error("Settlement request failed",
				zap.String("auctionID", req.AuctionID.String()),
				zap.String("winnerID", req.WinnerID.String()),
				zap.Int64("finalPrice", req.FinalPrice),
				zap.Error(err),
			)
			return
		}
		log.Info("Settlement requested",
			zap.String("auctionID", req.AuctionID.String()),
			zap.String("winnerID", req.WinnerID.String()),
			zap.Int64("finalPrice", req.FinalPrice),
		)
	})
}

// publishBid emits the events for an accepted bid-like mutation.
func (e *Engine) publishBid(state *domain.AuctionState) {
	metrics.BidAccepted()
	if state.Auction.Status.IsTerminal() {
		e.publishEnd(state.Auction)
		return
	}
	e.publishLeader(state)
}
