package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Store implements domain.AuctionStore on Postgres. Commit locks the auction
// row with SELECT ... FOR UPDATE and writes it back with a version check, so
// two writers can never both commit against the same version.
type Store struct {
	pool     *pgxpool.Pool
	auctions *AuctionRepository
	bids     *BidRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		auctions: &AuctionRepository{},
		bids:     &BidRepository{},
	}
}

func (s *Store) CreateAuction(ctx context.Context, a *domain.Auction) error {
	if err := s.auctions.Insert(ctx, s.pool, a); err != nil {
		return domain.StoreFailure("insert auction", err)
	}
	return nil
}

func (s *Store) LoadAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	a, err := s.auctions.GetByID(ctx, s.pool, id, false)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return nil, err
		}
		return nil, domain.StoreFailure("load auction", err)
	}
	return a, nil
}

// LoadState reads the auction and its rows in one repeatable-read snapshot.
func (s *Store) LoadState(ctx context.Context, id uuid.UUID) (*domain.AuctionState, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, domain.StoreFailure("begin read", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	state, err := s.loadState(ctx, tx, id, false)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return nil, err
		}
		return nil, domain.StoreFailure("load state", err)
	}
	return state, nil
}

func (s *Store) loadState(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*domain.AuctionState, error) {
	a, err := s.auctions.GetByID(ctx, q, id, forUpdate)
	if err != nil {
		return nil, err
	}
	bids, err := s.bids.GetBidsByAuctionID(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("load bids: %w", err)
	}
	autoBids, err := s.bids.GetAutoBidsByAuctionID(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("load auto-bids: %w", err)
	}
	watches, err := s.bids.GetWatchesByAuctionID(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("load watches: %w", err)
	}
	return domain.NewAuctionState(a, bids, autoBids, watches), nil
}

// Commit runs fn against the locked auction and applies its change set in the
// same transaction. A version mismatch on write-back is reported as
// domain.ErrConflict; errors returned by fn are passed through untouched.
func (s *Store) Commit(ctx context.Context, id uuid.UUID, fn domain.MutationFunc) (state *domain.AuctionState, err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Error("Store: failed to begin transaction", zap.String("auctionID", id.String()), zap.Error(err))
		return nil, domain.StoreFailure("begin transaction", err)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Store: recovered from panic during transaction",
				zap.String("auctionID", id.String()),
				zap.Any("panic", r),
			)
			_ = tx.Rollback(ctx)
			panic(r)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error("Store: failed to commit transaction",
				zap.String("auctionID", id.String()),
				zap.Error(commitErr),
			)
			state = nil
			err = domain.StoreFailure("commit transaction", commitErr)
		}
	}()

	state, err = s.loadState(ctx, tx, id, true)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return nil, err
		}
		return nil, domain.StoreFailure("lock auction", err)
	}

	base := state.Auction.Version
	if err = fn(state); err != nil {
		return nil, err
	}

	if err = s.apply(ctx, tx, state.Changes()); err != nil {
		log.Error("Store: failed to apply changes",
			zap.String("auctionID", id.String()),
			zap.Error(err),
		)
		return nil, domain.StoreFailure("apply changes", err)
	}

	if err = s.auctions.Update(ctx, tx, state.Auction, base); err != nil {
		if errors.Is(err, errStaleVersion) {
			log.Warn("Store: auction version changed under lock",
				zap.String("auctionID", id.String()),
				zap.Int64("version", base),
			)
			return nil, domain.ErrConflict
		}
		return nil, domain.StoreFailure("update auction", err)
	}
	return state, nil
}

// apply writes the change set. Rows losing the winning flag are written
// before any row gaining it so the one-winner index never sees two.
func (s *Store) apply(ctx context.Context, tx pgx.Tx, c domain.Changes) error {
	if c.Empty() {
		return nil
	}
	for _, b := range c.UpdatedBids {
		if !b.IsWinning {
			if err := s.bids.Update(ctx, tx, b); err != nil {
				return fmt.Errorf("update bid %s: %w", b.ID, err)
			}
		}
	}
	for _, b := range c.NewBids {
		if err := s.bids.Save(ctx, tx, b); err != nil {
			return fmt.Errorf("insert bid %s: %w", b.ID, err)
		}
	}
	for _, b := range c.UpdatedBids {
		if b.IsWinning {
			if err := s.bids.Update(ctx, tx, b); err != nil {
				return fmt.Errorf("update bid %s: %w", b.ID, err)
			}
		}
	}
	// deactivations first, same reason as above for the active index
	for _, ab := range c.AutoBids {
		if !ab.IsActive {
			if err := s.bids.SaveAutoBid(ctx, tx, ab); err != nil {
				return fmt.Errorf("save auto-bid %s: %w", ab.ID, err)
			}
		}
	}
	for _, ab := range c.AutoBids {
		if ab.IsActive {
			if err := s.bids.SaveAutoBid(ctx, tx, ab); err != nil {
				return fmt.Errorf("save auto-bid %s: %w", ab.ID, err)
			}
		}
	}
	for _, w := range c.RemovedWatches {
		if err := s.bids.DeleteWatch(ctx, tx, w); err != nil {
			return fmt.Errorf("delete watch: %w", err)
		}
	}
	for _, w := range c.NewWatches {
		if err := s.bids.SaveWatch(ctx, tx, w); err != nil {
			return fmt.Errorf("insert watch: %w", err)
		}
	}
	return nil
}

func (s *Store) ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	ids, err := s.auctions.ListDue(ctx, s.pool, now)
	if err != nil {
		return nil, domain.StoreFailure("list due auctions", err)
	}
	return ids, nil
}
