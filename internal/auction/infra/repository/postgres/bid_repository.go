package postgres

import (
	"context"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
)

// BidRepository persists bids, auto-bid instructions and watches, the rows an
// auction owns.
type BidRepository struct{}

// Save inserts a new bid row.
func (r *BidRepository) Save(ctx context.Context, q querier, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, auction_id, bidder_id, bid_amount, max_bid_amount, is_auto_bid, is_winning, is_cancelled, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := q.Exec(ctx, query,
		bid.ID,
		bid.AuctionID,
		bid.BidderID,
		bid.BidAmount,
		bid.MaxBidAmount,
		bid.IsAutoBid,
		bid.IsWinning,
		bid.IsCancelled,
		bid.CreatedAt,
	)
	return err
}

// Update writes the mutable columns of an existing bid row.
func (r *BidRepository) Update(ctx context.Context, q querier, bid *domain.Bid) error {
	query := `
        UPDATE bids SET bid_amount = $2, is_winning = $3, is_cancelled = $4
        WHERE id = $1
    `
	_, err := q.Exec(ctx, query, bid.ID, bid.BidAmount, bid.IsWinning, bid.IsCancelled)
	return err
}

func (r *BidRepository) GetBidsByAuctionID(ctx context.Context, q querier, auctionID uuid.UUID) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, bid_amount, max_bid_amount, is_auto_bid, is_winning, is_cancelled, created_at
        FROM bids
        WHERE auction_id = $1
        ORDER BY created_at ASC
    `
	rows, err := q.Query(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid := &domain.Bid{}
		err := rows.Scan(
			&bid.ID,
			&bid.AuctionID,
			&bid.BidderID,
			&bid.BidAmount,
			&bid.MaxBidAmount,
			&bid.IsAutoBid,
			&bid.IsWinning,
			&bid.IsCancelled,
			&bid.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

// SaveAutoBid inserts or updates an auto-bid instruction.
func (r *BidRepository) SaveAutoBid(ctx context.Context, q querier, ab *domain.AutoBid) error {
	query := `
        INSERT INTO auto_bids (id, auction_id, user_id, max_amount, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE
        SET
            max_amount = EXCLUDED.max_amount,
            is_active = EXCLUDED.is_active,
            updated_at = EXCLUDED.updated_at
    `
	_, err := q.Exec(ctx, query, ab.ID, ab.AuctionID, ab.UserID, ab.MaxAmount, ab.IsActive, ab.CreatedAt, ab.UpdatedAt)
	return err
}

func (r *BidRepository) GetAutoBidsByAuctionID(ctx context.Context, q querier, auctionID uuid.UUID) ([]*domain.AutoBid, error) {
	query := `
        SELECT id, auction_id, user_id, max_amount, is_active, created_at, updated_at
        FROM auto_bids
        WHERE auction_id = $1
        ORDER BY created_at ASC
    `
	rows, err := q.Query(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AutoBid
	for rows.Next() {
		ab := &domain.AutoBid{}
		if err := rows.Scan(&ab.ID, &ab.AuctionID, &ab.UserID, &ab.MaxAmount, &ab.IsActive, &ab.CreatedAt, &ab.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ab)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BidRepository) SaveWatch(ctx context.Context, q querier, w *domain.Watch) error {
	query := `
        INSERT INTO watches (id, auction_id, user_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (auction_id, user_id) DO NOTHING
    `
	_, err := q.Exec(ctx, query, w.ID, w.AuctionID, w.UserID, w.CreatedAt)
	return err
}

func (r *BidRepository) DeleteWatch(ctx context.Context, q querier, w *domain.Watch) error {
	_, err := q.Exec(ctx, `DELETE FROM watches WHERE auction_id = $1 AND user_id = $2`, w.AuctionID, w.UserID)
	return err
}

func (r *BidRepository) GetWatchesByAuctionID(ctx context.Context, q querier, auctionID uuid.UUID) ([]*domain.Watch, error) {
	query := `
        SELECT id, auction_id, user_id, created_at
        FROM watches
        WHERE auction_id = $1
        ORDER BY created_at ASC
    `
	rows, err := q.Query(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Watch
	for rows.Next() {
		w := &domain.Watch{}
		if err := rows.Scan(&w.ID, &w.AuctionID, &w.UserID, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
