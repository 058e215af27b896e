package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// errStaleVersion means the row changed since it was read.
var errStaleVersion = errors.New("auction version changed")

// AuctionRepository persists the auctions table.
type AuctionRepository struct{}

const auctionColumns = `id, seller_id, title, description, auction_type, bid_visibility,
        start_price, current_price, min_price, instant_price, bid_increment,
        price_drop_amount, price_drop_interval_seconds, next_price_drop_at,
        started_at, ends_at, status, winner_id, winning_bid_id, final_price, sold_at,
        bid_count, watch_count, version, created_at, updated_at`

// Insert writes a new auction row.
func (r *AuctionRepository) Insert(ctx context.Context, q querier, a *domain.Auction) error {
	query := `
        INSERT INTO auctions (` + auctionColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
                $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
    `
	_, err := q.Exec(ctx, query,
		a.ID,
		a.SellerID,
		a.Title,
		a.Description,
		string(a.Type),
		string(a.Visibility),
		a.StartPrice,
		a.CurrentPrice,
		a.MinPrice,
		a.InstantPrice,
		a.BidIncrement,
		a.PriceDropAmount,
		int64(a.PriceDropInterval/time.Second),
		a.NextPriceDropAt,
		a.StartedAt,
		a.EndsAt,
		string(a.Status),
		a.WinnerID,
		a.WinningBidID,
		a.FinalPrice,
		a.SoldAt,
		a.BidCount,
		a.WatchCount,
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

// GetByID loads one auction. With forUpdate the row stays locked until q's
// transaction ends.
func (r *AuctionRepository) GetByID(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	a, err := scanAuction(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return a, nil
}

// Update writes a back only if the stored version still equals
// expectedVersion, bumping it by one.
func (r *AuctionRepository) Update(ctx context.Context, q querier, a *domain.Auction, expectedVersion int64) error {
	query := `
        UPDATE auctions SET
            current_price = $3,
            next_price_drop_at = $4,
            status = $5,
            winner_id = $6,
            winning_bid_id = $7,
            final_price = $8,
            sold_at = $9,
            bid_count = $10,
            watch_count = $11,
            version = version + 1,
            updated_at = $12
        WHERE id = $1 AND version = $2
    `
	tag, err := q.Exec(ctx, query,
		a.ID,
		expectedVersion,
		a.CurrentPrice,
		a.NextPriceDropAt,
		string(a.Status),
		a.WinnerID,
		a.WinningBidID,
		a.FinalPrice,
		a.SoldAt,
		a.BidCount,
		a.WatchCount,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return errStaleVersion
	}
	a.Version = expectedVersion + 1
	return nil
}

// ListDue returns ids of active auctions past their end time or next price drop.
func (r *AuctionRepository) ListDue(ctx context.Context, q querier, now time.Time) ([]uuid.UUID, error) {
	query := `
        SELECT id
        FROM auctions
        WHERE status = $1 AND (ends_at <= $2 OR next_price_drop_at <= $2)
        ORDER BY ends_at ASC
    `
	rows, err := q.Query(ctx, query, string(domain.StatusActive), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	a := &domain.Auction{}
	var (
		auctionType, visibility, status string
		intervalSeconds                 int64
	)
	err := row.Scan(
		&a.ID,
		&a.SellerID,
		&a.Title,
		&a.Description,
		&auctionType,
		&visibility,
		&a.StartPrice,
		&a.CurrentPrice,
		&a.MinPrice,
		&a.InstantPrice,
		&a.BidIncrement,
		&a.PriceDropAmount,
		&intervalSeconds,
		&a.NextPriceDropAt,
		&a.StartedAt,
		&a.EndsAt,
		&status,
		&a.WinnerID,
		&a.WinningBidID,
		&a.FinalPrice,
		&a.SoldAt,
		&a.BidCount,
		&a.WatchCount,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Type = domain.AuctionType(auctionType)
	a.Visibility = domain.BidVisibility(visibility)
	a.Status = domain.AuctionStatus(status)
	a.PriceDropInterval = time.Duration(intervalSeconds) * time.Second
	return a, nil
}
