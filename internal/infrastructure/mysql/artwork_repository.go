package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"art-market/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLArtworkRepository struct {
	db *sql.DB
}

func NewMySQLArtworkRepository(db *sql.DB) *MySQLArtworkRepository {
	return &MySQLArtworkRepository{db: db}
}

func (r *MySQLArtworkRepository) Create(ctx context.Context, artwork *domain.Artwork) error {
	query := `
        INSERT INTO artworks (id, title, artist_id, sale_type, price, starting_bid,
            current_bid, highest_bidder_id, bid_count, auction_end_time, settled,
            created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		artwork.ID, artwork.Title, artwork.ArtistID, string(artwork.SaleType),
		artwork.Price, artwork.StartingBid, artwork.CurrentBid, artwork.HighestBidderID,
		artwork.BidCount, artwork.AuctionEndTime, artwork.Settled,
		artwork.CreatedAt, artwork.UpdatedAt)
	return err
}

func (r *MySQLArtworkRepository) FindByID(ctx context.Context, artworkID string) (*domain.Artwork, error) {
	query := `
        SELECT id, title, artist_id, sale_type, price, starting_bid,
            current_bid, highest_bidder_id, bid_count, auction_end_time, settled,
            created_at, updated_at
        FROM artworks WHERE id = ?
    `

	artwork, err := scanArtwork(r.db.QueryRowContext(ctx, query, artworkID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return artwork, err
}

// CommitBid is the write half of the arbitrator's read-validate-write cycle.
// The WHERE clause re-checks the current bid observed during validation
// (NULL-safe, since the first bid sees none), so a commit computed from a
// stale read matches zero rows instead of overwriting a newer bid.
func (r *MySQLArtworkRepository) CommitBid(ctx context.Context, prevBid *float64, bid domain.Bid) (bool, error) {
	query := `
        UPDATE artworks
        SET current_bid = ?, highest_bidder_id = ?, bid_count = bid_count + 1, updated_at = ?
        WHERE id = ? AND sale_type = ? AND settled = 0 AND current_bid <=> ?
    `
	result, err := r.db.ExecContext(ctx, query,
		bid.Amount, bid.BidderID, bid.SubmittedAt,
		bid.ArtworkID, string(domain.SaleAuction), prevBid)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *MySQLArtworkRepository) MarkSettled(ctx context.Context, artworkID string) (bool, error) {
	query := `UPDATE artworks SET settled = 1, updated_at = ? WHERE id = ? AND settled = 0`

	result, err := r.db.ExecContext(ctx, query, time.Now(), artworkID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *MySQLArtworkRepository) ListUnsettledEnded(ctx context.Context, before time.Time) ([]*domain.Artwork, error) {
	query := `
        SELECT id, title, artist_id, sale_type, price, starting_bid,
            current_bid, highest_bidder_id, bid_count, auction_end_time, settled,
            created_at, updated_at
        FROM artworks
        WHERE sale_type = ? AND settled = 0 AND auction_end_time IS NOT NULL AND auction_end_time <= ?
    `

	rows, err := r.db.QueryContext(ctx, query, string(domain.SaleAuction), before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artworks []*domain.Artwork
	for rows.Next() {
		artwork, err := scanArtwork(rows)
		if err != nil {
			return nil, err
		}
		artworks = append(artworks, artwork)
	}

	return artworks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArtwork(row rowScanner) (*domain.Artwork, error) {
	var artwork domain.Artwork
	var saleType string
	var currentBid sql.NullFloat64
	var highestBidder sql.NullString
	var endTime sql.NullTime

	err := row.Scan(
		&artwork.ID, &artwork.Title, &artwork.ArtistID, &saleType,
		&artwork.Price, &artwork.StartingBid, &currentBid, &highestBidder,
		&artwork.BidCount, &endTime, &artwork.Settled,
		&artwork.CreatedAt, &artwork.UpdatedAt)
	if err != nil {
		return nil, err
	}

	artwork.SaleType = domain.SaleType(saleType)
	if currentBid.Valid {
		artwork.CurrentBid = &currentBid.Float64
	}
	if highestBidder.Valid {
		artwork.HighestBidderID = &highestBidder.String
	}
	if endTime.Valid {
		artwork.AuctionEndTime = &endTime.Time
	}
	return &artwork, nil
}
