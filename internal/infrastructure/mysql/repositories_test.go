package mysql

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"art-market/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ domain.ArtworkStore = (*MySQLArtworkRepository)(nil)
	_ domain.MessageStore = (*MySQLMessageRepository)(nil)
)

// stubRow feeds scanArtwork one row of column values in SELECT order.
type stubRow struct {
	values []interface{}
}

func (r stubRow) Scan(dest ...interface{}) error {
	if len(dest) != len(r.values) {
		return fmt.Errorf("expected %d columns, got %d", len(r.values), len(dest))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *float64:
			*d = v.(float64)
		case *int:
			*d = v.(int)
		case *bool:
			*d = v.(bool)
		case *time.Time:
			*d = v.(time.Time)
		case *sql.NullFloat64:
			*d = v.(sql.NullFloat64)
		case *sql.NullString:
			*d = v.(sql.NullString)
		case *sql.NullTime:
			*d = v.(sql.NullTime)
		default:
			return fmt.Errorf("unsupported destination %T", d)
		}
	}
	return nil
}

func TestScanArtwork_FreshAuctionHasNoBidState(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	row := stubRow{values: []interface{}{
		"art_1", "Dusk", "artist_1", "auction",
		0.0, 100.0,
		sql.NullFloat64{}, sql.NullString{},
		0, sql.NullTime{Valid: true, Time: created.Add(time.Hour)}, false,
		created, created,
	}}

	artwork, err := scanArtwork(row)
	require.NoError(t, err)

	assert.Equal(t, "art_1", artwork.ID)
	assert.Equal(t, domain.SaleAuction, artwork.SaleType)
	assert.Nil(t, artwork.CurrentBid)
	assert.Nil(t, artwork.HighestBidderID)
	require.NotNil(t, artwork.AuctionEndTime)
	assert.False(t, artwork.Settled)
	assert.Equal(t, 100.0, artwork.HighestPrice())
}

func TestScanArtwork_ActiveBidStateRoundTrips(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	row := stubRow{values: []interface{}{
		"art_2", "Dawn", "artist_1", "auction",
		0.0, 100.0,
		sql.NullFloat64{Valid: true, Float64: 250}, sql.NullString{Valid: true, String: "u7"},
		4, sql.NullTime{Valid: true, Time: created.Add(time.Hour)}, false,
		created, created,
	}}

	artwork, err := scanArtwork(row)
	require.NoError(t, err)

	require.NotNil(t, artwork.CurrentBid)
	assert.Equal(t, 250.0, *artwork.CurrentBid)
	require.NotNil(t, artwork.HighestBidderID)
	assert.Equal(t, "u7", *artwork.HighestBidderID)
	assert.Equal(t, 4, artwork.BidCount)
	assert.Equal(t, 250.0, artwork.HighestPrice())
}

func TestScanArtwork_FixedPriceHasNoAuctionFields(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	row := stubRow{values: []interface{}{
		"art_3", "Noon", "artist_2", "fixed",
		500.0, 0.0,
		sql.NullFloat64{}, sql.NullString{},
		0, sql.NullTime{}, false,
		created, created,
	}}

	artwork, err := scanArtwork(row)
	require.NoError(t, err)

	assert.Equal(t, domain.SaleFixed, artwork.SaleType)
	assert.Nil(t, artwork.AuctionEndTime)
	assert.Equal(t, 500.0, artwork.Price)
}
