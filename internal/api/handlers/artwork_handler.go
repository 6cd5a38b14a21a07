package handlers

import (
	"net/http"
	"time"

	"art-market/internal/domain"
	"art-market/internal/services"
	"art-market/pkg/logger"
	"art-market/pkg/utils"

	"github.com/labstack/echo/v4"
)

type ArtworkHandler struct {
	artworks domain.ArtworkStore
	chat     *services.ChatDelivery
	presence domain.PresenceCache
	log      logger.Logger
}

type CreateArtworkRequest struct {
	Title          string     `json:"title"`
	ArtistID       string     `json:"artist_id"`
	SaleType       string     `json:"sale_type"`
	Price          float64    `json:"price"`
	StartingBid    float64    `json:"starting_bid"`
	AuctionEndTime *time.Time `json:"auction_end_time"`
}

type ArtworkResponse struct {
	ArtworkID       string     `json:"artwork_id"`
	Title           string     `json:"title"`
	ArtistID        string     `json:"artist_id"`
	SaleType        string     `json:"sale_type"`
	Price           float64    `json:"price"`
	StartingBid     float64    `json:"starting_bid"`
	CurrentBid      *float64   `json:"current_bid,omitempty"`
	HighestBidderID *string    `json:"highest_bidder_id,omitempty"`
	BidCount        int        `json:"bid_count"`
	AuctionEndTime  *time.Time `json:"auction_end_time,omitempty"`
	Settled         bool       `json:"settled"`
}

func NewArtworkHandler(artworks domain.ArtworkStore, chat *services.ChatDelivery,
	presence domain.PresenceCache, log logger.Logger) *ArtworkHandler {
	return &ArtworkHandler{
		artworks: artworks,
		chat:     chat,
		presence: presence,
		log:      log,
	}
}

func (h *ArtworkHandler) CreateArtwork(c echo.Context) error {
	var req CreateArtworkRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	// Validation
	if req.Title == "" || req.ArtistID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Title and artist_id are required"})
	}

	saleType := domain.SaleType(req.SaleType)
	switch saleType {
	case domain.SaleFixed, domain.SaleNegotiable:
		if req.Price <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Price must be positive"})
		}
	case domain.SaleAuction:
		if req.StartingBid <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Starting bid must be positive"})
		}
		if req.AuctionEndTime == nil || req.AuctionEndTime.Before(time.Now()) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Auction end time must be in the future"})
		}
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown sale type"})
	}

	now := time.Now()
	artwork := &domain.Artwork{
		ID:             utils.GenerateID("art"),
		Title:          req.Title,
		ArtistID:       req.ArtistID,
		SaleType:       saleType,
		Price:          req.Price,
		StartingBid:    req.StartingBid,
		AuctionEndTime: req.AuctionEndTime,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.artworks.Create(c.Request().Context(), artwork); err != nil {
		h.log.Error("Failed to create artwork", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create artwork"})
	}

	h.log.Info("Artwork created", "artwork_id", artwork.ID, "sale_type", artwork.SaleType)
	return c.JSON(http.StatusCreated, toResponse(artwork))
}

func (h *ArtworkHandler) GetArtwork(c echo.Context) error {
	artworkID := c.Param("id")

	artwork, err := h.artworks.FindByID(c.Request().Context(), artworkID)
	if err != nil {
		h.log.Error("Failed to find artwork", "error", err, "artwork_id", artworkID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load artwork"})
	}
	if artwork == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Artwork not found"})
	}

	return c.JSON(http.StatusOK, toResponse(artwork))
}

// GetUserOnline answers from the local registry first; a miss falls back
// to the shared presence keys, which cover users connected to another
// instance. Delivery decisions stay local, this endpoint is informational.
func (h *ArtworkHandler) GetUserOnline(c echo.Context) error {
	userID := c.Param("id")

	online := h.chat.IsOnline(userID)
	if !online {
		cached, err := h.presence.IsOnline(c.Request().Context(), userID)
		if err != nil {
			h.log.Error("Failed to read presence", "error", err, "user_id", userID)
		} else {
			online = cached
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"online":  online,
	})
}

func toResponse(artwork *domain.Artwork) ArtworkResponse {
	return ArtworkResponse{
		ArtworkID:       artwork.ID,
		Title:           artwork.Title,
		ArtistID:        artwork.ArtistID,
		SaleType:        string(artwork.SaleType),
		Price:           artwork.Price,
		StartingBid:     artwork.StartingBid,
		CurrentBid:      artwork.CurrentBid,
		HighestBidderID: artwork.HighestBidderID,
		BidCount:        artwork.BidCount,
		AuctionEndTime:  artwork.AuctionEndTime,
		Settled:         artwork.Settled,
	}
}
