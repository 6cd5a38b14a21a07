package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"art-market/internal/domain"
	"art-market/internal/protocol"
	"art-market/internal/services"
	"art-market/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// AuctionHandler serves /auction/{artworkID}: admits the connection to the
// artwork's room, makes sure its countdown timer runs, and dispatches
// inbound envelopes to the bid arbitrator.
type AuctionHandler struct {
	arbitrator *services.BidArbitrator
	timer      *services.AuctionTimer
	artworks   domain.ArtworkStore
	rooms      domain.Registry
	writeWait  time.Duration
	readLimit  int64
	log        logger.Logger
}

func NewAuctionHandler(arbitrator *services.BidArbitrator, timer *services.AuctionTimer,
	artworks domain.ArtworkStore, rooms domain.Registry,
	writeWait time.Duration, readLimit int64, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		arbitrator: arbitrator,
		timer:      timer,
		artworks:   artworks,
		rooms:      rooms,
		writeWait:  writeWait,
		readLimit:  readLimit,
		log:        log,
	}
}

func (h *AuctionHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	artworkID := vars["artworkID"]

	artwork, err := h.artworks.FindByID(r.Context(), artworkID)
	if err != nil {
		h.log.Error("Failed to find artwork", "error", err, "artwork_id", artworkID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if artwork == nil {
		http.Error(w, "artwork not found", http.StatusNotFound)
		return
	}
	if artwork.SaleType != domain.SaleAuction {
		http.Error(w, "artwork is not up for auction", http.StatusForbidden)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}
	conn.SetReadLimit(h.readLimit)

	wsConn := NewConnection(conn, userID, artworkID, h.writeWait)
	h.rooms.Admit(artworkID, wsConn)
	h.timer.Start(artworkID)

	h.sendStatus(wsConn, artworkID)

	go h.readLoop(wsConn, artworkID)
}

func (h *AuctionHandler) readLoop(conn *Connection, artworkID string) {
	defer func() {
		if remaining := h.rooms.Evict(artworkID, conn); remaining == 0 {
			// Empty room: let the ticking stop; the next admission
			// restarts it, and the sweeper covers an unwatched end.
			h.timer.Stop(artworkID)
		}
		conn.Close()
	}()

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Error("Failed to read message", "error", err, "conn_id", conn.ID())
			}
			break
		}

		inbound, err := protocol.Decode(data)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownType) {
				h.log.Warn("Dropping unknown message type", "conn_id", conn.ID(), "error", err)
				continue
			}
			conn.Send(protocol.NewError(err.Error()))
			continue
		}

		switch inbound.Type {
		case protocol.TypePlaceBid:
			h.handlePlaceBid(conn, artworkID, inbound.PlaceBid)
		case protocol.TypeGetStatus:
			h.sendStatus(conn, artworkID)
		default:
			// Chat kinds have no meaning on an auction connection.
			h.log.Warn("Dropping message type for this endpoint", "type", inbound.Type, "conn_id", conn.ID())
		}
	}
}

func (h *AuctionHandler) handlePlaceBid(conn *Connection, artworkID string, bid *protocol.PlaceBid) {
	outcome, err := h.arbitrator.PlaceBid(context.Background(), artworkID, bid.BidderID, bid.BidAmount)
	if err != nil {
		h.log.Error("Failed to place bid", "error", err, "artwork_id", artworkID)
		conn.Send(protocol.NewError("failed to place bid"))
		return
	}

	if !outcome.Accepted {
		conn.Send(protocol.NewError(string(outcome.Reason)))
	}
	// Acceptance is announced by the arbitrator's room broadcast.
}

func (h *AuctionHandler) sendStatus(conn *Connection, artworkID string) {
	artwork, err := h.artworks.FindByID(context.Background(), artworkID)
	if err != nil || artwork == nil {
		h.log.Error("Failed to load auction status", "error", err, "artwork_id", artworkID)
		conn.Send(protocol.NewError("failed to load auction status"))
		return
	}

	highestBidder := ""
	if artwork.HighestBidderID != nil {
		highestBidder = *artwork.HighestBidderID
	}
	conn.Send(protocol.NewAuctionStatus(
		artworkID, artwork.HighestPrice(), highestBidder,
		artwork.BidCount, artwork.AuctionTimeRemaining(time.Now())))
}
