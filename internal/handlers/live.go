package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itsDrac/gemstone-auction/internal/events"
	"github.com/itsDrac/gemstone-auction/internal/model"
	"github.com/itsDrac/gemstone-auction/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// storefront pages are served from other origins
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveHandler streams auction events to storefront pages over a websocket.
type LiveHandler struct {
	auctions service.AuctionServicer
	sub      events.Subscriber
}

func NewLiveHandler(auctions service.AuctionServicer, sub events.Subscriber) (*LiveHandler, error) {
	return &LiveHandler{auctions: auctions, sub: sub}, nil
}

type snapshot struct {
	Type    string            `json:"type"`
	Auction model.AuctionView `json:"auction"`
}

// Stream godoc
//
//	@Summary		Live auction feed
//	@Description	Websocket. The first message is a snapshot of the auction, then one message per event.
//	@Tags			Auctions
//	@Param			auctionId	path	string	true	"Auction ID"
//	@Router			/auctions/{auctionId}/live [get]
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.sub == nil {
		RespondErrorJSON(w, r, http.StatusServiceUnavailable, ErrLiveUnavailable.Error(), "Live feed is not configured", nil)
		return
	}
	id, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}

	a, err := h.auctions.GetAuction(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get auction")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := h.sub.Subscribe(ctx, id)
	if err != nil {
		slog.Error("[Live] subscribe failed -> ", "auction_id", id, "error", err)
		RespondErrorJSON(w, r, http.StatusServiceUnavailable, ErrLiveUnavailable.Error(), "Live feed is unavailable", nil)
		return
	}
	defer feed.Close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[Live] upgrade failed", "auction_id", id, "error", err)
		return
	}
	defer conn.Close()

	first, err := json.Marshal(snapshot{Type: "snapshot", Auction: model.NewAuctionView(a, h.auctions.ImageURLs(r.Context(), a))})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, first); err != nil {
		return
	}

	go readPump(conn, cancel)
	writePump(ctx, conn, feed)
}

// readPump discards client messages and cancels ctx once the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("[Live] read failed", "error", err)
			}
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, feed events.Feed) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg, ok := <-feed.Messages():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
