package websocket

import (
	"context"
	"encoding/json"

	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/cristianortiz/biddingengine/internal/shared/money"
	"github.com/cristianortiz/biddingengine/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler handles the inbound websocket messages of the auction module.
type AuctionWSHandler struct {
	auctionService application.AuctionService
	hub            *websocket.Hub
}

func NewAuctionWSHandler(auctionService application.AuctionService, hub *websocket.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
	}
}

// Register mounts GET /ws/auctions/:id. The optional user_id query parameter
// identifies the viewer so private-auction updates can be tailored.
func (h *AuctionWSHandler) Register(ctx context.Context, app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/auctions/:id", func(c *fiber.Ctx) error {
		if _, err := uuid.Parse(c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid auction id")
		}
		return c.Next()
	}, fiberws.New(func(conn *fiberws.Conn) {
		auctionID := conn.Params("id")
		userID, _ := uuid.Parse(conn.Query("user_id"))

		client := h.hub.NewClient(conn, auctionID, userID)
		h.hub.RegisterClient(client)
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}))
}

// ListenForMessages consumes the hub's inbound channel until ctx is cancelled.
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler started listening for inbound messages from hub")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped listening for inbound messages from hub")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

// processMessage dispatches the message by type.
func (h *AuctionWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, "invalid message format")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid, MessageTypeClientAutoBid, MessageTypeClientAccept:
		h.handleBidMessage(ctx, client, baseMsg.Type, data)
	default:
		h.sendErrorToClient(client, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleBidMessage(ctx context.Context, client *websocket.Client, kind MessageType, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendErrorToClient(client, "invalid bid message format")
		return
	}
	p := bidMsg.Payload
	if p.AuctionID.String() != client.AuctionID {
		h.sendErrorToClient(client, "auction ID mismatch")
		return
	}
	// an identified connection may only bid as itself
	if client.UserID != uuid.Nil && p.UserID != client.UserID {
		h.sendErrorToClient(client, "user ID mismatch")
		return
	}

	var (
		result *application.BidResult
		err    error
	)
	switch kind {
	case MessageTypeClientBid:
		result, err = h.auctionService.PlaceBid(ctx, p.AuctionID, p.UserID, int64(p.Amount))
	case MessageTypeClientAutoBid:
		result, err = h.auctionService.PlaceAutoBid(ctx, p.AuctionID, p.UserID, int64(p.Amount))
	case MessageTypeClientAccept:
		result, err = h.auctionService.AcceptCurrentPrice(ctx, p.AuctionID, p.UserID, int64(p.Amount))
	}
	if err != nil {
		log.Debug("websocket bid rejected",
			zap.String("clientID", client.ID),
			zap.String("auctionID", client.AuctionID),
			zap.Error(err),
		)
	}
	if result == nil {
		h.sendErrorToClient(client, "bid could not be processed")
		return
	}
	h.reply(client, bidResultMessage(result))
}

func bidResultMessage(r *application.BidResult) ServerBidResultMessage {
	msg := ServerBidResultMessage{BaseMessage: BaseMessage{Type: MessageTypeServerBidResult}}
	msg.Payload.Success = r.Success
	msg.Payload.InstantWin = r.InstantWin
	msg.Payload.NewCurrentPrice = money.Amount(r.NewCurrentPrice)
	msg.Payload.Error = r.Error
	if r.Success {
		id := r.BidID
		msg.Payload.BidID = &id
	}
	return msg
}

// sendErrorToClient serializes and sends an error msg to a specific client
func (h *AuctionWSHandler) sendErrorToClient(client *websocket.Client, errorMessage string) {
	errMsg := ServerErrorMessage{BaseMessage: BaseMessage{Type: MessageTypeServerError}}
	errMsg.Payload.Error = errorMessage
	h.reply(client, errMsg)
}

func (h *AuctionWSHandler) reply(client *websocket.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal websocket reply", zap.Error(err))
		return
	}
	client.Reply(data)
}
