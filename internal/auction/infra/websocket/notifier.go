package websocket

import (
	"context"
	"encoding/json"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/money"
	"github.com/cristianortiz/biddingengine/internal/shared/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier implements domain.Notifier by broadcasting to the auction's
// websocket room. Private auctions only reveal price and leader to the leader.
type Notifier struct {
	hub *websocket.Hub
}

func NewNotifier(hub *websocket.Hub) *Notifier {
	return &Notifier{hub: hub}
}

var _ domain.Notifier = (*Notifier)(nil)

func (n *Notifier) LeaderChanged(_ context.Context, ev domain.LeaderEvent) {
	full := leaderMessage(ev, true)
	if ev.Visibility != domain.VisibilityPrivate {
		n.send(ev.AuctionID, full)
		return
	}
	fullData, err := json.Marshal(full)
	if err != nil {
		log.Error("failed to marshal leader update", zap.Error(err))
		return
	}
	redacted, err := json.Marshal(leaderMessage(ev, false))
	if err != nil {
		log.Error("failed to marshal leader update", zap.Error(err))
		return
	}
	n.hub.BroadcastFunc(ev.AuctionID.String(), func(c *websocket.Client) []byte {
		if c.UserID != uuid.Nil && c.UserID == ev.LeaderID {
			return fullData
		}
		return redacted
	})
}

func leaderMessage(ev domain.LeaderEvent, reveal bool) ServerLeaderUpdateMessage {
	msg := ServerLeaderUpdateMessage{BaseMessage: BaseMessage{Type: MessageTypeServerLeaderUpdate}}
	msg.Payload.AuctionID = ev.AuctionID
	msg.Payload.BidCount = ev.BidCount
	msg.Payload.WatchCount = ev.WatchCount
	msg.Payload.At = ev.At
	if reveal {
		leader := ev.LeaderID
		price := money.Amount(ev.CurrentPrice)
		msg.Payload.LeaderID = &leader
		msg.Payload.CurrentPrice = &price
	}
	return msg
}

func (n *Notifier) PriceDropped(_ context.Context, ev domain.PriceEvent) {
	msg := ServerPriceUpdateMessage{BaseMessage: BaseMessage{Type: MessageTypeServerPriceUpdate}}
	msg.Payload.AuctionID = ev.AuctionID
	msg.Payload.CurrentPrice = money.Amount(ev.CurrentPrice)
	msg.Payload.NextPriceDropAt = ev.NextPriceDropAt
	msg.Payload.At = ev.At
	n.send(ev.AuctionID, msg)
}

func (n *Notifier) AuctionEnded(_ context.Context, ev domain.EndEvent) {
	msg := ServerAuctionEndedMessage{BaseMessage: BaseMessage{Type: MessageTypeServerAuctionEnded}}
	msg.Payload.AuctionID = ev.AuctionID
	msg.Payload.Status = string(ev.Status)
	msg.Payload.WinnerID = ev.WinnerID
	if ev.FinalPrice != nil {
		price := money.Amount(*ev.FinalPrice)
		msg.Payload.FinalPrice = &price
	}
	msg.Payload.At = ev.At
	n.send(ev.AuctionID, msg)
}

func (n *Notifier) WatchCountChanged(_ context.Context, ev domain.WatchEvent) {
	msg := ServerWatchUpdateMessage{BaseMessage: BaseMessage{Type: MessageTypeServerWatchUpdate}}
	msg.Payload.AuctionID = ev.AuctionID
	msg.Payload.WatchCount = ev.WatchCount
	n.send(ev.AuctionID, msg)
}

func (n *Notifier) send(auctionID uuid.UUID, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal notification", zap.String("auctionID", auctionID.String()), zap.Error(err))
		return
	}
	n.hub.Broadcast(auctionID.String(), data)
}
