package websocket

import (
	"time"

	"github.com/cristianortiz/biddingengine/internal/shared/money"
	"github.com/google/uuid"
)

// MessageType defines ws type message
type MessageType string

const (
	MessageTypeClientBid     MessageType = "client_bid"      // client places a bid
	MessageTypeClientAutoBid MessageType = "client_auto_bid" // client registers a proxy ceiling
	MessageTypeClientAccept  MessageType = "client_accept"   // client accepts a descending price

	MessageTypeServerLeaderUpdate MessageType = "server_leader_update"
	MessageTypeServerPriceUpdate  MessageType = "server_price_update"
	MessageTypeServerAuctionEnded MessageType = "server_auction_ended"
	MessageTypeServerWatchUpdate  MessageType = "server_watch_update"
	MessageTypeServerBidResult    MessageType = "server_bid_result"
	MessageTypeServerError        MessageType = "server_error"
)

// BaseMessage is embedded by every message; Type selects the payload.
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is sent for client_bid, client_auto_bid and client_accept.
// Amount is the bid, the proxy ceiling or the accepted price respectively.
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		AuctionID uuid.UUID    `json:"auction_id"`
		UserID    uuid.UUID    `json:"user_id"`
		Amount    money.Amount `json:"amount"`
	} `json:"payload"`
}

type ServerLeaderUpdateMessage struct {
	BaseMessage
	Payload struct {
		AuctionID uuid.UUID `json:"auction_id"`
		// omitted for viewers of a private auction who are not leading
		LeaderID     *uuid.UUID    `json:"leader_id,omitempty"`
		CurrentPrice *money.Amount `json:"current_price,omitempty"`
		BidCount     int           `json:"bid_count"`
		WatchCount   int           `json:"watch_count"`
		At           time.Time     `json:"at"`
	} `json:"payload"`
}

type ServerPriceUpdateMessage struct {
	BaseMessage
	Payload struct {
		AuctionID       uuid.UUID    `json:"auction_id"`
		CurrentPrice    money.Amount `json:"current_price"`
		NextPriceDropAt *time.Time   `json:"next_price_drop_at,omitempty"`
		At              time.Time    `json:"at"`
	} `json:"payload"`
}

type ServerAuctionEndedMessage struct {
	BaseMessage
	Payload struct {
		AuctionID  uuid.UUID     `json:"auction_id"`
		Status     string        `json:"status"`
		WinnerID   *uuid.UUID    `json:"winner_id,omitempty"`
		FinalPrice *money.Amount `json:"final_price,omitempty"`
		At         time.Time     `json:"at"`
	} `json:"payload"`
}

type ServerWatchUpdateMessage struct {
	BaseMessage
	Payload struct {
		AuctionID  uuid.UUID `json:"auction_id"`
		WatchCount int       `json:"watch_count"`
	} `json:"payload"`
}

// ServerBidResultMessage answers the client that sent a bid-like message.
type ServerBidResultMessage struct {
	BaseMessage
	Payload struct {
		Success         bool         `json:"success"`
		BidID           *uuid.UUID   `json:"bid_id,omitempty"`
		InstantWin      bool         `json:"instant_win"`
		NewCurrentPrice money.Amount `json:"new_current_price"`
		Error           string       `json:"error,omitempty"`
	} `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Error string `json:"error"`
	} `json:"payload"`
}
