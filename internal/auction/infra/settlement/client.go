package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Client posts settlement requests as JSON to the payment service. Retrying
// is left to that service.
type Client struct {
	url     string
	timeout time.Duration
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, timeout: timeout}
}

var _ domain.SettlementRequester = (*Client)(nil)

func (c *Client) RequestSettlement(ctx context.Context, req domain.SettlementRequest) error {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("settlement for auction %s: %w", req.AuctionID, context.DeadlineExceeded)
	}

	agent := fiber.Post(c.url).JSON(req).Timeout(timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("settlement for auction %s: %w", req.AuctionID, errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("settlement for auction %s: unexpected status %d: %s", req.AuctionID, code, body)
	}
	return nil
}

// LogRequester only logs settlement requests. It stands in when no payment
// service is configured.
type LogRequester struct{}

func (LogRequester) RequestSettlement(_ context.Context, req domain.SettlementRequest) error {
	log.Info("Settlement requested (no payment service configured)",
		zap.String("auctionID", req.AuctionID.String()),
		zap.String("winnerID", req.WinnerID.String()),
		zap.Int64("finalPrice", req.FinalPrice),
	)
	return nil
}
