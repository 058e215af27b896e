package rest

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/cristianortiz/biddingengine/internal/shared/money"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionHandler exposes the auction service over HTTP.
type AuctionHandler struct {
	auctionService application.AuctionService
	limiter        *BidderLimiter
}

func NewAuctionHandler(auctionService application.AuctionService, limiter *BidderLimiter) *AuctionHandler {
	return &AuctionHandler{auctionService: auctionService, limiter: limiter}
}

// Register mounts the auction routes under /api/auctions.
func (h *AuctionHandler) Register(router fiber.Router) {
	g := router.Group("/api/auctions")
	g.Post("/", h.createAuction)
	g.Get("/:id", h.getAuction)
	g.Post("/:id/bids", h.placeBid)
	g.Post("/:id/auto-bids", h.placeAutoBid)
	g.Post("/:id/accept", h.acceptPrice)
	g.Post("/:id/cancel", h.cancel)
	g.Post("/:id/watch", h.watch)
	g.Delete("/:id/watch", h.unwatch)
}

type createAuctionRequest struct {
	SellerID          uuid.UUID     `json:"seller_id"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Type              string        `json:"auction_type"`
	Visibility        string        `json:"bid_visibility"`
	StartPrice        money.Amount  `json:"start_price"`
	MinPrice          *money.Amount `json:"min_price"`
	InstantPrice      *money.Amount `json:"instant_price"`
	BidIncrement      money.Amount  `json:"bid_increment"`
	PriceDropAmount   money.Amount  `json:"price_drop_amount"`
	PriceDropInterval string        `json:"price_drop_interval"`
	Duration          string        `json:"duration"`
}

func (r createAuctionRequest) params() (domain.CreateAuctionParams, error) {
	p := domain.CreateAuctionParams{
		SellerID:        r.SellerID,
		Title:           r.Title,
		Description:     r.Description,
		Type:            domain.AuctionType(r.Type),
		Visibility:      domain.BidVisibility(r.Visibility),
		StartPrice:      int64(r.StartPrice),
		BidIncrement:    int64(r.BidIncrement),
		PriceDropAmount: int64(r.PriceDropAmount),
	}
	if r.MinPrice != nil {
		p.MinPrice = domain.Int64Ptr(int64(*r.MinPrice))
	}
	if r.InstantPrice != nil {
		p.InstantPrice = domain.Int64Ptr(int64(*r.InstantPrice))
	}
	var err error
	if p.Duration, err = time.ParseDuration(r.Duration); err != nil {
		return p, fiber.NewError(fiber.StatusBadRequest, "invalid duration")
	}
	if r.PriceDropInterval != "" {
		if p.PriceDropInterval, err = time.ParseDuration(r.PriceDropInterval); err != nil {
			return p, fiber.NewError(fiber.StatusBadRequest, "invalid price_drop_interval")
		}
	}
	return p, nil
}

type bidRequest struct {
	BidderID uuid.UUID    `json:"bidder_id"`
	Amount   money.Amount `json:"amount"`
}

type autoBidRequest struct {
	UserID    uuid.UUID    `json:"user_id"`
	MaxAmount money.Amount `json:"max_amount"`
}

type acceptRequest struct {
	UserID uuid.UUID    `json:"user_id"`
	Price  money.Amount `json:"price"`
}

type actorRequest struct {
	ActorID uuid.UUID `json:"actor_id"`
}

type watchRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type bidResponse struct {
	*application.BidResult
	NewCurrentPriceDisplay string `json:"new_current_price_display"`
}

func (h *AuctionHandler) createAuction(c *fiber.Ctx) error {
	var req createAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	params, err := req.params()
	if err != nil {
		return err
	}
	a, err := h.auctionService.CreateAuction(c.UserContext(), params)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain.View(domain.NewAuctionState(a, nil, nil, nil), a.SellerID, 0))
}

func (h *AuctionHandler) getAuction(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	// anonymous viewers see what the public sees
	viewer, _ := uuid.Parse(c.Query("viewer"))
	view, err := h.auctionService.GetAuction(c.UserContext(), id, viewer)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(view)
}

func (h *AuctionHandler) placeBid(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	var req bidRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !h.limiter.Allow(req.BidderID) {
		return fiber.ErrTooManyRequests
	}
	res, err := h.auctionService.PlaceBid(c.UserContext(), id, req.BidderID, int64(req.Amount))
	return bidReply(c, res, err)
}

func (h *AuctionHandler) placeAutoBid(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	var req autoBidRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !h.limiter.Allow(req.UserID) {
		return fiber.ErrTooManyRequests
	}
	res, err := h.auctionService.PlaceAutoBid(c.UserContext(), id, req.UserID, int64(req.MaxAmount))
	return bidReply(c, res, err)
}

func (h *AuctionHandler) acceptPrice(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	var req acceptRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !h.limiter.Allow(req.UserID) {
		return fiber.ErrTooManyRequests
	}
	res, err := h.auctionService.AcceptCurrentPrice(c.UserContext(), id, req.UserID, int64(req.Price))
	return bidReply(c, res, err)
}

func (h *AuctionHandler) cancel(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	var req actorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.auctionService.Cancel(c.UserContext(), id, req.ActorID); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuctionHandler) watch(c *fiber.Ctx) error {
	return h.updateWatch(c, h.auctionService.Watch)
}

func (h *AuctionHandler) unwatch(c *fiber.Ctx) error {
	return h.updateWatch(c, h.auctionService.Unwatch)
}

func (h *AuctionHandler) updateWatch(c *fiber.Ctx, op func(ctx context.Context, auctionID, userID uuid.UUID) (int, error)) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	var req watchRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	count, err := op(c.UserContext(), id, req.UserID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"auction_id": id, "watch_count": count})
}

func auctionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid auction id")
	}
	return id, nil
}

func bidReply(c *fiber.Ctx, res *application.BidResult, err error) error {
	if res == nil {
		return errorResponse(c, err)
	}
	body := bidResponse{BidResult: res, NewCurrentPriceDisplay: money.Format(res.NewCurrentPrice)}
	return c.Status(statusFor(err)).JSON(body)
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "reason": domain.Reason(err)})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, domain.ErrAuctionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLifecycle), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrStore):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
