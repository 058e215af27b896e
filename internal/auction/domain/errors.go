package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every sentinel below wraps exactly one of them so callers
// can branch on the category with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrLifecycle  = errors.New("lifecycle error")
	ErrStore      = errors.New("store error")
	ErrConflict   = errors.New("concurrent update conflict")
)

var (
	ErrAuctionClosed    = fmt.Errorf("%w: auction is closed", ErrValidation)
	ErrSelfBid          = fmt.Errorf("%w: seller cannot bid on own auction", ErrValidation)
	ErrBidTooLow        = fmt.Errorf("%w: bid amount is too low", ErrValidation)
	ErrPriceMismatch    = fmt.Errorf("%w: accepted price does not match current price", ErrValidation)
	ErrInvalidMaxBid    = fmt.Errorf("%w: invalid max bid amount", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrWrongAuctionType = fmt.Errorf("%w: operation not supported for this auction type", ErrValidation)
	ErrInvalidAuction   = fmt.Errorf("%w: invalid auction parameters", ErrValidation)

	ErrNotActive     = fmt.Errorf("%w: auction is not active", ErrLifecycle)
	ErrNotAuthorized = fmt.Errorf("%w: actor is not allowed to perform this action", ErrLifecycle)

	ErrAuctionNotFound = errors.New("auction not found")
)

// Reason codes reported in BidResult.Error.
const (
	ReasonAuctionClosed    = "AuctionClosed"
	ReasonSelfBid          = "SelfBid"
	ReasonBidTooLow        = "BidTooLow"
	ReasonPriceMismatch    = "PriceMismatch"
	ReasonInvalidMaxBid    = "InvalidMaxBid"
	ReasonInvalidAmount    = "InvalidAmount"
	ReasonWrongAuctionType = "WrongAuctionType"
	ReasonNotActive        = "NotActive"
	ReasonNotAuthorized    = "NotAuthorized"
	ReasonNotFound         = "NotFound"
	ReasonStore            = "StoreError"
	ReasonConflict         = "Conflict"
)

// reasonOrder is checked top-down, PriceMismatch before AuctionClosed so a
// late accept reports the price it missed.
var reasonOrder = []struct {
	err    error
	reason string
}{
	{ErrPriceMismatch, ReasonPriceMismatch},
	{ErrAuctionClosed, ReasonAuctionClosed},
	{ErrSelfBid, ReasonSelfBid},
	{ErrBidTooLow, ReasonBidTooLow},
	{ErrInvalidMaxBid, ReasonInvalidMaxBid},
	{ErrInvalidAmount, ReasonInvalidAmount},
	{ErrWrongAuctionType, ReasonWrongAuctionType},
	{ErrNotActive, ReasonNotActive},
	{ErrNotAuthorized, ReasonNotAuthorized},
	{ErrAuctionNotFound, ReasonNotFound},
	{ErrStore, ReasonStore},
	{ErrConflict, ReasonConflict},
}

// Reason maps an engine error to its reason code, or "" when it has none.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasonOrder {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ""
}

// StoreFailure wraps a durability failure so it matches ErrStore while keeping
// the driver error reachable.
func StoreFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
