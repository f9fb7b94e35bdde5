package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAlreadyCompleted     = errors.New("booking already completed or cancelled")
	ErrDuplicateRequest     = errors.New("cancellation already requested")
	ErrAlreadyProcessed     = errors.New("decision token already used")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrTooLateToCancel      = errors.New("too close to the earliest slot to cancel")
)

// ConflictError names the window that lost the race.
type ConflictError struct {
	Date      string
	StartTime string
	EndTime   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot unavailable: %s %s-%s", e.Date, e.StartTime, e.EndTime)
}

type PromotionReason string

const (
	PromotionNotFound      PromotionReason = "not found"
	PromotionExpired       PromotionReason = "expired"
	PromotionNotStarted    PromotionReason = "not yet active"
	PromotionDisabled      PromotionReason = "disabled"
	PromotionWrongShop     PromotionReason = "not valid for this facility"
	PromotionBelowMinOrder PromotionReason = "order below minimum amount"
	PromotionLimitReached  PromotionReason = "usage limit reached"
	PromotionUserLimit     PromotionReason = "per-customer usage limit reached"
)

type PromotionError struct {
	Code   string
	Reason PromotionReason
}

func (e *PromotionError) Error() string {
	return fmt.Sprintf("promotion %q: %s", e.Code, e.Reason)
}
