package services

import "errors"

// Error taxonomy surfaced to callers. Controllers map these to HTTP codes;
// everything else is treated as an internal failure.
var (
	// ErrNotFound: the referenced action item does not exist.
	ErrNotFound = errors.New("action item not found")

	// ErrInvalidTransition: the item's current status does not permit the
	// requested transition, or the action is outside the queue's vocabulary.
	// Nothing was mutated.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidReasonCode: a reason code outside the queue's closed set was
	// supplied at creation or in a filter.
	ErrInvalidReasonCode = errors.New("invalid reason code")

	// ErrInvalidFilter: a filter value outside its closed set (bad queue,
	// bad severity, bad assignment scope).
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidItem: a creation or note payload missing required fields or
	// naming an unknown queue.
	ErrInvalidItem = errors.New("invalid item payload")

	// ErrExternalAction: an external side effect (webhook redelivery)
	// failed. Item state is unchanged and the same action may be retried.
	ErrExternalAction = errors.New("external action failed")
)
