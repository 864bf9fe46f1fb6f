package repositories

import "errors"

// Sentinel errors surfaced to handlers for status-code mapping.
var (
	// ErrNotFound indicates the referenced deal, payment, customer or
	// AMS contract does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrEmployeeNotFound indicates a createdById referencing no user.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrForbidden indicates the record exists but belongs to another company.
	ErrForbidden = errors.New("record belongs to a different company")
	// ErrInsufficientBalance indicates a payment would overdraw the deal's
	// approved value.
	ErrInsufficientBalance = errors.New("payment exceeds remaining deal balance")
)
