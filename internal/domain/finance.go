package domain

import (
	"time"

	"github.com/google/uuid"
)

type Currency struct {
	Code string
	Name string
	// MinorUnit is the exponent of the smallest currency unit
	// (2 for USD: 1 USD = 10^2 cents).
	MinorUnit int32
}

// Account balance is kept in minor currency units, never floating point.
type Account struct {
	ID        ID
	UserID    ID
	Currency  string
	Balance   int64
	CreatedAt time.Time
}

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCommitted TransferStatus = "committed"
	TransferFailed    TransferStatus = "failed"
)

// Transfer is append-only once committed or failed.
type Transfer struct {
	ID             uuid.UUID
	FromAccount    ID
	ToAccount      ID
	Currency       string
	Amount         int64
	Status         TransferStatus
	FailureReason  string
	IdempotencyKey string
	CreatedAt      time.Time
}

type Transfers []Transfer

// TransferCommand is the validated, minor-unit form of a transfer request
// handed to the ledger for atomic execution.
type TransferCommand struct {
	FromAccount    ID
	ToAccount      ID
	Currency       string
	Amount         int64
	IdempotencyKey string
}
