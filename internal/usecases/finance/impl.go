// Package finance orchestrates balance queries, transfer execution and
// history retrieval. Every entry point takes the user id already resolved by
// session verification and enforces account ownership before touching the
// ledger.
package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/logger"
)

type ledgerStore interface {
	Currency(code string) (domain.Currency, error)
	GetAccount(ctx context.Context, accountID domain.ID) (domain.Account, error)
	AccountsByUser(ctx context.Context, userID domain.ID) ([]domain.Account, error)
	History(ctx context.Context, accountID domain.ID, page, limit int) (domain.Transfers, error)
	ExecuteTransfer(ctx context.Context, cmd domain.TransferCommand) (domain.Transfer, error)
}

type Options struct {
	// Retries bounds how many times a transfer is attempted when the ledger
	// reports a transient failure. The idempotency key makes re-execution
	// safe.
	Retries int
	Backoff time.Duration

	HistoryPageSize int
}

type Implementation struct {
	store ledgerStore
	opts  Options
}

func NewImplementation(store ledgerStore, opts Options) *Implementation {
	// Fewer than one attempt would skip the ledger call entirely and hand
	// back an empty transfer.
	if opts.Retries < 1 {
		opts.Retries = 1
	}

	return &Implementation{
		store: store,
		opts:  opts,
	}
}

type TransferRequest struct {
	FromAccount    domain.ID
	ToAccount      domain.ID
	Amount         domain.Money
	IdempotencyKey string
}

// Transfer validates, then executes atomically against the ledger.
// Validation failures are rejected before any storage write and are never
// recorded; an insufficient balance IS recorded, as a failed transfer, and
// comes back with Status == TransferFailed rather than as an error.
func (i *Implementation) Transfer(ctx context.Context, userID domain.ID, req TransferRequest) (domain.Transfer, error) {
	if req.IdempotencyKey == "" {
		return domain.Transfer{}, fmt.Errorf("idempotency key required: %w", domain.ErrValidation)
	}
	if !req.Amount.Amount.IsPositive() {
		return domain.Transfer{}, fmt.Errorf("amount must be positive, got %s: %w",
			req.Amount.Amount.String(), domain.ErrValidation)
	}
	if req.FromAccount == req.ToAccount {
		return domain.Transfer{}, fmt.Errorf("transfer to the same account: %w", domain.ErrValidation)
	}

	cur, err := i.store.Currency(req.Amount.Currency)
	if err != nil {
		return domain.Transfer{}, err
	}

	minor, err := req.Amount.MinorUnits(cur.MinorUnit)
	if err != nil {
		return domain.Transfer{}, err
	}

	from, err := i.store.GetAccount(ctx, req.FromAccount)
	if err != nil {
		return domain.Transfer{}, err
	}
	if from.UserID != userID {
		return domain.Transfer{}, domain.ErrForbidden
	}

	cmd := domain.TransferCommand{
		FromAccount:    req.FromAccount,
		ToAccount:      req.ToAccount,
		Currency:       cur.Code,
		Amount:         minor,
		IdempotencyKey: req.IdempotencyKey,
	}

	return i.executeWithRetry(ctx, cmd)
}

func (i *Implementation) executeWithRetry(ctx context.Context, cmd domain.TransferCommand) (domain.Transfer, error) {
	var t domain.Transfer
	var err error

	for attempt := 1; attempt <= i.opts.Retries; attempt++ {
		t, err = i.store.ExecuteTransfer(ctx, cmd)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, domain.ErrTransient) {
			return domain.Transfer{}, err
		}
		if attempt == i.opts.Retries {
			break
		}

		logger.Infof(ctx, "transfer attempt %d failed transiently, retrying: %v", attempt, err)
		select {
		case <-ctx.Done():
			return domain.Transfer{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * i.opts.Backoff):
		}
	}

	return domain.Transfer{}, err
}

// GetBalance returns the account after checking the caller owns it.
func (i *Implementation) GetBalance(ctx context.Context, userID, accountID domain.ID) (domain.Account, error) {
	acc, err := i.store.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}
	if acc.UserID != userID {
		return domain.Account{}, domain.ErrForbidden
	}

	return acc, nil
}

// GetBalances lists the caller's accounts across currencies.
func (i *Implementation) GetBalances(ctx context.Context, userID domain.ID) ([]domain.Account, error) {
	return i.store.AccountsByUser(ctx, userID)
}

// GetHistory pages through transfers touching the account, newest first.
func (i *Implementation) GetHistory(ctx context.Context, userID, accountID domain.ID, page int) (domain.Transfers, error) {
	acc, err := i.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.UserID != userID {
		return nil, domain.ErrForbidden
	}

	return i.store.History(ctx, accountID, page, i.opts.HistoryPageSize)
}

// Currency exposes the reference data for rendering minor units back into
// major-unit amounts.
func (i *Implementation) Currency(code string) (domain.Currency, error) {
	return i.store.Currency(code)
}

// MajorUnits renders a minor-unit amount for the given currency.
func (i *Implementation) MajorUnits(code string, minor int64) (decimal.Decimal, error) {
	cur, err := i.store.Currency(code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return domain.MoneyFromMinorUnits(code, minor, cur.MinorUnit).Amount, nil
}
