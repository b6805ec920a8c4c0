package finance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
	"github.com/jackc/pgx/v5"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/logger"
)

const reasonInsufficientFunds = "insufficient_funds"

// transferShape is the canonical request shape hashed for idempotency
// conflict detection. No floats, no maps; field order fixed by the struct.
type transferShape struct {
	FromAccount    uint64 `json:"from_account"`
	ToAccount      uint64 `json:"to_account"`
	Currency       string `json:"currency"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
}

func hashTransferCommand(cmd domain.TransferCommand) (string, error) {
	raw, err := json.Marshal(transferShape{
		FromAccount:    cmd.FromAccount.ID,
		ToAccount:      cmd.ToAccount.ID,
		Currency:       cmd.Currency,
		Amount:         cmd.Amount,
		IdempotencyKey: cmd.IdempotencyKey,
	})
	if err != nil {
		return "", err
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(canon)
	return hex.EncodeToString(h[:]), nil
}

// ExecuteTransfer runs the debit, the credit and the history insert as one
// transaction: either all three become visible or none do. A shortfall is
// itself recorded, as a failed transfer, so the idempotency key resolves
// permanently either way; the outcome is carried in Transfer.Status, not in
// the returned error.
func (i *Implementation) ExecuteTransfer(ctx context.Context, cmd domain.TransferCommand) (domain.Transfer, error) {
	requestHash, err := hashTransferCommand(cmd)
	if err != nil {
		return domain.Transfer{}, err
	}

	tx, err := i.c.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return domain.Transfer{}, classifyErr(err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Errorf(ctx, "rollback transaction unsuccessful: %v", rbErr)
			}
		}
	}()

	// Serialize racers on the same key so at most one executes and the rest
	// replay its recorded outcome.
	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, cmd.IdempotencyKey)
	if err != nil {
		return domain.Transfer{}, classifyErr(err)
	}

	recorded, found, err := i.transferByKey(ctx, tx, cmd.IdempotencyKey)
	if err != nil {
		return domain.Transfer{}, classifyErr(err)
	}
	if found {
		if recorded.requestHash != requestHash {
			err = domain.ErrIdempotencyConflict
			return domain.Transfer{}, err
		}
		if err = tx.Commit(ctx); err != nil {
			return domain.Transfer{}, classifyErr(err)
		}
		return recorded.transfer, nil
	}

	// Lock both rows in ascending id order; opposite-direction transfers
	// then cannot deadlock on each other.
	iter, err := tx.Query(ctx,
		`select id, user_id, currency_code, balance, created_at from accounts
			where id = $1 or id = $2 order by id for update`,
		cmd.FromAccount.ID, cmd.ToAccount.ID)
	if err != nil {
		return domain.Transfer{}, classifyErr(err)
	}

	locked := make(map[uint64]domain.Account, 2)
	for iter.Next() {
		a := accountModel{}
		if err = iter.Scan(&a.ID, &a.UserID, &a.Currency, &a.Balance, &a.CreatedAt); err != nil {
			iter.Close()
			return domain.Transfer{}, classifyErr(err)
		}
		acc := a.toDomain()
		locked[acc.ID.ID] = acc
	}
	iter.Close()
	if err = iter.Err(); err != nil {
		return domain.Transfer{}, classifyErr(err)
	}

	from, okFrom := locked[cmd.FromAccount.ID]
	to, okTo := locked[cmd.ToAccount.ID]
	if !okFrom || !okTo {
		err = domain.ErrAccountNotFound
		return domain.Transfer{}, err
	}
	if from.Currency != cmd.Currency || to.Currency != cmd.Currency {
		err = fmt.Errorf("accounts hold %s/%s, transfer in %s: %w",
			from.Currency, to.Currency, cmd.Currency, domain.ErrCurrencyMismatch)
		return domain.Transfer{}, err
	}

	if from.Balance < cmd.Amount {
		failed, insErr := i.insertTransfer(ctx, tx, cmd, requestHash,
			domain.TransferFailed, reasonInsufficientFunds)
		if insErr != nil {
			err = insErr
			return domain.Transfer{}, classifyErr(err)
		}
		if err = tx.Commit(ctx); err != nil {
			return domain.Transfer{}, classifyErr(err)
		}
		return failed, nil
	}

	_, err = tx.Exec(ctx, `update accounts set balance = balance - $1 where id = $2`,
		cmd.Amount, cmd.FromAccount.ID)
	if err != nil {
		return domain.Transfer{}, classifyErr(err)
	}
	_, err = tx.Exec(ctx, `update accounts set balance = balance + $1 where id = $2`,
		cmd.Amount, cmd.ToAccount.ID)
	if err != nil {
		return domain.Transfer{}, classifyErr(err)
	}

	committed, err := i.insertTransfer(ctx, tx, cmd, requestHash, domain.TransferCommitted, "")
	if err != nil {
		return domain.Transfer{}, classifyErr(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.Transfer{}, classifyErr(err)
	}

	return committed, nil
}

type recordedTransfer struct {
	transfer    domain.Transfer
	requestHash string
}

func (i *Implementation) transferByKey(ctx context.Context, tx pgx.Tx, key string) (recordedTransfer, bool, error) {
	t := transferModel{}
	err := tx.QueryRow(ctx,
		`select id, from_account, to_account, currency_code, amount, status,
			failure_reason, idempotency_key, request_hash, created_at
			from transfers where idempotency_key = $1`, key).
		Scan(&t.ID, &t.FromAccount, &t.ToAccount, &t.Currency, &t.Amount,
			&t.Status, &t.FailureReason, &t.IdempotencyKey, &t.RequestHash, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recordedTransfer{}, false, nil
		}
		return recordedTransfer{}, false, err
	}

	return recordedTransfer{
		transfer:    t.toDomain(),
		requestHash: t.RequestHash.String,
	}, true, nil
}

func (i *Implementation) insertTransfer(ctx context.Context, tx pgx.Tx, cmd domain.TransferCommand,
	requestHash string, status domain.TransferStatus, reason string) (domain.Transfer, error) {
	t := domain.Transfer{
		ID:             uuid.New(),
		FromAccount:    cmd.FromAccount,
		ToAccount:      cmd.ToAccount,
		Currency:       cmd.Currency,
		Amount:         cmd.Amount,
		Status:         status,
		FailureReason:  reason,
		IdempotencyKey: cmd.IdempotencyKey,
	}

	err := tx.QueryRow(ctx,
		`insert into transfers (id, from_account, to_account, currency_code, amount,
			status, failure_reason, idempotency_key, request_hash)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9) returning created_at`,
		t.ID, t.FromAccount.ID, t.ToAccount.ID, t.Currency, t.Amount,
		string(t.Status), t.FailureReason, t.IdempotencyKey, requestHash).
		Scan(&t.CreatedAt)
	if err != nil {
		return domain.Transfer{}, err
	}

	return t, nil
}
