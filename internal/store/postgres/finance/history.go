package finance

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
)

type transferModel struct {
	ID             uuid.UUID      `db:"id"`
	FromAccount    sql.NullInt64  `db:"from_account"`
	ToAccount      sql.NullInt64  `db:"to_account"`
	Currency       sql.NullString `db:"currency_code"`
	Amount         sql.NullInt64  `db:"amount"`
	Status         sql.NullString `db:"status"`
	FailureReason  sql.NullString `db:"failure_reason"`
	IdempotencyKey sql.NullString `db:"idempotency_key"`
	RequestHash    sql.NullString `db:"request_hash"`
	CreatedAt      sql.NullTime   `db:"created_at"`
}

func (m transferModel) toDomain() domain.Transfer {
	return domain.Transfer{
		ID:             m.ID,
		FromAccount:    domain.ID{ID: uint64(m.FromAccount.Int64)},
		ToAccount:      domain.ID{ID: uint64(m.ToAccount.Int64)},
		Currency:       m.Currency.String,
		Amount:         m.Amount.Int64,
		Status:         domain.TransferStatus(m.Status.String),
		FailureReason:  m.FailureReason.String,
		IdempotencyKey: m.IdempotencyKey.String,
		CreatedAt:      m.CreatedAt.Time,
	}
}

// History lists transfers touching the account, newest first. Failed
// attempts stay in the listing: they are part of the audit trail.
func (i *Implementation) History(ctx context.Context, accountID domain.ID, page, limit int) (domain.Transfers, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	iter, err := i.c.Query(ctx,
		`select id, from_account, to_account, currency_code, amount, status,
			failure_reason, idempotency_key, request_hash, created_at
			from transfers
			where from_account = $1 or to_account = $1
			order by created_at desc
			limit $2 offset $3`,
		accountID.ID, limit, offset)
	if err != nil {
		return nil, classifyErr(err)
	}

	defer iter.Close()

	res := make(domain.Transfers, 0)
	for iter.Next() {
		t := transferModel{}
		err = iter.Scan(&t.ID, &t.FromAccount, &t.ToAccount, &t.Currency, &t.Amount,
			&t.Status, &t.FailureReason, &t.IdempotencyKey, &t.RequestHash, &t.CreatedAt)
		if err != nil {
			return nil, classifyErr(err)
		}
		res = append(res, t.toDomain())
	}
	if err = iter.Err(); err != nil {
		return nil, classifyErr(err)
	}

	return res, nil
}
