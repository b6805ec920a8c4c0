package finance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/logger"
)

// OpenAccounts creates one zero-balance account per known currency for a
// freshly registered user.
func (i *Implementation) OpenAccounts(ctx context.Context, userID domain.ID) error {
	tx, err := i.c.Begin(ctx)
	if err != nil {
		return classifyErr(err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Errorf(ctx, "rollback transaction unsuccessful: %v", rbErr)
			}
		}
	}()

	for code := range i.currencies {
		_, err = tx.Exec(ctx,
			`insert into accounts (user_id, currency_code) values ($1, $2)
				on conflict (user_id, currency_code) do nothing`,
			userID.ID, code)
		if err != nil {
			return classifyErr(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return classifyErr(err)
	}

	return nil
}

func (i *Implementation) GetAccount(ctx context.Context, accountID domain.ID) (domain.Account, error) {
	a := accountModel{}
	err := i.c.QueryRow(ctx,
		`select id, user_id, currency_code, balance, created_at from accounts where id = $1`,
		accountID.ID).
		Scan(&a.ID, &a.UserID, &a.Currency, &a.Balance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, classifyErr(err)
	}

	return a.toDomain(), nil
}

// AccountsByUser backs the per-currency balance listing.
func (i *Implementation) AccountsByUser(ctx context.Context, userID domain.ID) ([]domain.Account, error) {
	iter, err := i.c.Query(ctx,
		`select id, user_id, currency_code, balance, created_at from accounts
			where user_id = $1 order by currency_code`,
		userID.ID)
	if err != nil {
		return nil, classifyErr(err)
	}

	defer iter.Close()

	res := make([]domain.Account, 0)
	for iter.Next() {
		a := accountModel{}
		if err = iter.Scan(&a.ID, &a.UserID, &a.Currency, &a.Balance, &a.CreatedAt); err != nil {
			return nil, classifyErr(err)
		}
		res = append(res, a.toDomain())
	}
	if err = iter.Err(); err != nil {
		return nil, classifyErr(err)
	}

	return res, nil
}
