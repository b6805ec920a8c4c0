// Package finance is the authoritative ledger: accounts, balances and the
// append-only transfer history. All balance mutation happens inside
// ExecuteTransfer's transaction; nothing else writes balances.
package finance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
)

type Implementation struct {
	c *pgxpool.Pool

	// currencies is static reference data, loaded once at startup.
	currencies map[string]domain.Currency
}

var currenciesTable = `create table if not exists currencies (
    code        varchar(3) primary key,
    name        text NOT NULL,
    minor_unit  smallint NOT NULL)`

var accountsTable = `create table if not exists accounts (
    id            bigint GENERATED ALWAYS AS IDENTITY primary key,
    user_id       bigint NOT NULL,
    currency_code varchar(3) NOT NULL REFERENCES currencies (code),
    balance       bigint NOT NULL DEFAULT (0) CHECK (balance >= 0),
    created_at    timestamp WITHOUT TIME ZONE NOT NULL DEFAULT (NOW() AT TIME ZONE 'UTC'),
    unique (user_id, currency_code))`

var transfersTable = `create table if not exists transfers (
    id              uuid primary key,
    from_account    bigint NOT NULL,
    to_account      bigint NOT NULL,
    currency_code   varchar(3) NOT NULL,
    amount          bigint NOT NULL,
    status          text NOT NULL,
    failure_reason  text NOT NULL DEFAULT (''),
    idempotency_key text NOT NULL UNIQUE,
    request_hash    text NOT NULL,
    created_at      timestamp WITHOUT TIME ZONE NOT NULL DEFAULT (NOW() AT TIME ZONE 'UTC'))`

var seedCurrencies = `insert into currencies (code, name, minor_unit) values
    ('USD', 'US Dollar', 2),
    ('EUR', 'Euro', 2)
    on conflict (code) do nothing`

var tables = []string{
	currenciesTable,
	accountsTable,
	transfersTable,
	seedCurrencies,
}

// NewImplementation ...
func NewImplementation(ctx context.Context, c *pgxpool.Pool) (*Implementation, error) {
	for _, t := range tables {
		_, err := c.Exec(ctx, t)
		if err != nil {
			return nil, err
		}
	}

	i := &Implementation{
		c:          c,
		currencies: make(map[string]domain.Currency),
	}

	iter, err := c.Query(ctx, `select code, name, minor_unit from currencies`)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	for iter.Next() {
		cur := domain.Currency{}
		if err = iter.Scan(&cur.Code, &cur.Name, &cur.MinorUnit); err != nil {
			return nil, err
		}
		i.currencies[cur.Code] = cur
	}
	if err = iter.Err(); err != nil {
		return nil, err
	}

	return i, nil
}

// Currency resolves a code against the reference data.
func (i *Implementation) Currency(code string) (domain.Currency, error) {
	cur, ok := i.currencies[code]
	if !ok {
		return domain.Currency{}, domain.ErrCurrencyUnknown
	}
	return cur, nil
}

type accountModel struct {
	ID        sql.NullInt64  `db:"id"`
	UserID    sql.NullInt64  `db:"user_id"`
	Currency  sql.NullString `db:"currency_code"`
	Balance   sql.NullInt64  `db:"balance"`
	CreatedAt sql.NullTime   `db:"created_at"`
}

func (m accountModel) toDomain() domain.Account {
	return domain.Account{
		ID:        domain.ID{ID: uint64(m.ID.Int64)},
		UserID:    domain.ID{ID: uint64(m.UserID.Int64)},
		Currency:  m.Currency.String,
		Balance:   m.Balance.Int64,
		CreatedAt: m.CreatedAt.Time,
	}
}

// classifyErr tags storage failures that are safe to retry with the same
// idempotency key: serialization and deadlock aborts, connection-level
// failures, network timeouts. Context cancellation is never transient.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%s: %w", pgErr.Message, domain.ErrTransient)
		}
		return err
	}

	if pgconn.SafeToRetry(err) {
		return fmt.Errorf("%v: %w", err, domain.ErrTransient)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%v: %w", err, domain.ErrTransient)
	}

	return err
}
