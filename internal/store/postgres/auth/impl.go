// Package auth stores user credentials. The rest of the system only ever
// consumes it as "verify credentials, get a user id".
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/argon2"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/logger"
)

type Implementation struct {
	c *pgxpool.Pool
}

var usersTable = `create table if not exists users (
    id            bigint GENERATED ALWAYS AS IDENTITY primary key,
    email         varchar NOT NULL UNIQUE,
    password_hash varchar NOT NULL,
    salt          varchar NOT NULL,
    state         varchar NOT NULL,
    created_at    timestamp WITHOUT TIME ZONE NOT NULL DEFAULT (NOW() AT TIME ZONE 'UTC'))`

var tables = []string{
	usersTable,
}

// NewImplementation ...
func NewImplementation(ctx context.Context, c *pgxpool.Pool) (*Implementation, error) {
	for _, t := range tables {
		_, err := c.Exec(ctx, t)
		if err != nil {
			return nil, err
		}
	}

	return &Implementation{
		c: c,
	}, nil
}

type userRow struct {
	ID           sql.NullInt64  `db:"id"`
	Email        sql.NullString `db:"email"`
	PasswordHash sql.NullString `db:"password_hash"`
	Salt         sql.NullString `db:"salt"`
	State        sql.NullString `db:"state"`
	CreatedAt    sql.NullTime   `db:"created_at"`
}

// argon2Config holds the parameters for Argon2id hashing.
type argon2Config struct {
	TimeCost    uint32
	MemoryCost  uint32
	Parallelism uint8
	KeyLength   uint32
}

var config = &argon2Config{
	TimeCost:    3,
	MemoryCost:  64 * 1024, // 64MB
	Parallelism: 4,
	KeyLength:   32,
}

const saltLength = 32

func generateSalt(length int) ([]byte, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func hashPassword(password string, salt []byte) string {
	key := argon2.IDKey([]byte(password), salt,
		config.TimeCost, config.MemoryCost, config.Parallelism, config.KeyLength)
	return base64.StdEncoding.EncodeToString(key)
}

func (repo *Implementation) Register(ctx context.Context, a domain.Auth) (domain.ID, error) {
	salt, err := generateSalt(saltLength)
	if err != nil {
		return domain.ID{}, err
	}

	encodedSalt := base64.StdEncoding.EncodeToString(salt)
	encodedHash := hashPassword(a.Password, salt)

	tx, err := repo.c.Begin(ctx)
	if err != nil {
		return domain.ID{}, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Errorf(ctx, "rollback transaction unsuccessful: %v", rbErr)
			}
		}
	}()

	uID := &sql.NullInt64{}
	err = tx.QueryRow(ctx, `INSERT INTO users(email, password_hash, salt, state)
      values($1, $2, $3, $4) RETURNING id;`, a.Email, encodedHash, encodedSalt, "verified").Scan(uID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ID{}, domain.ErrUserExists
		}
		return domain.ID{}, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return domain.ID{}, err
	}

	return domain.ID{
		ID: uint64(uID.Int64),
	}, nil
}

// GetAuth verifies the presented credentials; an unknown email and a wrong
// password produce the same error.
func (repo *Implementation) GetAuth(ctx context.Context, authReq domain.Auth) (domain.Auth, error) {
	u := userRow{}
	err := repo.c.QueryRow(ctx, `Select id, email, password_hash, salt from users where email = $1`, authReq.Email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Salt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Auth{}, domain.ErrBadCredentials
		}
		return domain.Auth{}, err
	}

	decodedSalt, err := base64.StdEncoding.DecodeString(u.Salt.String)
	if err != nil {
		return domain.Auth{}, err
	}

	encodedHash := hashPassword(authReq.Password, decodedSalt)
	if subtle.ConstantTimeCompare([]byte(encodedHash), []byte(u.PasswordHash.String)) != 1 {
		return domain.Auth{}, domain.ErrBadCredentials
	}

	return domain.Auth{
		UserID: domain.ID{
			ID: uint64(u.ID.Int64),
		},
		Email: u.Email.String,
	}, nil
}
