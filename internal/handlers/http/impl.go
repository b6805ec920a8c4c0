package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/serviceerrors"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/usecases/finance"
)

type userClient interface {
	RegisterUser(ctx context.Context, reg domain.Auth) (domain.ID, error)
	LoginUser(ctx context.Context, reg domain.Auth) (domain.Session, error)
}

type sessionClient interface {
	Hold(ctx context.Context, token domain.SessionToken) (domain.Session, error)
}

type financeClient interface {
	Transfer(ctx context.Context, userID domain.ID, req finance.TransferRequest) (domain.Transfer, error)
	GetBalance(ctx context.Context, userID, accountID domain.ID) (domain.Account, error)
	GetBalances(ctx context.Context, userID domain.ID) ([]domain.Account, error)
	GetHistory(ctx context.Context, userID, accountID domain.ID, page int) (domain.Transfers, error)
	MajorUnits(code string, minor int64) (decimal.Decimal, error)
}

type Implementation struct {
	users    userClient
	sessions sessionClient
	finance  financeClient
}

func NewImplementation(users userClient, sessions sessionClient, finance financeClient) *Implementation {
	return &Implementation{
		users:    users,
		sessions: sessions,
		finance:  finance,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID uint64 `json:"user_id"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type holdRequest struct {
	Token string `json:"token"`
}

type balanceResponse struct {
	AccountID uint64          `json:"account_id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
}

type transferRequest struct {
	FromAccount    uint64          `json:"from_account"`
	ToAccount      uint64          `json:"to_account"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type transferResponse struct {
	ID             string          `json:"id"`
	FromAccount    uint64          `json:"from_account"`
	ToAccount      uint64          `json:"to_account"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Register creates a user and one account per supported currency.
func (i *Implementation) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, serviceerrors.NewBadRequest().Wrap(err, "decode body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(ctx, w, serviceerrors.NewBadRequest())
		return
	}

	userID, err := i.users.RegisterUser(ctx, domain.Auth{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, registerResponse{UserID: userID.ID})
}

// SessionStart exchanges credentials for a fresh session token.
func (i *Implementation) SessionStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, serviceerrors.NewBadRequest().Wrap(err, "decode body"))
		return
	}

	s, err := i.users.LoginUser(ctx, domain.Auth{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	})
}

// SessionHold renews a live session and returns the current token with its
// new expiry. The token in the response must be used afterwards: rotation
// may have replaced it.
func (i *Implementation) SessionHold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req holdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, serviceerrors.NewBadRequest().Wrap(err, "decode body"))
		return
	}

	s, err := i.sessions.Hold(ctx, domain.SessionToken{Token: req.Token})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	})
}

// Balances returns every account of the authenticated user.
func (i *Implementation) Balances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserID(ctx)
	if !ok {
		writeError(ctx, w, serviceerrors.NewUnauthorized())
		return
	}

	accounts, err := i.finance.GetBalances(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resp := make([]balanceResponse, 0, len(accounts))
	for _, acc := range accounts {
		b, err := i.toBalance(acc)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		resp = append(resp, b)
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

// AccountBalance returns one account owned by the authenticated user.
func (i *Implementation) AccountBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserID(ctx)
	if !ok {
		writeError(ctx, w, serviceerrors.NewUnauthorized())
		return
	}

	accountID, err := pathID(r)
	if err != nil {
		writeError(ctx, w, serviceerrors.NewBadRequest().Wrap(err, "account id"))
		return
	}

	acc, err := i.finance.GetBalance(ctx, userID, accountID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	b, err := i.toBalance(acc)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, b)
}

// History returns a page of transfers touching the account, newest first.
// Failed transfers are part of the history.
func (i *Implementation) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserID(ctx)
	if !ok {
		writeError(ctx, w, serviceerrors.NewUnauthorized())
		return
	}

	accountID, err := pathID(r)
	if err != nil {
		writeError(ctx, w, serviceerrors.NewBadRequest().Wrap(err, "account id"))
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			writeError(ctx, w, serviceerrors.NewBadRequest())
			return
		}
	}

	transfers, err := i.finance.GetHistory(ctx, userID, accountID, page)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resp := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		tr, err := i.toTransfer(t)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		resp = append(resp, tr)
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

// Transfer moves money between two accounts. A committed transfer answers
// 200; a transfer rejected for insufficient funds is a recorded outcome and
// answers 402 with the failed record, not an opaque error.
func (i *Implementation) Transfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := getUserID(ctx)
	if !ok {
		writeError(ctx, w, serviceerrors.NewUnauthorized())
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, serviceerrors.NewBadRequest().Wrap(err, "decode body"))
		return
	}

	t, err := i.finance.Transfer(ctx, userID, finance.TransferRequest{
		FromAccount: domain.ID{ID: req.FromAccount},
		ToAccount:   domain.ID{ID: req.ToAccount},
		Amount: domain.Money{
			Currency: req.Currency,
			Amount:   req.Amount,
		},
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resp, err := i.toTransfer(t)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if t.Status == domain.TransferFailed {
		status = http.StatusPaymentRequired
	}

	writeJSON(ctx, w, status, resp)
}

func (i *Implementation) toBalance(acc domain.Account) (balanceResponse, error) {
	major, err := i.finance.MajorUnits(acc.Currency, acc.Balance)
	if err != nil {
		return balanceResponse{}, err
	}

	return balanceResponse{
		AccountID: acc.ID.ID,
		Currency:  acc.Currency,
		Balance:   major,
	}, nil
}

func (i *Implementation) toTransfer(t domain.Transfer) (transferResponse, error) {
	major, err := i.finance.MajorUnits(t.Currency, t.Amount)
	if err != nil {
		return transferResponse{}, err
	}

	return transferResponse{
		ID:             t.ID.String(),
		FromAccount:    t.FromAccount.ID,
		ToAccount:      t.ToAccount.ID,
		Amount:         major,
		Currency:       t.Currency,
		Status:         string(t.Status),
		FailureReason:  t.FailureReason,
		IdempotencyKey: t.IdempotencyKey,
		CreatedAt:      t.CreatedAt,
	}, nil
}

func pathID(r *http.Request) (domain.ID, error) {
	raw := chi.URLParam(r, "id")

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return domain.ID{}, err
	}

	return domain.ID{ID: n}, nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeError(ctx, w, serviceerrors.NewAppError(err))
		return
	}

	w.Header().Set(ContentType, ApplicationJSONType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := appErrorFrom(err)
	appErr.LogServerError(ctx)

	w.Header().Set(ContentType, ApplicationJSONType)
	w.WriteHeader(appErr.Code)
	_, _ = w.Write([]byte(appErr.String()))
}

func appErrorFrom(err error) *serviceerrors.AppError {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrBadCredentials):
		return serviceerrors.NewUnauthorized().Wrap(err, "")
	case errors.Is(err, domain.ErrValidation):
		return serviceerrors.NewBadRequest().Wrap(err, "")
	case errors.Is(err, domain.ErrForbidden):
		return serviceerrors.NewForbidden().Wrap(err, "")
	case errors.Is(err, domain.ErrAccountNotFound):
		return serviceerrors.NewNotFound().Wrap(err, "")
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrIdempotencyConflict):
		return serviceerrors.NewConflict().Wrap(err, "")
	case errors.Is(err, domain.ErrCurrencyUnknown),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrAmountScale):
		return serviceerrors.NewUnprocessableEntity().Wrap(err, "")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return serviceerrors.NewPaymentRequired().Wrap(err, "")
	case errors.Is(err, domain.ErrTransient):
		return serviceerrors.NewServiceUnavailable().Wrap(err, "")
	default:
		return serviceerrors.AppErrorFromError(err)
	}
}
