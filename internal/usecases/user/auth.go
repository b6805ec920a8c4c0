package user

import (
	"context"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
)

type authRepo interface {
	Register(ctx context.Context, a domain.Auth) (domain.ID, error)
	GetAuth(ctx context.Context, a domain.Auth) (domain.Auth, error)
}

type sessionStarter interface {
	Start(ctx context.Context, userID domain.ID) (domain.Session, error)
}

type accountOpener interface {
	OpenAccounts(ctx context.Context, userID domain.ID) error
}

type Implementation struct {
	authRepo authRepo
	sessions sessionStarter
	accounts accountOpener
}

func NewImplementation(authRepo authRepo, sessions sessionStarter, accounts accountOpener) *Implementation {
	return &Implementation{
		authRepo: authRepo,
		sessions: sessions,
		accounts: accounts,
	}
}

// RegisterUser creates the credential record and opens one zero-balance
// account per supported currency.
func (a *Implementation) RegisterUser(ctx context.Context, reg domain.Auth) (domain.ID, error) {
	userID, err := a.authRepo.Register(ctx, reg)
	if err != nil {
		return domain.ID{}, err
	}

	if err = a.accounts.OpenAccounts(ctx, userID); err != nil {
		return domain.ID{}, err
	}

	return userID, nil
}

// LoginUser verifies credentials and starts a session for the resolved user.
func (a *Implementation) LoginUser(ctx context.Context, reg domain.Auth) (domain.Session, error) {
	auth, err := a.authRepo.GetAuth(ctx, reg)
	if err != nil {
		return domain.Session{}, err
	}

	return a.sessions.Start(ctx, auth.UserID)
}
