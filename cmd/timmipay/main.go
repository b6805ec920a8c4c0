package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/config"
	handlers "github.com/Glow-in-active/TimmiPay-Backend/internal/handlers/http"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/logger"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/token"
	authStorePkg "github.com/Glow-in-active/TimmiPay-Backend/internal/store/postgres/auth"
	financeStorePkg "github.com/Glow-in-active/TimmiPay-Backend/internal/store/postgres/finance"
	sessionStorePkg "github.com/Glow-in-active/TimmiPay-Backend/internal/store/redis/session"
	financeUC "github.com/Glow-in-active/TimmiPay-Backend/internal/usecases/finance"
	sessionUC "github.com/Glow-in-active/TimmiPay-Backend/internal/usecases/session"
	userUC "github.com/Glow-in-active/TimmiPay-Backend/internal/usecases/user"
)

func main() {
	if err := initService(); err != nil {
		log.Fatal(err)
	}
}

func initService() error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	l := logger.New()
	defer func() {
		_ = l.Sync()
	}()

	postgresConn, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer postgresConn.Close()
	if err = postgresConn.Ping(ctx); err != nil {
		return err
	}

	redisConn := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() {
		_ = redisConn.Close()
	}()
	if err = redisConn.Ping(ctx).Err(); err != nil {
		return err
	}

	authStore, err := authStorePkg.NewImplementation(ctx, postgresConn)
	if err != nil {
		return err
	}

	financeStore, err := financeStorePkg.NewImplementation(ctx, postgresConn)
	if err != nil {
		return err
	}

	sessionStore := sessionStorePkg.NewImplementation(redisConn)

	sessions := sessionUC.NewImplementation(token.NewGenerator(), sessionStore,
		sessionUC.Options{
			TTL:          cfg.SessionTTL,
			RotateOnHold: cfg.SessionRotateOnHold,
		})

	users := userUC.NewImplementation(authStore, sessions, financeStore)

	finances := financeUC.NewImplementation(financeStore, financeUC.Options{
		Retries:         cfg.TransferRetries,
		Backoff:         cfg.TransferRetryBackoff,
		HistoryPageSize: cfg.HistoryPageSize,
	})

	h := handlers.NewImplementation(users, sessions, finances)
	am := handlers.NewAuthMiddleware(sessions)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handlers.NewRouter(h, am, l),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	l.Infof("listening on %s", cfg.HTTPAddr)

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err = <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	l.Info("stopped")

	return nil
}
