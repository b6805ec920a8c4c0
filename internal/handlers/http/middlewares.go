package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/domain"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/logger"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/pkg/serviceerrors"
)

type authClient interface {
	Verify(ctx context.Context, token domain.SessionToken) (domain.ID, error)
}

type AuthMiddleware struct {
	auth authClient
}

func NewAuthMiddleware(auth authClient) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// Middleware resolves the request token to a user id. A missing, unknown and
// expired token all produce the same unauthorized response: clients must not
// be able to probe whether a token ever existed.
func (am *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(AuthorizationKey)
		token = strings.TrimPrefix(token, "Bearer ")

		if token == "" {
			c, err := r.Cookie(AuthorizationKey)
			if err != nil {
				writeError(r.Context(), w,
					serviceerrors.NewUnauthorized().Wrap(err, "token not presented"))
				return
			}

			token = c.Value
		}

		userID, err := am.auth.Verify(r.Context(), domain.SessionToken{
			Token: token,
		})
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionExpired) {
				writeError(r.Context(), w,
					serviceerrors.NewUnauthorized().Wrap(err, "invalid session token"))
				return
			}
			writeError(r.Context(), w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

func getUserID(ctx context.Context) (domain.ID, bool) {
	val, ok := ctx.Value(userIDKey).(domain.ID)
	return val, ok
}

// AddLoggerToContextMiddleware places the logger into the request context.
func AddLoggerToContextMiddleware(sugarLogger *zap.SugaredLogger) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ctx = logger.ToContext(ctx, sugarLogger)
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

// RequestMiddleware logs incoming requests.
func RequestMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			defer func() {
				logger.Infof(r.Context(), "request: url: %s; method: %s; processing time: %s",
					r.URL.String(), r.Method, time.Since(start).String())
			}()

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// ResponseMiddleware logs response status and size.
func ResponseMiddleware() func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			updatedWriter := NewWriterWithLogging(w)
			defer func() {
				logger.Infof(r.Context(), "response: status code: %d, datasize: %d bytes",
					updatedWriter.statusCode,
					updatedWriter.responseSize)
			}()

			next.ServeHTTP(updatedWriter, r)
		}

		return http.HandlerFunc(fn)
	}
}

// WriterWithLogging intercepts status and body size for response logging.
type WriterWithLogging struct {
	statusCode   int
	responseSize int

	baseWriter http.ResponseWriter
}

func NewWriterWithLogging(baseWriter http.ResponseWriter) *WriterWithLogging {
	return &WriterWithLogging{
		statusCode: http.StatusOK,
		baseWriter: baseWriter,
	}
}

// Write ...
func (w *WriterWithLogging) Write(b []byte) (int, error) {
	w.responseSize += len(b)
	return w.baseWriter.Write(b)
}

// WriteHeader ...
func (w *WriterWithLogging) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.baseWriter.WriteHeader(statusCode)
}

// Header ...
func (w *WriterWithLogging) Header() http.Header {
	return w.baseWriter.Header()
}
