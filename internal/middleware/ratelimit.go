package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewRateLimiter returns a middleware that limits each client to rate, given
// in ulule/limiter's formatted form ("100-S", "1000-H"). Clients are keyed by
// acting user when NewActingUser has run, otherwise by remote IP. Counters are
// kept in process memory, so each replica limits independently.
func NewRateLimiter(rate string) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("middleware.NewRateLimiter: %w", err)
	}

	mw := stdlibmw.NewMiddleware(limiter.New(memory.NewStore(), parsed),
		stdlibmw.WithKeyGetter(rateLimitKey),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}),
	)
	return mw.Handler, nil
}

func rateLimitKey(r *http.Request) string {
	if id, ok := UserIDFrom(r.Context()); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
