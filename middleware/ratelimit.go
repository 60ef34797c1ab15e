package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/lunarspired/portfolio-chat/internal/observability"
	"github.com/lunarspired/portfolio-chat/services"
	"go.uber.org/zap"
)

// Limiter is the admission check applied per caller
type Limiter interface {
	Allow(callerID string) bool
	RetryAfter(callerID string) time.Duration
}

// RetryAfterDetail is the rate limit error detail holding the time.Duration
// until the caller may retry
const RetryAfterDetail = "retry_after"

// RateLimit rejects callers over their window quota before the body is read,
// passing services.ErrRateLimitExceeded to onError. The caller identity comes
// from ResolveCaller when present.
func RateLimit(limiter Limiter, metrics observability.Metrics, onError ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID, ok := r.Context().Value(CallerIDKey).(string)
			if !ok || callerID == "" {
				callerID = CallerIdentity(r)
			}

			if !limiter.Allow(callerID) {
				metrics.RecordRateLimited()
				logger.Info("rate limit exceeded",
					zap.String("request_id", chimw.GetReqID(r.Context())),
					zap.String("caller_id", callerID))
				onError(w, services.ErrRateLimitExceeded.Wrap(nil).
					WithDetail(RetryAfterDetail, limiter.RetryAfter(callerID)), logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), callerID)))
		})
	}
}
