// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext devolve a identidade usada pelo rate limiter nesta requisição.
func IdentityFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(identityKey).(string); ok {
		return v
	}
	return domain.UnknownIdentity
}

func NewRateLimiterMiddleware(limiter ports.RateLimiter, metrics ports.Metrics, log *zap.Logger) func(http.Handler) http.Handler {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := ExtractIdentity(r)
			r = r.WithContext(context.WithValue(r.Context(), identityKey, identity))

			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(r.Context(), identity)
			if err != nil && !domain.IsRateLimitedError(err) {
				log.Error("rate limiter failed", zap.String("identity", identity), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
				return
			}

			setRateLimitHeaders(w, decision)

			if !decision.Allowed {
				metrics.IncRateLimitRejection()
				writeTooManyRequests(w, decision)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ExtractIdentity usa o primeiro IP de X-Forwarded-For, depois Client-IP e X-Real-IP.
func ExtractIdentity(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	for _, header := range []string{"Client-IP", "X-Real-IP"} {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return v
		}
	}
	return domain.UnknownIdentity
}

func setRateLimitHeaders(w http.ResponseWriter, d domain.Decision) {
	if d.Limit <= 0 {
		return
	}
	h := w.Header()
	h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		reset := int(math.Ceil(time.Until(d.ResetAt).Seconds()))
		if reset < 0 {
			reset = 0
		}
		h.Set("RateLimit-Reset", strconv.Itoa(reset))
	}
}

func writeTooManyRequests(w http.ResponseWriter, d domain.Decision) {
	seconds := int(d.RetryAfter / time.Second)
	minutes := int(d.RetryAfter / time.Minute)
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"message":    fmt.Sprintf("Rate limit exceeded. Try again in %d minutes.", minutes),
		"retryAfter": seconds,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
