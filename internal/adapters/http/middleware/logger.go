package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HTTPObserver recebe a duração de cada requisição; implementado pelo adapter de métricas.
type HTTPObserver interface {
	ObserveHTTPRequest(method, route, status string, elapsed time.Duration)
}

// Logger registra cada requisição com zap e, se houver observer, alimenta as métricas HTTP.
func Logger(log *zap.Logger, observer HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", elapsed),
				zap.String("identity", ExtractIdentity(r)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)

			if observer != nil {
				observer.ObserveHTTPRequest(r.Method, route, strconv.Itoa(status), elapsed)
			}
		})
	}
}
