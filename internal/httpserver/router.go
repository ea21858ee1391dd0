package httpserver

import (
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"passgate/internal/handlers"
	"passgate/internal/metrics"
	"passgate/internal/middleware"
)

// Routes configures where the scoring endpoint is mounted. Both parts
// are normalized so values with or without leading slashes work.
type Routes struct {
	Prefix          string // e.g. "/" or "/pw"
	ScoringEndpoint string // e.g. "_score"
}

// ScorePath returns the full normalized path of the scoring endpoint.
func (ro Routes) ScorePath() string {
	return path.Join("/", ro.Prefix, ro.ScoringEndpoint)
}

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, scoreHandler *handlers.ScoreHandler, routes Routes) {

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())               // panic recovery
	r.Use(middleware.SecureHeaders())           // baseline security headers
	r.Use(middleware.Timeout(15 * time.Second)) // request timeout
	r.Use(middleware.MaxBodySize(64 * 1024))    // 64 KB max body

	// routes
	r.Post(routes.ScorePath(), scoreHandler.Score)

	// health check / warm-up
	r.Get(path.Join("/", routes.Prefix, "_up"), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	r.Handle("/metrics", metrics.Handler())
}
