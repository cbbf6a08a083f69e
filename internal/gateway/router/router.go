// Package router wires the search server routes and applies the middleware
// chain (RequestID, CORS, Metrics, Timeout).
package router

import (
	"net/http"
	"time"

	ingesthandler "github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/handler"
	searchhandler "github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/middleware"
)

// Deps are the handlers and shared components behind the routes. Metrics
// may be nil; Timeout <= 0 disables the timeout middleware and a nil
// IngestLimiter leaves ingestion unlimited.
type Deps struct {
	Search        *searchhandler.Handler
	Ingest        *ingesthandler.Handler
	Health        *health.Checker
	Metrics       *metrics.Metrics
	Timeout       time.Duration
	IngestLimiter *middleware.Limiter
}

// New builds the HTTP handler.
//
// Route table:
//
//	POST   /api/v1/documents                ingest a document (rate limited)
//	GET    /api/v1/documents                ids in insertion order
//	GET    /api/v1/documents/at/{ordinal}   id at an insertion ordinal
//	GET    /api/v1/search                   top documents for a query
//	GET    /api/v1/match                    match a query against every document
//	GET    /api/v1/match/{id}               match a query against one document
//	GET    /api/v1/terms                    inverted index dump
//	GET    /api/v1/stats                    engine statistics
//	GET    /api/v1/cache/stats              result cache counters
//	POST   /api/v1/cache/invalidate         drop cached results
//	GET    /health/live, /health/ready      probes
//
// Middleware chain (outermost first):
//
//	RequestID, CORS, Metrics, Timeout, mux
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", d.Health.LiveHandler())
	mux.HandleFunc("GET /health/ready", d.Health.ReadyHandler())

	var ingest http.Handler = http.HandlerFunc(d.Ingest.Ingest)
	if d.IngestLimiter != nil {
		ingest = middleware.RateLimit(d.IngestLimiter)(ingest)
	}
	mux.Handle("POST /api/v1/documents", ingest)
	mux.HandleFunc("GET /api/v1/documents", d.Search.ListDocuments)
	mux.HandleFunc("GET /api/v1/documents/at/{ordinal}", d.Search.DocumentAt)

	mux.HandleFunc("GET /api/v1/search", d.Search.Search)
	mux.HandleFunc("GET /api/v1/match", d.Search.MatchDocuments)
	mux.HandleFunc("GET /api/v1/match/{id}", d.Search.MatchDocument)
	mux.HandleFunc("GET /api/v1/terms", d.Search.Terms)
	mux.HandleFunc("GET /api/v1/stats", d.Search.Stats)

	mux.HandleFunc("GET /api/v1/cache/stats", d.Search.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", d.Search.CacheInvalidate)

	var chain http.Handler = mux
	if d.Timeout > 0 {
		chain = middleware.Timeout(d.Timeout)(chain)
	}
	if d.Metrics != nil {
		chain = middleware.Metrics(d.Metrics)(chain)
	}
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.RequestID(chain)

	return chain
}
