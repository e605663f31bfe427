package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mycelian/mycelian-journal/internal/api/recovery"
	"github.com/mycelian/mycelian-journal/internal/auth"
	"github.com/mycelian/mycelian-journal/internal/services"
)

const entryIDPattern = "{entryId:[0-9a-fA-F-]{36}}"

// RouterOption configures NewRouter.
type RouterOption func(*routerConfig)

type routerConfig struct {
	authorizer auth.Authorizer
}

// WithAuthorizer requires API keys on the user and analysis routes.
func WithAuthorizer(a auth.Authorizer) RouterOption {
	return func(c *routerConfig) { c.authorizer = a }
}

// NewRouter wires the journal endpoints. health may be nil. Health and
// metrics stay open when an authorizer is set.
func NewRouter(svc *services.JournalService, health ServiceHealth, log zerolog.Logger, opts ...RouterOption) *mux.Router {
	var rc routerConfig
	for _, o := range opts {
		o(&rc)
	}
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware(log))
	router.Use(metricsMiddleware)

	healthHandler := NewHealthHandler(health)
	journalHandler := NewJournalHandler(svc)
	analyzeHandler := NewAnalyzeHandler(svc)

	router.HandleFunc("/v0/health", healthHandler.CheckHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	users := router.PathPrefix("/v0/users/{userId}").Subrouter()
	analyze := router.PathPrefix("/v0/analyze").Subrouter()
	if rc.authorizer != nil {
		users.Use(auth.Middleware(rc.authorizer, log))
		analyze.Use(auth.Middleware(rc.authorizer, log))
	}

	// Entries
	users.HandleFunc("/entries", journalHandler.SubmitEntry).Methods("POST")
	users.HandleFunc("/entries", journalHandler.ListEntries).Methods("GET")
	users.HandleFunc("/entries/"+entryIDPattern, journalHandler.GetEntry).Methods("GET")
	users.HandleFunc("/entries/"+entryIDPattern, journalHandler.DeleteEntry).Methods("DELETE")

	// Read side and guidance
	users.HandleFunc("/history", journalHandler.History).Methods("GET")
	users.HandleFunc("/similar", journalHandler.Similar).Methods("POST")
	users.HandleFunc("/prediction", journalHandler.Prediction).Methods("GET")
	users.HandleFunc("/coping-strategies", journalHandler.CopingStrategies).Methods("POST")
	users.HandleFunc("/intervention-plan", journalHandler.InterventionPlan).Methods("POST")
	users.HandleFunc("/check-in", journalHandler.CheckIn).Methods("POST")

	// Stateless analysis
	analyze.HandleFunc("/text", analyzeHandler.Text).Methods("POST")
	analyze.HandleFunc("/transcript", analyzeHandler.Transcript).Methods("POST")
	analyze.HandleFunc("/frame", analyzeHandler.Frame).Methods("POST")

	return router
}
