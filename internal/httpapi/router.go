// Package httpapi exposes the diagnosis engine and result history over HTTP.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/abhisek/taishitsu/internal/advice"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/store"
)

// Deps holds the services the handlers use. Records, Advice and CSVPath are
// optional.
type Deps struct {
	Engine  *engine.Engine
	Records store.RecordRepo
	Advice  *advice.Service
	// CSVPath receives one row per diagnosis when set.
	CSVPath string
}

// NewRouter creates the API router.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)

	h := &handler{Deps: d}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/diagnose", h.Diagnose).Methods(http.MethodPost)
	api.HandleFunc("/catalog", h.Catalog).Methods(http.MethodGet)
	api.HandleFunc("/results", h.Results).Methods(http.MethodGet)
	api.HandleFunc("/results/{id}", h.Result).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	api.HandleFunc("/export.csv", h.Export).Methods(http.MethodGet)

	// Subrouters do not inherit these, so both levels get them.
	for _, m := range []*mux.Router{r, api} {
		m.NotFoundHandler = http.HandlerFunc(notFound)
		m.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}
	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type handler struct {
	Deps
}
