package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cuemby/foreman/pkg/cost"
	"github.com/cuemby/foreman/pkg/metrics"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/cuemby/foreman/pkg/workitem"
)

// ShutdownTimeout bounds how long Server.Shutdown waits for in-flight
// requests to drain.
const ShutdownTimeout = 5 * time.Second

var errMissingGoal = errors.New("missing required query parameter: goal")

// Server serves read-only summaries of the workspace's current state.
// Every handler opens its own short-lived store read; nothing here
// mutates state.
type Server struct {
	store *store.Store
	items *workitem.Engine
	costs *cost.Pipeline
	mux   *http.ServeMux
}

// New builds a Server. The returned http.Handler is ready to mount under
// http.Server.Handler or to embed in a larger mux.
func New(s *store.Store, items *workitem.Engine, costs *cost.Pipeline) *Server {
	d := &Server{store: s, items: items, costs: costs, mux: http.NewServeMux()}
	d.mux.HandleFunc("/healthz", d.healthz)
	d.mux.HandleFunc("/api/goals", d.goals)
	d.mux.HandleFunc("/api/items", d.workItems)
	d.mux.HandleFunc("/api/workers", d.workers)
	d.mux.HandleFunc("/api/budget", d.budget)
	d.mux.Handle("/metrics", metrics.Handler())
	return d
}

func (d *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { d.mux.ServeHTTP(w, r) }

func (d *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d *Server) goals(w http.ResponseWriter, r *http.Request) {
	goals, err := store.All[types.Goal, *types.Goal](d.store, store.Goals)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (d *Server) workItems(w http.ResponseWriter, r *http.Request) {
	goalID := r.URL.Query().Get("goal")
	var items []*types.WorkItem
	var err error
	if goalID != "" {
		items, err = d.items.ListByGoal(goalID)
	} else {
		items, err = d.items.List()
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (d *Server) workers(w http.ResponseWriter, r *http.Request) {
	workers, err := store.All[types.Worker, *types.Worker](d.store, store.Workers)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

func (d *Server) budget(w http.ResponseWriter, r *http.Request) {
	goalID := r.URL.Query().Get("goal")
	if goalID == "" {
		httpError(w, errMissingGoal)
		return
	}
	status, err := d.costs.Check(goalID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
