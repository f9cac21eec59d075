// Package monitoring serves a simulation run over HTTP: its state, trace,
// process flow, summary statistics and pools.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/servsim/sim"
	"github.com/inference-sim/servsim/sim/trace"
)

// RunView is the read-only view of a run that the server exposes.
// *sim.Simulator implements it.
type RunView interface {
	RunID() string
	State() sim.RunState
	Clock() int64
	Horizon() int64
	Metrics() *sim.Metrics
	PoolStatuses() []sim.PoolStatus
	Records() []trace.ActivityRecord
}

var _ RunView = (*sim.Simulator)(nil)

// Server exposes a registered run as a JSON API.
type Server struct {
	lock       sync.RWMutex
	run        RunView
	portNumber int
	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates a Server with a random port.
func NewServer() *Server {
	s := &Server{}
	s.router = s.routes()
	return s
}

// WithPortNumber sets the port number. Ports below 1000 are replaced by a
// random port.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}
	s.portNumber = portNumber
	return s
}

// RegisterRun sets the run served by the API, replacing any previous one.
func (s *Server) RegisterRun(run RunView) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.run = run
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/run", s.runInfo).Methods(http.MethodGet)
	api.HandleFunc("/trace", s.traceRecords).Methods(http.MethodGet)
	api.HandleFunc("/trace/{entity}", s.entityRecords).Methods(http.MethodGet)
	api.HandleFunc("/flow", s.flow).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.summary).Methods(http.MethodGet)
	api.HandleFunc("/pools", s.pools).Methods(http.MethodGet)
	return r
}

// Start listens on the configured port and serves in the background.
// It returns the address actually bound.
func (s *Server) Start() (net.Addr, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(s.portNumber))
	if err != nil {
		return nil, err
	}
	s.httpServer = &http.Server{Handler: s.router}

	fmt.Fprintf(os.Stderr,
		"Monitoring simulation with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("monitoring server stopped: %v", err)
		}
	}()
	return listener.Addr(), nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// currentRun returns the registered run, or writes 503 and returns nil.
func (s *Server) currentRun(w http.ResponseWriter) RunView {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.run == nil {
		http.Error(w, "no run registered", http.StatusServiceUnavailable)
		return nil
	}
	return s.run
}

type runResponse struct {
	RunID      string  `json:"run_id"`
	State      string  `json:"state"`
	Clock      int64   `json:"clock"`
	Horizon    int64   `json:"horizon"`
	Arrived    int     `json:"arrived"`
	Completed  int     `json:"completed"`
	Balked     int     `json:"balked"`
	Reneged    int     `json:"reneged"`
	Unfinished int     `json:"unfinished"`
	MeanWait   float64 `json:"mean_wait"`
	MaxWait    int64   `json:"max_wait"`
}

func (s *Server) runInfo(w http.ResponseWriter, _ *http.Request) {
	run := s.currentRun(w)
	if run == nil {
		return
	}
	m := run.Metrics()
	writeJSON(w, runResponse{
		RunID:      run.RunID(),
		State:      string(run.State()),
		Clock:      run.Clock(),
		Horizon:    run.Horizon(),
		Arrived:    m.Arrived,
		Completed:  m.Completed,
		Balked:     m.Balked,
		Reneged:    m.Reneged,
		Unfinished: m.Unfinished,
		MeanWait:   m.MeanWait(),
		MaxWait:    m.MaxWait,
	})
}

// traceRecords returns the trace, optionally filtered by ?kind= and ?server=.
func (s *Server) traceRecords(w http.ResponseWriter, r *http.Request) {
	run := s.currentRun(w)
	if run == nil {
		return
	}
	kind := trace.RecordKind(r.URL.Query().Get("kind"))
	server := r.URL.Query().Get("server")

	out := make([]trace.ActivityRecord, 0)
	for _, rec := range run.Records() {
		if kind != "" && rec.Kind != kind {
			continue
		}
		if server != "" && rec.Server != server {
			continue
		}
		out = append(out, rec)
	}
	writeJSON(w, out)
}

func (s *Server) entityRecords(w http.ResponseWriter, r *http.Request) {
	run := s.currentRun(w)
	if run == nil {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["entity"])
	if err != nil {
		http.Error(w, "entity must be an integer", http.StatusBadRequest)
		return
	}

	out := make([]trace.ActivityRecord, 0)
	for _, rec := range run.Records() {
		if rec.EntityID == id {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		http.Error(w, fmt.Sprintf("no records for entity %d", id), http.StatusNotFound)
		return
	}
	writeJSON(w, out)
}

func (s *Server) flow(w http.ResponseWriter, _ *http.Request) {
	run := s.currentRun(w)
	if run == nil {
		return
	}
	writeJSON(w, trace.Flow(run.Records()))
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	run := s.currentRun(w)
	if run == nil {
		return
	}
	writeJSON(w, trace.Summarize(run.Records()))
}

func (s *Server) pools(w http.ResponseWriter, _ *http.Request) {
	run := s.currentRun(w)
	if run == nil {
		return
	}
	writeJSON(w, run.PoolStatuses())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("encoding response: %v", err)
	}
}
