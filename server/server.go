// Package server exposes the wikiforce web UI and JSON API: article query,
// layout snapshots, drag and view updates, SVG rendering, and Prometheus
// metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TFMV/wikiforce/graph"
	"github.com/TFMV/wikiforce/interaction"
	"github.com/TFMV/wikiforce/metrics"
	"github.com/TFMV/wikiforce/models"
	"github.com/TFMV/wikiforce/physics"
	"github.com/TFMV/wikiforce/provider"
	"github.com/TFMV/wikiforce/render"
)

// maxSettleTicks bounds the synchronous settle loop for one query.
const maxSettleTicks = 1000

// Config holds the server settings.
type Config struct {
	Port      int
	Seed      int64
	DebugMode bool
}

// session is one article query: its graph, simulation, and controller.
// A new query replaces the session wholesale; the old simulation is
// discarded, never resumed.
type session struct {
	graph      *models.Graph
	sim        *physics.Simulation
	controller *interaction.Controller
	mu         sync.Mutex
}

// Server wires the provider, the layout engine, and HTTP together.
type Server struct {
	config   Config
	client   *provider.Client
	params   func() models.Parameters
	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a server. params supplies the current parameter set per
// query, so config hot reloads apply to new graphs without restart.
func New(config Config, client *provider.Client, params func() models.Parameters) *Server {
	if params == nil {
		params = models.DefaultParameters
	}
	return &Server{
		config:   config,
		client:   client,
		params:   params,
		sessions: make(map[string]*session),
	}
}

// Start launches the web server.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/graph", s.handleGraph)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/drag", s.handleDrag)
	mux.HandleFunc("/api/view", s.handleView)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/visualize", s.handleVisualize)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting server on port %d...", s.config.Port)
	return srv.ListenAndServe()
}

// newSession fetches an article, builds its graph, and runs the simulation
// to a settled layout.
func (s *Server) newSession(ctx context.Context, ref string) (string, *session, error) {
	title, err := provider.ParseArticleRef(ref)
	if err != nil {
		return "", nil, err
	}

	article, err := s.client.Fetch(ctx, title)
	if err != nil {
		return "", nil, err
	}

	g, err := graph.FromArticle(article)
	if err != nil {
		return "", nil, err
	}

	sim := physics.New(s.params(), s.config.Seed+time.Now().UnixNano())
	sim.Load(g)
	metrics.SimulationsStarted.Inc()

	start := time.Now()
	ticks := 0
	for i := 0; i < maxSettleTicks; i++ {
		ticks++
		metrics.TicksTotal.Inc()
		if sim.Tick() {
			break
		}
	}
	metrics.SettleDuration.Observe(time.Since(start).Seconds())
	metrics.SettleTicks.Observe(float64(ticks))

	sess := &session{
		graph:      g,
		sim:        sim,
		controller: interaction.NewController(sim),
	}
	id := uuid.New().String()

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return id, sess, nil
}

// ApplyParameters pushes a new parameter set into every live session,
// re-energizing settled layouts. Used by the config hot reload path.
func (s *Server) ApplyParameters(p models.Parameters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if err := sess.sim.SetParameters(p); err != nil {
			log.Printf("Skipping parameter update for session %s: %v", id, err)
		}
	}
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		http.Error(w, "missing ref parameter", http.StatusBadRequest)
		return
	}

	id, sess, err := s.newSession(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"id":       id,
		"title":    sess.graph.Title,
		"nodes":    sess.graph.Nodes,
		"edges":    sess.graph.Edges,
		"snapshot": sess.sim.Snapshot(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.URL.Query().Get("id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, sess.sim.Snapshot())
}

// handleDrag applies one pointer event and advances the simulation one
// tick so the response reflects the pin.
func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	sess, ok := s.session(q.Get("id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	nodeID := q.Get("node")
	x := parseFloat(q.Get("x"))
	y := parseFloat(q.Get("y"))

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch q.Get("phase") {
	case "begin":
		sess.controller.BeginDrag(nodeID, x, y)
	case "move":
		sess.controller.UpdateDrag(nodeID, x, y)
	case "end":
		sess.controller.EndDrag(nodeID)
	default:
		http.Error(w, "phase must be begin, move, or end", http.StatusBadRequest)
		return
	}

	metrics.TicksTotal.Inc()
	sess.sim.Tick()
	writeJSON(w, sess.sim.Snapshot())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	sess, ok := s.session(q.Get("id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch q.Get("op") {
	case "pan":
		sess.controller.Pan(parseFloat(q.Get("dx")), parseFloat(q.Get("dy")))
	case "zoom":
		sess.controller.ZoomAt(parseFloat(q.Get("factor")), parseFloat(q.Get("x")), parseFloat(q.Get("y")))
	case "reset":
		sess.controller.Reset()
	default:
		http.Error(w, "op must be pan, zoom, or reset", http.StatusBadRequest)
		return
	}
	writeJSON(w, sess.controller.View())
}

// handleParams replaces a session's parameter set wholesale, which
// re-energizes a settled simulation.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, ok := s.session(r.URL.Query().Get("id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	var params models.Parameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid parameters: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.sim.SetParameters(params); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"alpha": sess.sim.Alpha(), "state": sess.sim.State().String()})
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var sess *session
	if id := q.Get("id"); id != "" {
		var ok bool
		sess, ok = s.session(id)
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
	} else if ref := q.Get("ref"); ref != "" {
		var err error
		_, sess, err = s.newSession(r.Context(), ref)
		if err != nil {
			writeError(w, err)
			return
		}
	} else {
		http.Error(w, "missing id or ref parameter", http.StatusBadRequest)
		return
	}

	format := q.Get("format")
	if format == "" {
		format = "svg"
	}
	renderer, err := render.GetRenderer(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	options := render.NewDefaultOptions(format)
	options.View = sess.controller.View()
	if v := q.Get("noise"); v != "" {
		options.NoiseIntensity = parseFloat(v)
	}
	if v := q.Get("width"); v != "" {
		options.Width = parseFloat(v)
	}
	if v := q.Get("height"); v != "" {
		options.Height = parseFloat(v)
	}

	sess.mu.Lock()
	output, err := renderer.Render(sess.graph, options)
	sess.mu.Unlock()
	if err != nil {
		http.Error(w, "rendering failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	switch format {
	case "svg":
		w.Header().Set("Content-Type", "image/svg+xml")
	case "json":
		w.Header().Set("Content-Type", "application/json")
	}
	w.Write(output)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case isMalformed(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case isNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
