// Package web is the operator console: a JSON API plus a websocket
// channel that pushes state changes to every connected browser. The
// core rules live in internal/auth and internal/fire; this layer only
// translates requests and fans out results.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rkorell/pyrod/internal/auth"
	"github.com/rkorell/pyrod/internal/config"
	"github.com/rkorell/pyrod/internal/events"
	"github.com/rkorell/pyrod/internal/fire"
	"github.com/rkorell/pyrod/internal/inventory"
	"github.com/rkorell/pyrod/internal/weather"
)

// Server serves the console API and pushes live state over websockets.
type Server struct {
	httpServer *http.Server

	ctrl       *fire.Controller
	authorizer *auth.Authorizer
	store      *inventory.Store // nil when standalone igniters are disabled
	weather    *weather.Client  // nil when no secrets are configured
	audit      events.Publisher
	groups     []config.Group

	// authMu serializes authorization sessions; the receiver transport
	// is not safe for concurrent use.
	authMu sync.Mutex

	hub *hub

	wxMu      sync.Mutex
	wxCached  *weatherJSON
	wxFetched time.Time
}

// Options carries the server's collaborators.
type Options struct {
	Addr       string
	Controller *fire.Controller
	Authorizer *auth.Authorizer
	Store      *inventory.Store
	Weather    *weather.Client
	Audit      events.Publisher
	Groups     []config.Group
}

// New creates a console server.
func New(opts Options) *Server {
	s := &Server{
		ctrl:       opts.Controller,
		authorizer: opts.Authorizer,
		store:      opts.Store,
		weather:    opts.Weather,
		audit:      opts.Audit,
		groups:     opts.Groups,
		hub:        newHub(),
	}
	if s.audit == nil {
		s.audit = events.NopPublisher{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/auth", s.handleAuth)
	mux.HandleFunc("/api/arm", s.handleArm)
	mux.HandleFunc("/api/fire", s.handleFire)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/reset_all", s.handleResetAll)
	mux.HandleFunc("/api/igniters/", s.handleIgniterAvailable)
	mux.HandleFunc("/api/weather", s.handleWeather)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{Addr: opts.Addr, Handler: mux}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut
// down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server and drops all websocket
// clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderConsole(w, s.groups, s.store != nil)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.stateJSON())
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		TimeoutSeconds int `json:"timeout_seconds"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.authMu.TryLock() {
		http.Error(w, "authorization already in progress", http.StatusConflict)
		return
	}
	defer s.authMu.Unlock()

	s.hub.broadcast(map[string]interface{}{"type": "auth_waiting"})

	ok, err := s.authorizer.Authenticate(time.Duration(req.TimeoutSeconds) * time.Second)
	if err != nil {
		// A timeout is a quiet non-success; only system errors are loud.
		log.Printf("web: authorization error: %v", err)
		s.hub.broadcast(map[string]interface{}{"type": "error", "message": err.Error()})
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ok {
		s.ctrl.State().SetAuthorized(true)
		s.publishAudit(events.TypeAuthOK, "", 0, "")
		s.hub.broadcast(map[string]interface{}{"type": "auth_success"})
		s.broadcastState()
	} else {
		s.publishAudit(events.TypeAuthTimeout, "", 0, "")
		s.hub.broadcast(map[string]interface{}{"type": "auth_timeout"})
	}
	writeJSON(w, map[string]bool{"success": ok})
}

func (s *Server) handleArm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.setArmed(req.Enabled)
	writeJSON(w, map[string]bool{"enabled": req.Enabled})
}

func (s *Server) setArmed(enabled bool) {
	s.ctrl.State().SetArmed(enabled)
	typ := events.TypeDisarm
	if enabled {
		typ = events.TypeArm
	}
	s.publishAudit(typ, "", 0, "")
	s.hub.broadcast(map[string]interface{}{"type": "armed_changed", "enabled": enabled})
}

// targetRequest addresses either a grouped channel or a standalone
// igniter.
type targetRequest struct {
	Group   int `json:"group"`
	Channel int `json:"channel"`
	Igniter int `json:"igniter"`
}

func (t targetRequest) target() (fire.Target, error) {
	switch {
	case t.Igniter > 0:
		return fire.DirectTarget(t.Igniter), nil
	case t.Group > 0:
		return fire.GroupTarget(t.Group, t.Channel), nil
	}
	return fire.Target{}, fmt.Errorf("no target in request")
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req targetRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	target, err := req.target()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.fireTarget(target)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"ok": res.OK, "reason": res.Reason, "code": res.Code})
}

// fireTarget runs one fire request and fans out the outcome.
func (s *Server) fireTarget(target fire.Target) (fire.Result, error) {
	res, err := s.ctrl.Fire(target)
	if err != nil {
		log.Printf("web: fire %s failed: %v", target, err)
		s.hub.broadcast(map[string]interface{}{"type": "error", "message": err.Error()})
		return res, err
	}
	if !res.OK {
		s.hub.broadcast(map[string]interface{}{"type": "error", "message": res.Reason})
		return res, nil
	}
	s.publishAudit(events.TypeFire, target.Key(), res.Code, "")
	s.hub.broadcast(map[string]interface{}{"type": "channel_fired", "target": target.Key()})
	return res, nil
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req targetRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	target, err := req.target()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.resetTarget(target)
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) resetTarget(target fire.Target) {
	s.ctrl.Reset(target)
	s.publishAudit(events.TypeReset, target.Key(), 0, "")
	s.hub.broadcast(map[string]interface{}{"type": "channel_reset", "target": target.Key()})
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.resetAll()
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) resetAll() {
	s.ctrl.ResetAll()
	s.publishAudit(events.TypeResetAll, "", 0, "")
	s.broadcastState()
}

// handleIgniterAvailable serves POST /api/igniters/{nr}/available.
func (s *Server) handleIgniterAvailable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "standalone igniters disabled", http.StatusNotFound)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/igniters/")
	nrStr, action, found := strings.Cut(rest, "/")
	if !found || action != "available" {
		http.NotFound(w, r)
		return
	}
	nr, err := strconv.Atoi(nrStr)
	if err != nil {
		http.Error(w, "bad igniter number", http.StatusBadRequest)
		return
	}

	var req struct {
		Available bool `json:"available"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.SetAvailable(nr, req.Available); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.hub.broadcast(map[string]interface{}{
		"type": "igniter_available_changed", "nr": nr, "available": req.Available,
	})
	writeJSON(w, map[string]interface{}{"ok": true, "nr": nr, "available": req.Available})
}

const weatherCacheTTL = 5 * time.Minute

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.weather == nil {
		http.Error(w, "weather not configured", http.StatusNotFound)
		return
	}

	s.wxMu.Lock()
	defer s.wxMu.Unlock()
	if s.wxCached == nil || time.Since(s.wxFetched) > weatherCacheTTL {
		s.wxCached = s.fetchWeather()
		s.wxFetched = time.Now()
	}
	writeJSON(w, s.wxCached)
}

func (s *Server) fetchWeather() *weatherJSON {
	out := &weatherJSON{}
	var problems []string

	obs, err := s.weather.Current()
	if err != nil {
		log.Printf("web: weather current: %v", err)
		problems = append(problems, "current conditions unavailable")
	} else {
		out.Current = obs
	}

	fc, err := s.weather.Forecast(12)
	if err != nil {
		log.Printf("web: weather forecast: %v", err)
		problems = append(problems, "forecast unavailable")
	} else {
		out.Forecast = fc
	}

	out.Error = strings.Join(problems, "; ")
	return out
}

func (s *Server) publishAudit(typ, target string, code uint32, detail string) {
	err := s.audit.Publish(events.Event{
		Timestamp: time.Now(),
		Type:      typ,
		Target:    target,
		Code:      code,
		Detail:    detail,
	})
	if err != nil {
		log.Printf("web: audit publish %s: %v", typ, err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

// decodeBody decodes a JSON request body; an empty body is fine so
// optional parameters stay optional.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || err.Error() == "EOF" {
		return nil
	}
	return fmt.Errorf("bad request body: %w", err)
}
