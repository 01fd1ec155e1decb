// Package api provides the HTTP API for playing The Daily Decree.
// Game endpoints are public; deleting and importing saves require a bearer
// token when one is configured.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/daily-decree/internal/game"
	"github.com/talgya/daily-decree/internal/llm"
	"github.com/talgya/daily-decree/internal/newspaper"
)

const maxImportBytes = 10 << 20

// Server serves game sessions over HTTP.
type Server struct {
	Games    *game.Manager
	Limiter  *llm.RateLimiter
	Port     int
	AdminKey string   // Bearer token for save deletion and import. Empty = open.
	Origins  []string // Extra CORS origins besides the localhost dev servers.
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/countries", s.handleCountries)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Sessions.
	mux.HandleFunc("POST /api/v1/games", s.handleNewGame)
	mux.HandleFunc("GET /api/v1/games/{id}", s.withSession(s.handleGetGame))
	mux.HandleFunc("DELETE /api/v1/games/{id}", s.handleExitGame)
	mux.HandleFunc("POST /api/v1/games/{id}/actions", s.withSession(s.handleAction))
	mux.HandleFunc("POST /api/v1/games/{id}/advisors", s.withSession(s.handleAdvisors))
	mux.HandleFunc("GET /api/v1/games/{id}/diplomacy/{country}", s.withSession(s.handleDiplomacy))
	mux.HandleFunc("GET /api/v1/games/{id}/history", s.withSession(s.handleHistory))
	mux.HandleFunc("POST /api/v1/games/{id}/save", s.withSession(s.handleSave))
	mux.HandleFunc("GET /api/v1/games/{id}/export", s.withSession(s.handleExport))
	mux.HandleFunc("POST /api/v1/games/{id}/restart", s.handleRestart)

	// Saved games.
	mux.HandleFunc("GET /api/v1/saves", s.handleListSaves)
	mux.HandleFunc("POST /api/v1/saves/import", s.adminOnly(s.handleImport))
	mux.HandleFunc("POST /api/v1/saves/{id}/load", s.handleLoad)
	mux.HandleFunc("DELETE /api/v1/saves/{id}", s.adminOnly(s.handleDeleteSave))

	return corsMiddleware(s.Origins, mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, Retry-After")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth when AdminKey is set.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *game.Session)

// withSession resolves the {id} path value to a live session.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Games.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, sess)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"name":     newspaper.DefaultNewspaperName,
		"sessions": s.Games.Count(),
	}
	if s.Limiter != nil {
		status["requests_remaining"] = s.Limiter.Remaining()
	}
	writeJSON(w, status)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	type country struct {
		Code    newspaper.Country `json:"code"`
		Context string            `json:"context"`
	}
	out := make([]country, len(newspaper.Countries))
	for i, c := range newspaper.Countries {
		out[i] = country{Code: c, Context: c.Context()}
	}
	writeJSON(w, out)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Country    string `json:"country"`
		LeaderName string `json:"leaderName"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	country, err := newspaper.ParseCountry(req.Country)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := s.Games.NewGame(r.Context(), country, req.LeaderName, logProgress(country))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sess.View())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	writeJSON(w, sess.View())
}

func (s *Server) handleExitGame(w http.ResponseWriter, r *http.Request) {
	if err := s.Games.Exit(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.Games.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	fresh, err := s.Games.Restart(r.Context(), id, logProgress(sess.Country))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, fresh.View())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	var req struct {
		Action string `json:"action"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if _, err := sess.SubmitAction(r.Context(), req.Action); err != nil {
		writeError(w, err)
		return
	}
	// Auto-save after every completed turn.
	if err := s.Games.Save(context.WithoutCancel(r.Context()), sess); err != nil {
		slog.Warn("auto-save failed", "session", sess.ID, "error", err)
	}
	writeJSON(w, sess.View())
}

func (s *Server) handleAdvisors(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	var req struct {
		Question string `json:"question"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	advice, err := sess.ConsultAdvisors(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	if advice == nil {
		advice = []newspaper.AdvisorOpinion{}
	}
	writeJSON(w, map[string]any{"advice": advice})
}

func (s *Server) handleDiplomacy(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	rec, err := sess.LookupCountry(r.Context(), r.PathValue("country"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	writeJSON(w, sess.View().History)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	if err := s.Games.Save(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sess.Snapshot().Metadata)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	data, name, err := s.Games.Export(sess)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Write(data)
}

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := s.Games.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, saves)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	meta, err := s.Games.Import(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, meta)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Games.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sess.View())
}

func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	if err := s.Games.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func logProgress(country newspaper.Country) game.Progress {
	return func(status string, percent int) {
		slog.Debug("new game progress", "country", country, "status", status, "percent", percent)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var all *llm.AllProvidersFailedError
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrSaveNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrTurnInProgress), errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, game.ErrSaveCorrupt):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrEmptyAction), errors.Is(err, game.ErrEmptyCountry):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.As(err, &all), errors.Is(err, llm.ErrInvalidResponse):
		return http.StatusBadGateway
	case errors.Is(err, llm.ErrProviderTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	var rle *llm.RateLimitError
	if errors.As(err, &rle) {
		w.Header().Set("Retry-After", strconv.Itoa(rle.Seconds()))
	}
	if code >= 500 {
		slog.Error("request failed", "status", code, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
