package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/thraizz/commander-table/internal/game"
	"go.uber.org/zap"
)

// Engine is the part of game.Engine the transport needs.
type Engine interface {
	CreateSession(ctx context.Context, name string, deckIDs []int64) (*game.Session, error)
	Session(ctx context.Context, sessionID int64) (*game.Session, error)
	SetSessionStatus(ctx context.Context, sessionID int64, status game.SessionStatus) error
	InitializeSession(ctx context.Context, sessionID int64, deckIDs []int64) error
	RestartSession(ctx context.Context, sessionID int64, deckIDs []int64) error
	ExecuteAction(ctx context.Context, sessionID int64, seat int, kind string, metadata json.RawMessage) (int64, error)
	ProjectedState(ctx context.Context, sessionID int64, viewerSeat int) (*game.ProjectedState, error)
	AuditLog(ctx context.Context, sessionID int64, page, pageSize int) (*game.AuditPage, error)
	AuditHistory(ctx context.Context, sessionID int64) ([]*game.Turn, error)
	ArchiveAuditLog(ctx context.Context, sessionID int64, w io.Writer) (int, error)
}

// Server is the HTTP front of the engine.
type Server struct {
	engine   Engine
	router   *mux.Router
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer wires routes and middleware. An empty allowedOrigins list
// accepts websocket upgrades from any origin.
func NewServer(engine Engine, allowedOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		router: mux.NewRouter(),
		logger: logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(RecoveryMiddleware(s.logger), LoggingMiddleware(s.logger))

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions/{id:[0-9]+}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id:[0-9]+}/status", s.handleSetStatus).Methods("PUT")
	api.HandleFunc("/sessions/{id:[0-9]+}/initialize", s.handleInitialize).Methods("POST")
	api.HandleFunc("/sessions/{id:[0-9]+}/restart", s.handleRestart).Methods("POST")
	api.HandleFunc("/sessions/{id:[0-9]+}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id:[0-9]+}/actions", s.handleExecuteAction).Methods("POST")
	api.HandleFunc("/sessions/{id:[0-9]+}/actions", s.handleListActions).Methods("GET")
	api.HandleFunc("/sessions/{id:[0-9]+}/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/sessions/{id:[0-9]+}/archive", s.handleArchive).Methods("GET")
	api.HandleFunc("/sessions/{id:[0-9]+}/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		set[strings.TrimRight(origin, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	respondJSON(w, status, errorBody(err))
}

func badRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Kind: game.KindInvalidMetadata.String()})
}

func sessionID(r *http.Request) int64 {
	// the route pattern only admits digits
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	Name    string  `json:"name"`
	DeckIDs []int64 `json:"deck_ids"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	session, err := s.engine.CreateSession(r.Context(), req.Name, req.DeckIDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.Session(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status game.SessionStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	id := sessionID(r)
	if err := s.engine.SetSessionStatus(r.Context(), id, req.Status); err != nil {
		s.respondError(w, r, err)
		return
	}
	session, err := s.engine.Session(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

type dealRequest struct {
	DeckIDs []int64 `json:"deck_ids"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req dealRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if err := s.engine.InitializeSession(r.Context(), sessionID(r), req.DeckIDs); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req dealRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if err := s.engine.RestartSession(r.Context(), sessionID(r), req.DeckIDs); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetState serves the projected table for ?seat=N. The checksum doubles
// as an ETag so pollers get 304 while nothing changed.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	seat, err := strconv.Atoi(r.URL.Query().Get("seat"))
	if err != nil {
		badRequest(w, "seat query parameter is required")
		return
	}
	view, err := s.engine.ProjectedState(r.Context(), sessionID(r), seat)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	etag := `"` + view.Checksum + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ActionRequest is the body of POST /actions and of websocket action messages.
type ActionRequest struct {
	Seat       int             `json:"seat"`
	ActionType string          `json:"action_type"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// ActionResponse reports the audit row written for an action.
type ActionResponse struct {
	AuditID int64 `json:"audit_id"`
}

func (s *Server) handleExecuteAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	id, err := s.engine.ExecuteAction(r.Context(), sessionID(r), req.Seat, req.ActionType, req.Metadata)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ActionResponse{AuditID: id})
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := queryInt(query.Get("page"), 1)
	pageSize := queryInt(query.Get("page_size"), 0)

	result, err := s.engine.AuditLog(r.Context(), sessionID(r), page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns, err := s.engine.AuditHistory(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if turns == nil {
		turns = []*game.Turn{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": turns})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	// the engine writes straight into the response, so the session is
	// checked first to keep error responses intact
	if _, err := s.engine.Session(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", "attachment; filename=session-"+strconv.FormatInt(id, 10)+".audit.gz")
	if _, err := s.engine.ArchiveAuditLog(r.Context(), id, w); err != nil {
		s.logger.Error("failed to write audit archive", zap.Int64("session_id", id), zap.Error(err))
	}
}

func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
