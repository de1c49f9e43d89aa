package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"arena/internal/game"
	"arena/internal/session"
	"arena/internal/storage"
)

// Server is the HTTP server.
type Server struct {
	mux     *http.ServeMux
	manager *session.Manager
	log     *zap.Logger
}

// New creates a server with all routes.
func New(manager *session.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mux:     http.NewServeMux(),
		manager: manager,
		log:     logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/variants", s.handleVariants)
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("POST /api/games", s.handleCreateGame)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	s.mux.HandleFunc("DELETE /api/games/{id}", s.handleDeleteGame)
	s.mux.HandleFunc("POST /api/games/{id}/start", s.handleStartGame)
	s.mux.HandleFunc("POST /api/games/{id}/abort", s.handleAbortGame)
	s.mux.HandleFunc("GET /api/games/{id}/legal-actions", s.handleLegalActions)
	s.mux.HandleFunc("POST /api/games/{id}/actions", s.handleAction)
	s.mux.HandleFunc("POST /api/games/{id}/ai-move", s.handleAIMove)
	s.mux.HandleFunc("GET /api/games/{id}/moves", s.handleMoves)
	s.mux.HandleFunc("GET /api/games/{id}/ws", s.handleWebSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Variants())
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	status := game.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}
	games, err := s.manager.List(r.Context(), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

type createGameRequest struct {
	Variant string   `json:"variant"`
	Players []string `json:"players"`
	Seed    uint64   `json:"seed"`
	Start   bool     `json:"start"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	variant := game.Variant(strings.ToLower(strings.TrimSpace(req.Variant)))
	if !s.knownVariant(variant) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown variant"})
		return
	}
	players := make([]string, len(req.Players))
	for i, p := range req.Players {
		players[i] = strings.TrimSpace(p)
	}

	g, err := s.manager.Create(r.Context(), session.CreateRequest{
		Variant: variant,
		Players: players,
		Seed:    req.Seed,
		Start:   req.Start,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) knownVariant(v game.Variant) bool {
	for _, info := range s.manager.Variants() {
		if info.Variant == v {
			return true
		}
	}
	return false
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	v, err := s.manager.View(r.Context(), r.PathValue("id"), r.URL.Query().Get("player"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	g, err := s.manager.Start(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcastState(r.Context(), id)
	writeJSON(w, http.StatusOK, g)
}

type abortRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleAbortGame(w http.ResponseWriter, r *http.Request) {
	var req abortRequest
	// The body is optional.
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "aborted by request"
	}
	id := r.PathValue("id")
	g, err := s.manager.Abort(r.Context(), id, req.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcastState(r.Context(), id)
	writeJSON(w, http.StatusOK, g)
}

type legalActionsResponse struct {
	Actions []game.Action `json:"actions"`
}

func (s *Server) handleLegalActions(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "player required"})
		return
	}
	actions, err := s.manager.LegalActions(r.Context(), r.PathValue("id"), player)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, legalActionsResponse{Actions: actions})
}

// actionRequest carries either a full action or a chess move in UCI form.
type actionRequest struct {
	PlayerID string       `json:"playerId"`
	Action   *game.Action `json:"action,omitempty"`
	Move     string       `json:"move,omitempty"`
}

func (req actionRequest) resolve() (game.Action, error) {
	switch {
	case req.Action != nil && req.Move == "":
		return *req.Action, nil
	case req.Action == nil && req.Move != "":
		m, err := game.ParseUCI(req.Move)
		if err != nil {
			return game.Action{}, err
		}
		return game.Action{Chess: &m}, nil
	}
	return game.Action{}, errors.New("exactly one of action and move is required")
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.PlayerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "playerId required"})
		return
	}
	a, err := req.resolve()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id := r.PathValue("id")
	res, err := s.manager.Submit(r.Context(), id, req.PlayerID, a)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcastState(r.Context(), id)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAIMove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := s.manager.SuggestMove(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcastState(r.Context(), id)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	moves, err := s.manager.Moves(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moves)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotPlayer):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNoSuggester):
		return http.StatusNotImplemented
	case errors.Is(err, game.ErrIllegalAction), errors.Is(err, game.ErrInvalidPlayerCount):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrOutOfTurn), errors.Is(err, game.ErrGameFinished),
		errors.Is(err, storage.ErrStaleSnapshot):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		// Corrupt or unreadable games are reported, never reset.
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
