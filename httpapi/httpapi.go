// Package httpapi exposes the recording session lifecycle over HTTP and
// the signaling plane over a websocket upgrade, translating between wire
// payloads and the session/hub packages' own types.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/coursecast/coursecast/authz"
	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/hub"
	"github.com/coursecast/coursecast/session"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Server wires the HTTP surface to a session Manager and a signaling Hub;
// both are passed in explicitly, never reached through package globals.
type Server struct {
	manager  *session.Manager
	hub      *hub.Hub
	roomCfg  config.RoomConfig
	upgrader websocket.Upgrader
}

// New builds a Server. allowedOrigins governs the websocket upgrade's
// CheckOrigin, matching the reference server's origin allowlist.
func New(manager *session.Manager, h *hub.Hub, roomCfg config.RoomConfig, allowedOrigins []string) *Server {
	return &Server{
		manager: manager,
		hub:     h,
		roomCfg: roomCfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return len(allowedOrigins) == 0
			},
		},
	}
}

// Router builds the mux.Router serving the recording and signaling API
// under prefix (empty for root-mounted).
func (s *Server) Router(prefix string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(prefix+"/sessions", s.beginRecording).Methods(http.MethodPost)
	r.HandleFunc(prefix+"/sessions/{id}", s.stopRecording).Methods(http.MethodDelete)
	r.HandleFunc(prefix+"/ws/{room_id}", s.websocketHandler)
	return r
}

type beginRequest struct {
	PrincipalID string `json:"principal_id"`
	Role        string `json:"role"`
	DivisionID  string `json:"division_id"`
	SDPOffer    string `json:"sdp_offer"`
}

type beginResponse struct {
	SessionID string `json:"session_id"`
	SDPAnswer string `json:"sdp_answer"`
}

func (s *Server) beginRecording(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	principal := authz.Principal{ID: req.PrincipalID, Role: authz.Role(req.Role)}
	sessionID, answer, err := s.manager.Begin(r.Context(), principal, req.DivisionID, req.SDPOffer)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(beginResponse{SessionID: sessionID, SDPAnswer: answer})
}

func (s *Server) stopRecording(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.manager.End(r.Context(), id); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeSessionError maps a session.Error's Kind onto the HTTP status code
// the client should act on; anything not a *session.Error is treated as
// internal, since it means a bug rather than an expected failure mode.
func writeSessionError(w http.ResponseWriter, err error) {
	serr, ok := err.(*session.Error)
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	switch serr.Kind {
	case session.BadOffer:
		http.Error(w, serr.Error(), http.StatusBadRequest)
	case session.Authorization:
		http.Error(w, serr.Error(), http.StatusForbidden)
	case session.NotFound:
		http.Error(w, serr.Error(), http.StatusNotFound)
	case session.Transport, session.EncoderFailure:
		http.Error(w, serr.Error(), http.StatusBadGateway)
	default:
		http.Error(w, serr.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]

	unsafeConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Str("context", "httpapi").Err(err).Msg("ws_upgrade_failed")
		return
	}

	hub.RunConnection(roomID, unsafeConn, s.hub, s.roomCfg) // blocking
}
