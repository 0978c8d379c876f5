package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"battleship-leap/internal/app"
	"battleship-leap/internal/codec"
	"battleship-leap/internal/state"
	"battleship-leap/web"
)

// MatchFactory builds a fresh match for /v1/reset.
type MatchFactory func() (*app.Match, error)

// Server exposes one match over HTTP and websockets. Events from any
// client are applied in arrival order and their effects are pushed to every
// connected socket.
type Server struct {
	mu       sync.Mutex
	match    *app.Match
	newMatch MatchFactory
	log      *zap.Logger

	upgrader websocket.Upgrader
	hub      *hub

	// Milliseconds since epoch when this server booted.
	startAt int64
}

func New(newMatch MatchFactory, allowedOrigins []string, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m, err := newMatch()
	if err != nil {
		return nil, err
	}
	s := &Server{
		match:    m,
		newMatch: newMatch,
		log:      log,
		hub:      newHub(log),
		startAt:  time.Now().UnixMilli(),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return s, nil
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[strings.ToLower(origin)]
	}
}

func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/boards/{side}", s.handleBoard).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvent).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	v1.HandleFunc("/commitment", s.handleCommitment).Methods(http.MethodGet)
	v1.HandleFunc("/verify", s.handleVerify).Methods(http.MethodPost, http.MethodOptions)

	// Serve embedded GUI at /
	r.PathPrefix("/").Handler(web.Handler()).Methods(http.MethodGet)
	return r
}

// Handler is Routes wrapped with CORS.
func (s *Server) Handler() http.Handler { return WithCORS(s.Routes()) }

// Close disconnects every websocket client.
func (s *Server) Close() { s.hub.closeAll() }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// apply runs one event through the match and fans the effects out to the
// sockets. Broadcasting under the lock keeps sockets in apply order.
func (s *Server) apply(ev app.Event) ([]EffectMsg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fx, err := s.match.Apply(ev)
	if err != nil {
		s.log.Error("apply event", zap.Error(err))
	}
	msgs := wrapEffects(fx)
	if len(msgs) > 0 {
		s.hub.broadcast(socketMsg{Effects: msgs})
	}
	return msgs, err
}

// === Status ===

type statusPayload struct {
	StartedAt int64 `json:"startedAt"`
	app.Status
}

func (s *Server) status() statusPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statusPayload{StartedAt: s.startAt, Status: s.match.Status()}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	st := s.status()
	switch mux.Vars(r)["side"] {
	case state.Player.String():
		writeJSON(w, http.StatusOK, st.Player)
	case state.CPU.String():
		writeJSON(w, http.StatusOK, st.CPU)
	default:
		writeError(w, http.StatusNotFound, "unknown side")
	}
}

// === Events ===

type eventResp struct {
	Effects []EffectMsg   `json:"effects"`
	Status  statusPayload `json:"status"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var msg EventMsg
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	ev, err := msg.Event()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fx, err := s.apply(ev)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, eventResp{Effects: fx, Status: s.status()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	m, err := s.newMatch()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.mu.Lock()
	s.match = m
	st := statusPayload{StartedAt: s.startAt, Status: m.Status()}
	s.hub.broadcast(socketMsg{Effects: []EffectMsg{{Type: "phaseChanged", Effect: app.PhaseChanged{Phase: st.Phase}}}})
	s.mu.Unlock()
	s.log.Info("match reset")

	writeJSON(w, http.StatusOK, st)
}

// === Fair play ===

func (s *Server) commitment() (codec.Commitment, error) {
	s.mu.Lock()
	fair := s.match.FairPlay()
	s.mu.Unlock()
	if fair == nil {
		return codec.Commitment{}, errFairPlayDisabled
	}
	return fair.Commitment()
}

var errFairPlayDisabled = errors.New("fair play is disabled")

func (s *Server) handleCommitment(w http.ResponseWriter, r *http.Request) {
	cm, err := s.commitment()
	if errors.Is(err, errFairPlayDisabled) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cm)
}

type verifyReq struct {
	RootHex string                 `json:"rootHex,omitempty"`
	VKB64   string                 `json:"vkB64,omitempty"`
	Payload codec.ShotProofPayload `json:"payload"`
}

// handleVerify checks a shot proof. Root and verifying key default to the
// current match's commitment; any root inside the payload is ignored.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var req verifyReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}

	if strings.TrimSpace(req.RootHex) == "" || strings.TrimSpace(req.VKB64) == "" {
		cm, err := s.commitment()
		if err != nil {
			writeError(w, http.StatusBadRequest, "rootHex and vkB64 required: "+err.Error())
			return
		}
		if strings.TrimSpace(req.RootHex) == "" {
			req.RootHex = cm.RootHex
		}
		if strings.TrimSpace(req.VKB64) == "" {
			req.VKB64 = cm.VKB64
		}
	}

	rawVK, err := base64.StdEncoding.DecodeString(req.VKB64)
	if err != nil || len(rawVK) == 0 {
		writeError(w, http.StatusBadRequest, "invalid vkB64")
		return
	}
	root, err := codec.ParseHex(req.RootHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rootHex")
		return
	}
	if len(req.Payload.Proof) == 0 {
		writeError(w, http.StatusBadRequest, "payload.proof required")
		return
	}

	res, err := app.VerifyWithRoot(rawVK, root, req.Payload)
	if err != nil {
		s.log.Info("proof rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// === CORS ===

func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
