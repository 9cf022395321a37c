package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/service"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/session"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/types"
)

type Dependencies struct {
	Logger     *log.Logger
	Addr       string
	Engine     *service.Engine
	Dispatcher *session.Dispatcher
}

// Server is the logic host's local admin API.  Commands posted here run
// through the same Dispatcher as reader commands and get the same replies.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	engine     *service.Engine
	dispatcher *session.Dispatcher
}

func NewServer(d Dependencies) *Server {
	if d.Logger == nil {
		d.Logger = log.New(io.Discard, "", 0)
	}
	mux := http.NewServeMux()

	s := &Server{
		logger:     d.Logger,
		mux:        mux,
		engine:     d.Engine,
		dispatcher: d.Dispatcher,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/command", s.handleCommand)
	mux.HandleFunc("GET /v1/users", s.handleUsers)
	mux.HandleFunc("GET /v1/users/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /v1/reset_time", s.handleResetTime)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if isProtobuf(r) {
		var msg structpb.Struct
		if err := readProto(r, &msg); err != nil {
			writeError(w, http.StatusBadRequest, "bad_proto", "invalid protobuf body")
			return
		}
		cmd, err := commandFromStruct(&msg)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_command", err.Error())
			return
		}
		reply, ok := s.dispatcher.HandleCommand(r.Context(), cmd)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "dropped_command", "unknown md or missing fields")
			return
		}
		out, err := replyToStruct(reply)
		if err != nil {
			s.logger.Printf("command reply encode error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
		writeProto(w, http.StatusOK, out)
		return
	}

	var cmd types.Command
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	reply, ok := s.dispatcher.HandleCommand(r.Context(), cmd)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "dropped_command", "unknown md or missing fields")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type userView struct {
	BadgeID string `json:"id"`
	Name    string `json:"un"`
	Role    string `json:"ut"`
}

func (s *Server) handleUsers(w http.ResponseWriter, _ *http.Request) {
	users := s.engine.Users()
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{BadgeID: u.BadgeID, Name: u.Name, Role: u.Role})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	badgeID := strings.TrimSpace(r.PathValue("id"))
	if !s.engine.Search(badgeID) {
		writeError(w, http.StatusNotFound, "unknown_badge", "badge not in directory")
		return
	}

	entries, err := s.engine.History(r.Context(), badgeID)
	if err != nil {
		s.logger.Printf("history badge=%s error: %v", badgeID, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryViewFrom(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": badgeID, "entries": out})
}

func (s *Server) handleResetTime(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.ResetTime(r.Context())
	if err != nil {
		s.logger.Printf("reset_time read error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reset_time": v})
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
