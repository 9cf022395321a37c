package relay

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10

	// CloseRegistrationFailed is the close status sent when the first
	// frame is not a valid registration (RFC 6455 policy violation).
	CloseRegistrationFailed = websocket.ClosePolicyViolation
)

type Config struct {
	// RegistrationTimeout bounds the wait for the first frame.
	// Defaults to 30s.
	RegistrationTimeout time.Duration

	// SendQueueSize is each client's outbound buffer, in frames.
	SendQueueSize int

	Logger *log.Logger
}

// Server accepts websocket connections and routes frames between
// registered clients by name.  It never looks inside msg.
type Server struct {
	registry *Registry
	cfg      Config
	logger   *log.Logger
	upgrader websocket.Upgrader
	router   *mux.Router
}

func NewServer(reg *Registry, cfg Config) *Server {
	if cfg.RegistrationTimeout <= 0 {
		cfg.RegistrationTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	s := &Server{
		registry: reg,
		cfg:      cfg,
		logger:   cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Readers are embedded devices that send no Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/clients", s.handleClients).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.ServeWS)
	r.HandleFunc("/", s.ServeWS)
	r.Use(loggingMiddleware(s.logger))
	s.router = r

	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Registry() *Registry { return s.registry }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleClients(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"clients": s.registry.Names()})
}

// ServeWS runs one connection: registration handshake, then the forward
// loop until the peer goes away.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Printf("websocket upgrade from=%s: %v", r.RemoteAddr, err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.RegistrationTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		s.logger.Printf("registration read from=%s: %v", r.RemoteAddr, err)
		_ = conn.Close()
		return
	}

	name, err := ParseRegistration(data)
	if err != nil {
		s.logger.Printf("rejecting connection from=%s: %v", r.RemoteAddr, err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseRegistrationFailed, "Registration failed"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	c := newClient(conn, name, s.cfg.SendQueueSize)
	// The ack must be first in the queue, ahead of any forward that
	// arrives once the name is visible in the registry.
	_ = c.enqueue(encodeAck(name))
	if old := s.registry.Register(c); old != nil {
		s.logger.Printf("client %q re-registered: conn=%s replaces conn=%s", name, c.id, old.id)
	}
	s.logger.Printf("client %q connected conn=%s from=%s total=%d", name, c.id, r.RemoteAddr, s.registry.Len())

	go c.writePump(pingPeriod, writeWait)
	defer func() {
		removed := s.registry.Unregister(c)
		c.closeQueue()
		<-c.done
		if removed {
			s.logger.Printf("client %q disconnected conn=%s total=%d", name, c.id, s.registry.Len())
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("client %q closed unexpectedly: %v", name, err)
			}
			return
		}
		// Any inbound frame proves liveness.
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		s.route(c, data)
	}
}

func (s *Server) route(c *Client, data []byte) {
	env, err := ParseEnvelope(data)
	if err == nil {
		err = s.registry.Forward(c.name, env.To, env.Msg)
	}
	if err != nil {
		s.logger.Printf("route from=%q to=%q: %v", c.name, env.To, err)
		if qerr := c.enqueue(encodeError(errorText(err, env.To))); qerr != nil && !errors.Is(qerr, errClientClosed) {
			s.logger.Printf("error reply to %q dropped: %v", c.name, qerr)
		}
		return
	}
	s.logger.Printf("%s -> %s bytes=%d", c.name, env.To, len(env.Msg))
}
