package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// The relay pings every 54s; a link silent for longer than this is dead.
	readWait = 90 * time.Second
)

// ErrRegistrationRejected is returned by Run when the relay answers the
// registration frame with a close instead of an acknowledgement.
var ErrRegistrationRejected = errors.New("relay rejected registration")

type ClientConfig struct {
	RelayURL string // e.g. "ws://localhost:8765"
	Name     string // our endpoint name, e.g. "db_client"
	Target   string // the reader endpoint we answer, e.g. "esp_client"

	// HandshakeTimeout bounds dial plus registration ack.  Defaults to 10s.
	HandshakeTimeout time.Duration

	Logger *log.Logger
}

// inbound is any frame the relay can send us.
type inbound struct {
	From    string          `json:"from"`
	Msg     json.RawMessage `json:"msg"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type outbound struct {
	To  string `json:"to"`
	Msg any    `json:"msg"`
}

// Client is the logic host's single connection to the relay.  Commands
// from the target are handled one at a time, in arrival order.
type Client struct {
	dispatcher *Dispatcher
	cfg        ClientConfig
	logger     *log.Logger
}

func NewClient(d *Dispatcher, cfg ClientConfig) *Client {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Client{dispatcher: d, cfg: cfg, logger: cfg.Logger}
}

// Run dials the relay, registers, and serves commands until the
// connection drops or ctx is cancelled.  onReady, if non-nil, is called
// once the relay has acknowledged the registration.
func (c *Client) Run(ctx context.Context, onReady func()) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.RelayURL, nil)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	defer conn.Close()

	// Unblocks ReadMessage on shutdown.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = conn.Close()
	})
	defer stop()

	if err := c.register(conn); err != nil {
		return err
	}
	c.logger.Printf("registered with relay as %q, serving %q", c.cfg.Name, c.cfg.Target)
	if onReady != nil {
		onReady()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		if err := c.handleFrame(ctx, conn, data); err != nil {
			return err
		}
	}
}

func (c *Client) register(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(map[string]string{"type": "register", "name": c.cfg.Name}); err != nil {
		return fmt.Errorf("send registration: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return fmt.Errorf("%w: %d %s", ErrRegistrationRejected, ce.Code, ce.Text)
		}
		return fmt.Errorf("read registration ack: %w", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	var ack inbound
	if err := json.Unmarshal(data, &ack); err != nil || ack.Status == "" {
		return fmt.Errorf("unexpected registration reply: %s", data)
	}
	c.logger.Printf("relay: %s", ack.Message)
	return nil
}

func (c *Client) handleFrame(ctx context.Context, conn *websocket.Conn, data []byte) error {
	var f inbound
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Printf("ignoring non-JSON frame from relay: %v", err)
		return nil
	}

	switch {
	case f.Error != "":
		c.logger.Printf("relay error: %s", f.Error)
		return nil
	case f.Status != "":
		c.logger.Printf("relay status %s: %s", f.Status, f.Message)
		return nil
	case f.From == "":
		c.logger.Printf("ignoring frame without sender: %s", data)
		return nil
	case f.From != c.cfg.Target:
		c.logger.Printf("ignoring frame from %q", f.From)
		return nil
	}

	reply, ok := c.dispatcher.Handle(ctx, f.Msg)
	if !ok {
		return nil
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(outbound{To: c.cfg.Target, Msg: reply}); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
