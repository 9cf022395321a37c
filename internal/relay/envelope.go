package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrRegistration      = errors.New("registration failed")
	ErrInvalidJSON       = errors.New("invalid JSON")
	ErrInvalidEnvelope   = errors.New("missing 'to' or 'msg'")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrRecipientBusy     = errors.New("recipient not accepting messages")
)

// Envelope is what a registered client sends: route msg to the client
// registered as To.
type Envelope struct {
	To  string          `json:"to"`
	Msg json.RawMessage `json:"msg"`
}

// Delivery is what the recipient gets.
type Delivery struct {
	From string          `json:"from"`
	Msg  json.RawMessage `json:"msg"`
}

type Registration struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorFrame struct {
	Error string `json:"error"`
}

// ParseRegistration validates the first frame of a connection and returns
// the name to register.
func ParseRegistration(data []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistration, err)
	}
	var typ, name string
	if err := json.Unmarshal(fields["type"], &typ); err != nil || typ != "register" {
		return "", fmt.Errorf("%w: type must be \"register\"", ErrRegistration)
	}
	if err := json.Unmarshal(fields["name"], &name); err != nil || name == "" {
		return "", fmt.Errorf("%w: name must be a non-empty string", ErrRegistration)
	}
	return name, nil
}

// ParseEnvelope decodes a forward request.  It returns ErrInvalidJSON when
// data is not JSON and ErrInvalidEnvelope when to is missing or empty or
// msg is not a non-empty JSON object.  msg is otherwise not interpreted.
func ParseEnvelope(data []byte) (Envelope, error) {
	if !json.Valid(data) {
		return Envelope{}, ErrInvalidJSON
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Envelope{}, ErrInvalidEnvelope
	}

	var env Envelope
	if err := json.Unmarshal(fields["to"], &env.To); err != nil || env.To == "" {
		return Envelope{}, ErrInvalidEnvelope
	}
	msg := bytes.TrimSpace(fields["msg"])
	if len(msg) == 0 || msg[0] != '{' {
		return Envelope{}, ErrInvalidEnvelope
	}
	// An empty object carries nothing to deliver.
	var body map[string]json.RawMessage
	if err := json.Unmarshal(msg, &body); err != nil || len(body) == 0 {
		return Envelope{}, ErrInvalidEnvelope
	}
	env.Msg = msg
	return env, nil
}

func encodeDelivery(from string, msg json.RawMessage) ([]byte, error) {
	return json.Marshal(Delivery{From: from, Msg: msg})
}

func encodeAck(name string) []byte {
	b, _ := json.Marshal(Ack{
		Status:  "connected",
		Message: fmt.Sprintf("Welcome, %s! Registered successfully.", name),
	})
	return b
}

func encodeError(msg string) []byte {
	b, _ := json.Marshal(ErrorFrame{Error: msg})
	return b
}

// errorText renders err as the text of an {"error": ...} frame.
func errorText(err error, recipient string) string {
	switch {
	case errors.Is(err, ErrInvalidJSON):
		return "Invalid JSON received."
	case errors.Is(err, ErrInvalidEnvelope):
		return "Invalid message format. Missing 'to' or 'msg'."
	case errors.Is(err, ErrRecipientNotFound):
		return fmt.Sprintf("Recipient '%s' not found.", recipient)
	case errors.Is(err, ErrRecipientBusy):
		return fmt.Sprintf("Recipient '%s' is not accepting messages.", recipient)
	default:
		return err.Error()
	}
}
