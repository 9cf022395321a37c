package httpapi

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/types"
)

// ── Command ──────────────────────────────────────────────────────────────────

func commandFromStruct(s *structpb.Struct) (types.Command, error) {
	var cmd types.Command
	for k, v := range s.GetFields() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return types.Command{}, fmt.Errorf("field %q must be a string", k)
		}
		str := sv.StringValue
		switch k {
		case "md":
			cmd.MD = str
		case "id":
			cmd.ID = &str
		case "un":
			cmd.UserName = &str
		case "ut":
			cmd.UserType = &str
		case "tm":
			cmd.Time = &str
		default:
			return types.Command{}, fmt.Errorf("unknown field %q", k)
		}
	}
	return cmd, nil
}

func replyToStruct(r types.Reply) (*structpb.Struct, error) {
	m := map[string]any{"md": r.MD}
	for k, v := range map[string]string{
		"rslt": r.Result,
		"act":  r.Action,
		"nm":   r.Name,
		"tm":   r.Time,
		"dur":  r.Duration,
		"rtr":  r.ResetTime,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return structpb.NewStruct(m)
}

// ── History ──────────────────────────────────────────────────────────────────

type entryView struct {
	ID       string  `json:"entry_id"`
	TapIn    string  `json:"tap_in"`
	TapOut   *string `json:"tap_out"`
	Status   string  `json:"status"`
	Duration string  `json:"duration,omitempty"`
}

func entryViewFrom(e store.LogEntry) entryView {
	v := entryView{
		ID:       e.ID,
		TapIn:    e.TapInAt.Format(time.RFC3339),
		Status:   string(e.Status),
		Duration: e.Duration,
	}
	if e.TapOutAt != nil {
		out := e.TapOutAt.Format(time.RFC3339)
		v.TapOut = &out
	}
	return v
}
