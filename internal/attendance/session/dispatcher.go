package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/service"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/types"
)

const replyTimeLayout = "15:04:05"

// Dispatcher maps reader commands onto the attendance engine.  Commands
// with an unknown md or missing fields produce no reply; the reader is
// expected to time out on its own.
type Dispatcher struct {
	engine *service.Engine
	logger *log.Logger
}

func NewDispatcher(engine *service.Engine, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dispatcher{engine: engine, logger: logger}
}

// Handle decodes a raw command payload and runs it.  ok is false when the
// command was dropped.
func (d *Dispatcher) Handle(ctx context.Context, raw json.RawMessage) (types.Reply, bool) {
	var cmd types.Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		d.logger.Printf("dropping undecodable command: %v payload=%s", err, raw)
		return types.Reply{}, false
	}
	return d.HandleCommand(ctx, cmd)
}

func (d *Dispatcher) HandleCommand(ctx context.Context, cmd types.Command) (types.Reply, bool) {
	switch {
	case cmd.MD == types.CmdScan && cmd.ID != nil:
		return d.scan(ctx, *cmd.ID), true

	case cmd.MD == types.CmdAuth && cmd.ID != nil:
		rslt := types.RsltNotAdmin
		if d.engine.Authorize(*cmd.ID) {
			rslt = types.RsltAdmin
		}
		return types.Reply{MD: types.CmdAuth, Result: rslt}, true

	case cmd.MD == types.CmdSearch && cmd.ID != nil:
		rslt := types.RsltNotFound
		if d.engine.Search(*cmd.ID) {
			rslt = types.RsltFound
		}
		return types.Reply{MD: types.CmdSearch, Result: rslt}, true

	case cmd.MD == types.CmdAdd && cmd.ID != nil && cmd.UserName != nil && cmd.UserType != nil:
		err := d.engine.AddUser(ctx, *cmd.ID, *cmd.UserName, *cmd.UserType)
		return d.mutationReply(types.CmdAdd, types.RsltAdded, err), true

	case cmd.MD == types.CmdDelete && cmd.ID != nil:
		err := d.engine.DeleteUser(ctx, *cmd.ID)
		return d.mutationReply(types.CmdDelete, types.RsltDeleted, err), true

	case cmd.MD == types.CmdResetTime && cmd.Time != nil:
		if _, err := d.engine.SetResetTime(ctx, *cmd.Time); err != nil {
			d.logger.Printf("rst_time %q rejected: %v", *cmd.Time, err)
			return types.Reply{MD: types.CmdResetTime, Result: types.RsltFail}, true
		}
		return types.Reply{MD: types.CmdResetTime, Result: types.RsltDone}, true
	}

	d.logger.Printf("dropping unknown or malformed command md=%q", cmd.MD)
	return types.Reply{}, false
}

func (d *Dispatcher) scan(ctx context.Context, badgeID string) types.Reply {
	res, err := d.engine.Scan(ctx, badgeID)
	if err != nil {
		d.logger.Printf("scan badge=%s kind=%s: %v", badgeID, res.Kind, err)
	}

	r := types.Reply{MD: types.CmdScan}
	switch res.Kind {
	case service.ScanNotFound:
		r.Result = types.RsltNotFound
	case service.ScanTapIn:
		r.Action, r.Name, r.Time = types.ActIn, res.Name, res.At.Format(replyTimeLayout)
	case service.ScanTapOut:
		r.Action, r.Name, r.Time = types.ActOut, res.Name, res.At.Format(replyTimeLayout)
		r.Duration = res.Duration
	case service.ScanFail:
		r.Action, r.Name, r.Time = types.ActFail, res.Name, res.At.Format(replyTimeLayout)
		r.ResetTime = res.ResetTime
	case service.ScanLogError:
		r.Result = types.RsltLogError
	default:
		r.Result = types.RsltUnknownError
	}
	return r
}

// mutationReply maps a directory write outcome to its reply: the success
// code, FAIL for a rejected badge id, LOG_ERR when the store failed.
func (d *Dispatcher) mutationReply(md, ok string, err error) types.Reply {
	switch {
	case err == nil:
		return types.Reply{MD: md, Result: ok}
	case errors.Is(err, service.ErrInvalidBadgeID):
		d.logger.Printf("%s rejected: %v", md, err)
		return types.Reply{MD: md, Result: types.RsltFail}
	default:
		d.logger.Printf("%s persistence error: %v", md, err)
		return types.Reply{MD: md, Result: types.RsltLogError}
	}
}
