package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// CommandHandlers answers service control requests addressed to this
// host, delegating to the local control and process ports.
type CommandHandlers struct {
	logger  *zap.Logger
	prefix  string
	host    string
	timeout time.Duration
	control svcaction.ControlPort
	proc    svcaction.ProcessPort
}

// NewCommandHandlers wires the local ports to the host's control subjects.
func NewCommandHandlers(logger *zap.Logger, prefix, host string, timeout time.Duration,
	control svcaction.ControlPort, proc svcaction.ProcessPort) *CommandHandlers {
	return &CommandHandlers{
		logger:  logger,
		prefix:  prefix,
		host:    host,
		timeout: timeout,
		control: control,
		proc:    proc,
	}
}

// SubscribeAll subscribes to every control verb for this host.
func (h *CommandHandlers) SubscribeAll(client *Client) error {
	subs := []struct {
		verb    string
		handler nats.MsgHandler
	}{
		{verbPing, h.handlePing},
		{verbInspect, h.handleInspect},
		{verbControl, h.handleControl},
		{verbPID, h.handlePID},
		{verbKill, h.handleKill},
		{verbAlive, h.handleAlive},
	}

	for _, s := range subs {
		subject := ControlSubject(h.prefix, h.host, s.verb)
		if _, err := client.Subscribe(subject, h.handleWithRecovery(s.verb, s.handler)); err != nil {
			return err
		}
	}
	return nil
}

// handleWithRecovery wraps a handler with panic recovery so one bad
// request cannot take the whole agent down.
func (h *CommandHandlers) handleWithRecovery(name string, handler nats.MsgHandler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("Panic recovered in command handler",
					zap.String("handler", name),
					zap.String("subject", msg.Subject),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())))

				h.respond(msg, errorEnvelope("", "", fmt.Errorf("internal error: handler panicked: %v", r)))
			}
		}()

		handler(msg)
	}
}

// handlerContext bounds local port calls so a hung service manager cannot
// hold a subscription goroutine forever.
func (h *CommandHandlers) handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.timeout)
}

// handlePing answers liveness probes for this host.
func (h *CommandHandlers) handlePing(msg *nats.Msg) {
	h.logger.Debug("Received ping")

	h.respond(msg, pingResponse{
		envelope: okEnvelope(uuid.NewString()),
		Host:     h.host,
	})
}

// handleInspect reports the named service's descriptor and state.
func (h *CommandHandlers) handleInspect(msg *nats.Msg) {
	rid := uuid.NewString()
	logger := h.logger.With(zap.String("request_id", rid))

	var req inspectRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		logger.Error("Failed to parse inspect request", zap.Error(err))
		h.respond(msg, errorEnvelope(rid, "", fmt.Errorf("invalid request format")))
		return
	}

	ctx, cancel := h.handlerContext()
	defer cancel()

	logger.Debug("Inspecting service", zap.String("service", req.Service))

	desc, err := h.control.Query(ctx, req.Service)
	if err != nil {
		logger.Warn("Inspect failed",
			zap.String("service", req.Service),
			zap.Error(err))
		h.respond(msg, errorEnvelope(rid, errCode(err), err))
		return
	}

	h.respond(msg, inspectResponse{
		envelope:    okEnvelope(rid),
		Name:        desc.Name,
		DisplayName: desc.DisplayName,
		Host:        h.host,
		State:       desc.State,
	})
}

// handleControl issues one lifecycle verb against the named service.
func (h *CommandHandlers) handleControl(msg *nats.Msg) {
	rid := uuid.NewString()
	logger := h.logger.With(zap.String("request_id", rid))

	var req controlRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		logger.Error("Failed to parse control request", zap.Error(err))
		h.respond(msg, errorEnvelope(rid, "", fmt.Errorf("invalid request format")))
		return
	}

	ctx, cancel := h.handlerContext()
	defer cancel()

	logger.Info("Processing control verb",
		zap.String("service", req.Service),
		zap.String("verb", req.Verb))

	var err error
	switch req.Verb {
	case "start":
		err = h.control.Start(ctx, req.Service)
	case "stop":
		err = h.control.Stop(ctx, req.Service)
	case "pause":
		err = h.control.Pause(ctx, req.Service)
	case "resume":
		err = h.control.Resume(ctx, req.Service)
	default:
		h.respond(msg, errorEnvelope(rid, "", fmt.Errorf("invalid verb: %s", req.Verb)))
		return
	}

	if err != nil {
		logger.Error("Control verb failed",
			zap.String("service", req.Service),
			zap.String("verb", req.Verb),
			zap.Error(err))
		h.respond(msg, errorEnvelope(rid, errCode(err), err))
		return
	}

	h.respond(msg, controlResponse{
		envelope: okEnvelope(rid),
		Service:  req.Service,
		Verb:     req.Verb,
	})
}

// handlePID reports the PID backing the named service.
func (h *CommandHandlers) handlePID(msg *nats.Msg) {
	rid := uuid.NewString()
	logger := h.logger.With(zap.String("request_id", rid))

	var req pidRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		logger.Error("Failed to parse pid request", zap.Error(err))
		h.respond(msg, errorEnvelope(rid, "", fmt.Errorf("invalid request format")))
		return
	}

	ctx, cancel := h.handlerContext()
	defer cancel()

	pid, err := h.control.ProcessID(ctx, req.Service)
	if err != nil {
		logger.Warn("PID lookup failed",
			zap.String("service", req.Service),
			zap.Error(err))
		h.respond(msg, errorEnvelope(rid, errCode(err), err))
		return
	}

	h.respond(msg, pidResponse{envelope: okEnvelope(rid), PID: pid})
}

// handleKill force-terminates a process by PID.
func (h *CommandHandlers) handleKill(msg *nats.Msg) {
	rid := uuid.NewString()
	logger := h.logger.With(zap.String("request_id", rid))

	var req killRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		logger.Error("Failed to parse kill request", zap.Error(err))
		h.respond(msg, errorEnvelope(rid, "", fmt.Errorf("invalid request format")))
		return
	}

	ctx, cancel := h.handlerContext()
	defer cancel()

	logger.Info("Terminating process", zap.Int32("pid", req.PID))

	if err := h.proc.Terminate(ctx, req.PID); err != nil {
		logger.Error("Terminate failed",
			zap.Int32("pid", req.PID),
			zap.Error(err))
		h.respond(msg, errorEnvelope(rid, errCode(err), err))
		return
	}

	h.respond(msg, killResponse{envelope: okEnvelope(rid), PID: req.PID})
}

// handleAlive reports whether a PID still exists.
func (h *CommandHandlers) handleAlive(msg *nats.Msg) {
	rid := uuid.NewString()

	var req aliveRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.logger.Error("Failed to parse alive request", zap.Error(err))
		h.respond(msg, errorEnvelope(rid, "", fmt.Errorf("invalid request format")))
		return
	}

	ctx, cancel := h.handlerContext()
	defer cancel()

	alive, err := h.proc.Alive(ctx, req.PID)
	if err != nil {
		h.respond(msg, errorEnvelope(rid, errCode(err), err))
		return
	}

	h.respond(msg, aliveResponse{envelope: okEnvelope(rid), Alive: alive})
}

// respond marshals and sends a reply, logging rather than failing when
// the requester is gone.
func (h *CommandHandlers) respond(msg *nats.Msg, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to marshal response", zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		h.logger.Warn("Failed to respond",
			zap.String("subject", msg.Subject),
			zap.Error(err))
	}
}

func errCode(err error) string {
	switch {
	case errors.Is(err, svcaction.ErrNotFound):
		return codeNotFound
	case errors.Is(err, svcaction.ErrUnsupported):
		return codeUnsupported
	}
	return ""
}
