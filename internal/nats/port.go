package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// remotePort forwards control and process calls to the svcctl agent on
// one host. It implements both svcaction.ControlPort and
// svcaction.ProcessPort over request/reply.
type remotePort struct {
	client  *Client
	prefix  string
	host    string
	timeout time.Duration
}

// RemotePorts returns control and process ports backed by the agent on
// the named host. timeout bounds each request on top of the caller's
// context; zero means the context alone decides.
func RemotePorts(client *Client, prefix, host string, timeout time.Duration) (svcaction.ControlPort, svcaction.ProcessPort) {
	r := &remotePort{
		client:  client,
		prefix:  prefix,
		host:    host,
		timeout: timeout,
	}
	return r, r
}

// PingHost checks whether an agent answers on the host's control
// subjects.
func PingHost(ctx context.Context, client *Client, prefix, host string, timeout time.Duration) error {
	r := &remotePort{client: client, prefix: prefix, host: host, timeout: timeout}

	var resp pingResponse
	if err := r.request(ctx, verbPing, struct{}{}, &resp); err != nil {
		return err
	}
	return resp.err()
}

func (r *remotePort) Query(ctx context.Context, name string) (svcaction.Descriptor, error) {
	var resp inspectResponse
	if err := r.request(ctx, verbInspect, inspectRequest{Service: name}, &resp); err != nil {
		return svcaction.Descriptor{}, err
	}
	if err := resp.err(); err != nil {
		return svcaction.Descriptor{}, err
	}

	return svcaction.Descriptor{
		Name:        resp.Name,
		DisplayName: resp.DisplayName,
		Host:        resp.Host,
		State:       resp.State,
	}, nil
}

func (r *remotePort) Start(ctx context.Context, name string) error {
	return r.controlVerb(ctx, name, "start")
}

func (r *remotePort) Stop(ctx context.Context, name string) error {
	return r.controlVerb(ctx, name, "stop")
}

func (r *remotePort) Pause(ctx context.Context, name string) error {
	return r.controlVerb(ctx, name, "pause")
}

func (r *remotePort) Resume(ctx context.Context, name string) error {
	return r.controlVerb(ctx, name, "resume")
}

func (r *remotePort) ProcessID(ctx context.Context, name string) (int32, error) {
	var resp pidResponse
	if err := r.request(ctx, verbPID, pidRequest{Service: name}, &resp); err != nil {
		return 0, err
	}
	if err := resp.err(); err != nil {
		return 0, err
	}
	return resp.PID, nil
}

func (r *remotePort) Terminate(ctx context.Context, pid int32) error {
	var resp killResponse
	if err := r.request(ctx, verbKill, killRequest{PID: pid}, &resp); err != nil {
		return err
	}
	return resp.err()
}

func (r *remotePort) Alive(ctx context.Context, pid int32) (bool, error) {
	var resp aliveResponse
	if err := r.request(ctx, verbAlive, aliveRequest{PID: pid}, &resp); err != nil {
		return false, err
	}
	if err := resp.err(); err != nil {
		return false, err
	}
	return resp.Alive, nil
}

func (r *remotePort) controlVerb(ctx context.Context, name, verb string) error {
	var resp controlResponse
	if err := r.request(ctx, verbControl, controlRequest{Service: name, Verb: verb}, &resp); err != nil {
		return err
	}
	return resp.err()
}

// request sends one request/reply exchange and decodes the response.
// A host with no listening agent maps to the not-found sentinel so the
// engine degrades instead of failing hard.
func (r *remotePort) request(ctx context.Context, verb string, req interface{}, resp interface{}) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", verb, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	subject := ControlSubject(r.prefix, r.host, verb)
	r.client.logger.Debug("Remote request", zap.String("subject", subject))

	msg, err := r.client.Request(ctx, subject, data)
	if err != nil {
		switch {
		case errors.Is(err, nats.ErrNoResponders):
			return fmt.Errorf("%w: no agent answering for host %s", svcaction.ErrNotFound, r.host)
		case errors.Is(err, nats.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
			return fmt.Errorf("%w: agent on host %s did not respond", svcaction.ErrNotFound, r.host)
		}
		return fmt.Errorf("request %s: %w", subject, err)
	}

	if err := json.Unmarshal(msg.Data, resp); err != nil {
		return fmt.Errorf("decode %s response: %w", verb, err)
	}
	return nil
}
