package agent

import (
	"errors"
	"fmt"

	"github.com/kardianos/service"
)

const serviceName = "svcctl-agent"

// serviceConfig describes the agent's registration with the host service
// manager. The installed unit re-invokes this binary with "agent run".
func serviceConfig(configPath string) *service.Config {
	args := []string{"agent", "run"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}

	return &service.Config{
		Name:        serviceName,
		DisplayName: "svcctl agent",
		Description: "Answers service control requests for this host over NATS.",
		Arguments:   args,
	}
}

// program adapts the agent to the service runtime. Start must return
// promptly; the agent's work happens on its own goroutines.
type program struct {
	configPath string
	version    string
	agent      *Agent
}

func (p *program) Start(s service.Service) error {
	a, err := New(p.configPath, p.version)
	if err != nil {
		return err
	}
	p.agent = a
	return a.Start()
}

func (p *program) Stop(s service.Service) error {
	if p.agent == nil {
		return nil
	}
	return p.agent.Shutdown()
}

// RunService runs the agent under the host service manager, or in the
// foreground when launched interactively. It blocks until the service
// runtime asks the agent to stop.
func RunService(configPath, version string) error {
	prg := &program{configPath: configPath, version: version}

	svc, err := service.New(prg, serviceConfig(configPath))
	if err != nil {
		return fmt.Errorf("create service wrapper: %w", err)
	}
	return svc.Run()
}

// ControlService installs, uninstalls, starts, stops, or restarts the
// agent's registration with the host service manager.
func ControlService(action, configPath string) error {
	svc, err := service.New(&program{configPath: configPath}, serviceConfig(configPath))
	if err != nil {
		return fmt.Errorf("create service wrapper: %w", err)
	}

	if err := service.Control(svc, action); err != nil {
		return fmt.Errorf("%s %s: %w", action, serviceName, err)
	}
	return nil
}

// ServiceStatus reports whether the agent service is installed and
// running.
func ServiceStatus(configPath string) (string, error) {
	svc, err := service.New(&program{configPath: configPath}, serviceConfig(configPath))
	if err != nil {
		return "", fmt.Errorf("create service wrapper: %w", err)
	}

	status, err := svc.Status()
	if err != nil {
		if errors.Is(err, service.ErrNotInstalled) {
			return "not installed", nil
		}
		return "", fmt.Errorf("query %s status: %w", serviceName, err)
	}

	switch status {
	case service.StatusRunning:
		return "running", nil
	case service.StatusStopped:
		return "stopped", nil
	default:
		return "unknown", nil
	}
}
