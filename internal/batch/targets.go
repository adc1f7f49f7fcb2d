// Package batch fans one plan of service actions out across many
// (host, service) pairs with bounded concurrency and writes a summary
// report of what happened.
package batch

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/opsline-io/svcctl/internal/config"
	"github.com/opsline-io/svcctl/internal/svcaction"
)

// Defaults fills fields a target leaves unset.
type Defaults struct {
	Action         string `mapstructure:"action"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	ForceKill      bool   `mapstructure:"force_kill"`
	Initiator      string `mapstructure:"initiator"`
}

// Target is one service action in the plan. Unset fields fall back to the
// plan defaults; ForceKill is a pointer so a target can explicitly turn
// the default off.
type Target struct {
	Host           string `mapstructure:"host"`
	Service        string `mapstructure:"service"`
	Action         string `mapstructure:"action"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	ForceKill      *bool  `mapstructure:"force_kill"`
}

// Plan is a parsed targets file.
type Plan struct {
	Defaults Defaults `mapstructure:"defaults"`
	Targets  []Target `mapstructure:"targets"`
}

// LoadPlan reads and validates a YAML targets file. Validation covers the
// whole plan up front so a bad entry is caught before anything runs.
func LoadPlan(path string) (*Plan, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read targets file %s: %w", path, err)
	}

	var plan Plan
	if err := v.Unmarshal(&plan); err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}

	if len(plan.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s: no targets listed", path)
	}

	if _, err := plan.Requests(); err != nil {
		return nil, fmt.Errorf("targets file %s: %w", path, err)
	}
	return &plan, nil
}

// Requests expands the plan into one engine request per target, applying
// defaults to unset fields. Hosts are normalized the same way the agent
// normalizes its own identity.
func (p *Plan) Requests() ([]svcaction.Request, error) {
	requests := make([]svcaction.Request, 0, len(p.Targets))

	for i, t := range p.Targets {
		if t.Service == "" {
			return nil, fmt.Errorf("target %d: service is required", i+1)
		}

		actionText := t.Action
		if actionText == "" {
			actionText = p.Defaults.Action
		}
		action, err := svcaction.ParseAction(actionText)
		if err != nil {
			return nil, fmt.Errorf("target %d (%s): %w", i+1, t.Service, err)
		}

		seconds := t.TimeoutSeconds
		if seconds == 0 {
			seconds = p.Defaults.TimeoutSeconds
		}
		if seconds < 0 {
			return nil, fmt.Errorf("target %d (%s): timeout_seconds must be positive", i+1, t.Service)
		}

		forceKill := p.Defaults.ForceKill
		if t.ForceKill != nil {
			forceKill = *t.ForceKill
		}

		requests = append(requests, svcaction.Request{
			Service:   t.Service,
			Action:    action,
			Host:      config.NormalizeHost(t.Host),
			Timeout:   time.Duration(seconds) * time.Second,
			ForceKill: forceKill,
			Initiator: p.Defaults.Initiator,
		})
	}

	return requests, nil
}
