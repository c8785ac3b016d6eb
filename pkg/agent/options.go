package agent

import (
	"io"

	loggerpkg "github.com/lennoxconsulting/aiops-assistant/pkg/logger"
)

// AgentOption configures optional runtime dependencies for Agent.
type AgentOption func(*agentDeps)

type agentDeps struct {
	logger loggerpkg.Logger
	trace  io.Writer
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) AgentOption {
	return func(d *agentDeps) {
		d.logger = l
	}
}

// WithTrace sets where the chain trace is printed when Settings.Verbose is on.
func WithTrace(w io.Writer) AgentOption {
	return func(d *agentDeps) {
		d.trace = w
	}
}
