package agent

import (
	"time"

	loggerpkg "github.com/minhyannv/agent-stream-go/pkg/logger"
)

// DefaultMaxTurns bounds model invocations per run.
const DefaultMaxTurns = 25

// TextPolicy decides when a turn's text reaches the consumer.
type TextPolicy int

const (
	// TextLive emits each token as soon as it arrives.
	TextLive TextPolicy = iota
	// TextFinalOnly buffers each turn's tokens and emits them only when the
	// turn ends without tool calls.
	TextFinalOnly
)

func (p TextPolicy) String() string {
	switch p {
	case TextLive:
		return "live"
	case TextFinalOnly:
		return "final-only"
	default:
		return "unknown"
	}
}

// AgentOption configures optional runtime dependencies for Agent.
type AgentOption func(*agentDeps)

type agentDeps struct {
	logger       loggerpkg.Logger
	maxTurns     int
	systemPrompt *string
	textPolicy   TextPolicy
	newID        func() string
	now          func() time.Time
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) AgentOption {
	return func(d *agentDeps) {
		d.logger = l
	}
}

// WithMaxTurns caps model invocations per run. Values below 1 are raised to 1.
func WithMaxTurns(n int) AgentOption {
	return func(d *agentDeps) {
		d.maxTurns = n
	}
}

// WithSystemPrompt replaces the generated system prompt. An empty prompt
// sends no system message.
func WithSystemPrompt(p string) AgentOption {
	return func(d *agentDeps) {
		d.systemPrompt = &p
	}
}

// WithTextPolicy selects when answer text is emitted.
func WithTextPolicy(p TextPolicy) AgentOption {
	return func(d *agentDeps) {
		d.textPolicy = p
	}
}

// WithIDGenerator overrides run and fallback tool-call id generation.
func WithIDGenerator(f func() string) AgentOption {
	return func(d *agentDeps) {
		d.newID = f
	}
}

// WithClock overrides the clock used for event timestamps and durations.
func WithClock(now func() time.Time) AgentOption {
	return func(d *agentDeps) {
		d.now = now
	}
}
