package main

import (
	"io"
	"time"

	"github.com/minhyannv/agent-stream-go/pkg/config"
	"github.com/minhyannv/agent-stream-go/pkg/llm"
	loggerpkg "github.com/minhyannv/agent-stream-go/pkg/logger"
)

// cliFlags holds the global flag values.
type cliFlags struct {
	verbose   bool
	maxTurns  int
	finalOnly bool
}

// runtime carries the CLI's injectable dependencies.
type runtime struct {
	stdout io.Writer
	stderr io.Writer

	loadConfig func() (config.Config, error)
	newClient  func(cfg *config.Config, logger loggerpkg.Logger) (llm.Client, error)
	now        func() time.Time

	flags cliFlags
}

func newRuntime(stdout, stderr io.Writer) *runtime {
	return &runtime{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: config.Load,
		newClient:  newChatClient,
		now:        time.Now,
	}
}

func newChatClient(cfg *config.Config, logger loggerpkg.Logger) (llm.Client, error) {
	client, err := llm.New(cfg, llm.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// config loads env configuration and applies flag overrides on top.
func (rt *runtime) config(maxTurnsSet bool) (config.Config, error) {
	cfg, err := rt.loadConfig()
	if err != nil {
		return config.Config{}, err
	}
	if rt.flags.verbose {
		cfg.Verbose = true
	}
	if maxTurnsSet {
		cfg.MaxTurns = rt.flags.maxTurns
	}
	return config.Normalize(cfg), nil
}

// logger writes to stderr at the configured level.
func (rt *runtime) logger(cfg config.Config) loggerpkg.Logger {
	return loggerpkg.NewWriterLogger(rt.stderr, cfg.Level())
}
