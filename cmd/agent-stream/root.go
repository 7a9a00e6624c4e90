package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/minhyannv/agent-stream-go/pkg/agent"
	"github.com/minhyannv/agent-stream-go/pkg/config"
	"github.com/minhyannv/agent-stream-go/pkg/console"
	"github.com/minhyannv/agent-stream-go/pkg/llm"
	loggerpkg "github.com/minhyannv/agent-stream-go/pkg/logger"
	"github.com/minhyannv/agent-stream-go/pkg/tools"
)

// mockPrefix is prepended to the echoed message by the mock command.
const mockPrefix = "message sent: "

func newRootCmd(rt *runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "agent-stream",
		Short:         "Ask a tool-using assistant and stream its answer.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&rt.flags.verbose, "verbose", "v", false, "Debug logging to stderr")
	flags.IntVar(&rt.flags.maxTurns, "max-turns", config.DefaultMaxTurns, "Maximum model turns per message")
	flags.BoolVar(&rt.flags.finalOnly, "final-only", false, "Only show text from the final answer turn")

	rootCmd.AddCommand(newSendCmd(rt))
	rootCmd.AddCommand(newMockCmd(rt))
	rootCmd.AddCommand(newToolsCmd(rt))
	return rootCmd
}

func newSendCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message and stream the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rt.config(cmd.Flags().Changed("max-turns"))
			if err != nil {
				return err
			}
			log := rt.logger(cfg)

			client, err := rt.newClient(&cfg, log)
			if err != nil {
				return err
			}

			printer := console.NewPrinter(rt.stdout, rt.stderr)
			printer.Banner(cfg.Summary())
			return rt.stream(cmd.Context(), printer, client, cfg.MaxTurns, log, args[0])
		},
	}
}

func newMockCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "mock <message>",
		Short: "Run the pipeline against a local echo model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rt.config(cmd.Flags().Changed("max-turns"))
			if err != nil {
				return err
			}
			log := rt.logger(cfg)
			printer := console.NewPrinter(rt.stdout, rt.stderr)
			return rt.stream(cmd.Context(), printer, llm.EchoClient{Prefix: mockPrefix}, cfg.MaxTurns, log, args[0])
		},
	}
}

func newToolsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			defs := tools.New(tools.Context{Now: rt.now}).Definitions()
			enc := yaml.NewEncoder(rt.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(defs); err != nil {
				return fmt.Errorf("encode tool catalog: %w", err)
			}
			return enc.Close()
		},
	}
}

// stream runs one message through the agent and renders its events.
func (rt *runtime) stream(
	ctx context.Context,
	printer *console.Printer,
	client llm.Client,
	maxTurns int,
	log loggerpkg.Logger,
	message string,
) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []agent.AgentOption{
		agent.WithLogger(log),
		agent.WithMaxTurns(maxTurns),
	}
	if rt.flags.finalOnly {
		opts = append(opts, agent.WithTextPolicy(agent.TextFinalOnly))
	}
	a, err := agent.New(client, tools.New(tools.Context{Now: rt.now, Logger: log}), opts...)
	if err != nil {
		return err
	}

	printer.Thinking()
	return printer.Stream(a.Run(ctx, message))
}
