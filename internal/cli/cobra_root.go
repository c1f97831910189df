package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// Options are the persistent flags shared by every subcommand.
type Options struct {
	ConfigPath string
	LogLevel   string
	// Console selects the human-readable log writer instead of JSON lines.
	Console bool
}

// buildRootCmd constructs the command tree bound to opts.
func buildRootCmd(ctx context.Context, opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "bloomed",
		Short:         "Bloomed Terminal: chat completions with a house persona",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Config file (.yaml, .json or .toml); env and .env still apply")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug|info|warn|error (defaults BLOOMED_LOG_LEVEL or info)")

	var so serveOptions
	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the chat HTTP API",
		Example: "  bloomed serve --addr :8000",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(ctx, opts, so)
		},
	}
	serveCmd.Flags().StringVar(&so.Addr, "addr", "", "Listen address (defaults HOST:PORT or 0.0.0.0:8000)")
	serveCmd.Flags().BoolVar(&so.NoWarmup, "no-warmup", false, "Build the backend on first request instead of at startup")

	var (
		gopts  generateOptions
		maxNew int
		temp   float64
		topP   float64
	)
	generateCmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate one reply for a prompt",
		Example: "  bloomed generate -p \"Write a haiku about terminals\"\n  echo hi | bloomed generate --temp 0.2",
		Args:    cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, args []string) {
			opts.Console = true
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("max-new") {
				gopts.MaxNew = &maxNew
			}
			if f.Changed("temp") {
				gopts.Temperature = &temp
			}
			if f.Changed("top-p") {
				gopts.TopP = &topP
			}
			return runGenerate(ctx, opts, gopts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	generateCmd.Flags().StringVarP(&gopts.Prompt, "prompt", "p", "", "User prompt text. If omitted, reads from stdin")
	generateCmd.Flags().IntVar(&maxNew, "max-new", 256, "Maximum new tokens")
	generateCmd.Flags().Float64Var(&temp, "temp", 0.7, "Sampling temperature")
	generateCmd.Flags().Float64Var(&topP, "top-p", 0.95, "Nucleus sampling probability")
	generateCmd.Flags().StringArrayVar(&gopts.Stop, "stop", nil, "Stop sequence (repeatable)")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print the configured model as JSON",
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, args []string) {
			opts.Console = true
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(opts, cmd.OutOrStdout())
		},
	}

	root.AddCommand(serveCmd, generateCmd, infoCmd)
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
