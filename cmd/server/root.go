package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alanyang/prompt-mesh/internal/config"
	"github.com/alanyang/prompt-mesh/internal/wire"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "prompt-mesh",
	Short: "Serve a corpus of composable markdown prompts",
	Long: `prompt-mesh indexes directories of markdown prompts, expands [[reference]]
inclusions between them and serves the corpus over REST, live WebSocket
editing sessions and MCP.

Configuration comes from --config, ./promptmesh.yaml or
~/.promptmesh/config.yaml, overridden by PROMPTMESH_* environment variables.
Setting database_url lets several processes share the same directories.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return reportErr(cmd, err)
		}

		logger, closeLog, err := newLogger(cfg)
		if err != nil {
			return reportErr(cmd, err)
		}
		defer closeLog()
		slog.SetDefault(logger)
		if cfg.File != "" {
			slog.Info("using config file", "path", cfg.File)
		}

		app, err := wire.Build(ctx, cfg, version)
		if err != nil {
			slog.Error("failed to build application", "error", err)
			return err
		}
		defer app.Close()

		if err := app.Run(ctx); err != nil {
			slog.Error("server stopped with error", "error", err)
			return err
		}
		slog.Info("prompt-mesh server stopped")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "prompt-mesh %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./promptmesh.yaml or ~/.promptmesh/config.yaml)",
	)
	rootCmd.AddCommand(versionCmd)
}

// reportErr prints errors that happen before structured logging is set up.
func reportErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	return err
}
