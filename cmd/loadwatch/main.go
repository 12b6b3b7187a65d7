// cmd/loadwatch/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/signalnine/loadwatch/internal/config"
	"github.com/signalnine/loadwatch/internal/monitor"
	"github.com/signalnine/loadwatch/internal/notify"
	"github.com/signalnine/loadwatch/internal/sampler"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "loadwatch",
	Short:         "Alert on sustained high CPU and memory usage",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// journald stamps lines itself
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			log.SetFlags(log.LstdFlags | log.LUTC)
		} else {
			log.SetFlags(0)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		chain, err := notify.FromConfig(cfg.Notifiers)
		if err != nil {
			return err
		}
		defer chain.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		fmt.Fprint(out, banner("loadwatch System Monitor"))
		if err := printHostInfo(ctx, out); err != nil {
			return fmt.Errorf("system stats unavailable: %w", err)
		}
		fmt.Fprintln(out, "\nChecking for system anomalies ...")

		return monitor.New(cfg, sampler.NewSystemProvider(), chain).Run(ctx)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print a summary of this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printHostInfo(cmd.Context(), cmd.OutOrStdout())
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, checkCmd} {
		cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults + env when empty)")
	}
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(checkCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printHostInfo(ctx context.Context, w io.Writer) error {
	info, err := sampler.Describe(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(w, formatHostInfo(info))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
