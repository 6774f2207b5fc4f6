// Package main provides a command line entry point to list and call formula functions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onchain-formulas/internal/app"
	"github.com/onchain-formulas/internal/config"
	"github.com/onchain-formulas/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "formula",
	Short: "Call onchain data functions from the command line",
	Long: `formula exposes the same functions as the HTTP API.

Credentials and provider endpoints are read from the environment (and .env)
exactly like the server. Functions without a configured API key are routed
through the proxy when one exists for the provider.`,
	SilenceUsage: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List functions and their parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := build(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return printJSON(a.Registry.List())
	},
}

var callCmd = &cobra.Command{
	Use:   "call NAME [ARG...]",
	Short: "Call a function with positional arguments",
	Long: `Call a function by name. Each argument is decoded as JSON when it parses
(numbers, null, true, lists) and passed as a plain string otherwise.

Examples:
	formula call ETHERSCAN all-txns ethereum vitalik.eth null null 1 10
	formula call PRICE btc`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := build(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.Registry.Call(cmd.Context(), args[0], parseArgs(args[1:]))
		if err := printJSON(res.Payload()); err != nil {
			return err
		}
		if res.Err != nil {
			return fmt.Errorf("%s: %s", res.Err.Type, res.Err.Message)
		}
		return nil
	},
}

func build(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logging.InitGlobalLogger(logging.ParseLogLevel(level), logging.ParseLogFormat(cfg.Logging.Format))
	return app.New(ctx, cfg, logging.GetGlobalLogger())
}

// parseArgs keeps anything that is not valid JSON as a string
func parseArgs(raw []string) []any {
	out := make([]any, len(raw))
	for i, s := range raw {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			out[i] = v
			continue
		}
		out[i] = s
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL ("+strings.Join([]string{"debug", "info", "warn", "error"}, ", ")+")")
	rootCmd.AddCommand(listCmd, callCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
