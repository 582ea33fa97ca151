// Package cli provides the cobra command tree for transllm.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var configFlag string

// rootCmd represents the base command when called without subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transllm",
		Short: "Translate embedded natural language in source trees with an LLM",
		Long: `Transllm translates human-readable text in source files (comments,
docstrings, user-facing strings) while leaving code syntax untouched.

Files are split into line-bounded chunks wrapped in boundary markers,
translated concurrently through an LLM provider, reassembled in order,
and validated against the original for structural damage.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFlag, "config", "transllm.toml", "path to TOML config file")
	return cmd
}

// Execute runs the CLI. Errors have already been printed by cobra.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "transllm %s (built %s)\n", version, buildTime)
		},
	}
}
