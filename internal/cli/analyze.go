package cli

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dshills/transllm/internal/runner"
	"github.com/dshills/transllm/internal/translator"
)

var analyzeCmd = newAnalyzeCmd()

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <project-path>",
		Short: "Estimate the translation workload without calling a backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			r := runner.New(translator.NewIdentityProvider(), cfg)
			a, err := r.Analyze(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total files:        %d\n", a.TotalFiles)
			fmt.Fprintf(out, "translatable files: %d\n", a.TranslatableFiles)
			fmt.Fprintf(out, "estimated chunks:   %d\n", a.EstimatedChunks)

			if len(a.FileTypes) > 0 {
				table := tablewriter.NewWriter(out)
				table.SetHeader([]string{"Extension", "Files"})
				table.SetBorder(false)

				exts := make([]string, 0, len(a.FileTypes))
				for ext := range a.FileTypes {
					exts = append(exts, ext)
				}
				sort.Strings(exts)
				for _, ext := range exts {
					table.Append([]string{ext, fmt.Sprintf("%d", a.FileTypes[ext])})
				}
				table.Render()
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
