package cli

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// errIncomplete makes `sieve check` exit non-zero on gaps
var errIncomplete = errors.New("knowledge base is incomplete")

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report class/property pairs without activation data",
	Long: `Check scans every class against every property and lists the pairs the
knowledge base says nothing about. It exits with status 1 when gaps exist.

Example:
  sieve check
  sieve check --json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the JSON report instead of text")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, _, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	report := rt.Completeness()
	out := cmd.OutOrStdout()

	if jsonOutput {
		if err := writeJSONLine(out, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%d classes, %d properties\n", len(report.Classes), len(report.Props))
		if !report.IsError {
			fmt.Fprintln(out, "✓ every class is configured for every property")
			return nil
		}
		fmt.Fprintln(out)
		for _, class := range report.Classes {
			props, ok := report.Missing[class]
			if !ok {
				continue
			}
			fmt.Fprintf(out, "  %s: %v\n", class, props)
		}
	}

	if report.IsError {
		return errIncomplete
	}
	return nil
}
