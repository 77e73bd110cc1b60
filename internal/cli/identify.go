package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sieve/internal/model"
)

var (
	showTrace  bool
	jsonOutput bool
	cmdTimeout time.Duration
)

// identifyCmd represents the identify command
var identifyCmd = &cobra.Command{
	Use:   "identify <name=value>...",
	Short: "Identify the classes consistent with a set of observations",
	Long: `Identify narrows the classes of the knowledge base one observation at a
time. Observations are applied in the order given.

Example:
  sieve identify caliber=9x19 magazine_capacity=17
  sieve identify action=selective-fire caliber=7.62x39 --trace
  sieve identify caliber=9x19 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().BoolVar(&showTrace, "trace", false, "show which observation eliminated which class")
	identifyCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the JSON response instead of text")
	identifyCmd.Flags().DurationVar(&cmdTimeout, "timeout", 30*time.Second, "overall timeout")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	observations, err := parseObservations(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	rt, _, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	id, err := rt.Identify(ctx, observations)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		var v interface{} = id.Classification()
		if showTrace {
			v = id
		}
		return writeJSONLine(out, v)
	}

	if showTrace {
		printTrace(out, id)
	}
	printResult(out, id.Result)
	return nil
}

func printTrace(w io.Writer, id model.Identification) {
	for i, step := range id.Process {
		if len(step.EliminatedClasses) == 0 {
			fmt.Fprintf(w, "  %d. %-24s (no eliminations)\n", i+1, step.PropertyName)
			continue
		}
		fmt.Fprintf(w, "  %d. %-24s eliminated %s\n", i+1, step.PropertyName, strings.Join(step.EliminatedClasses, ", "))
	}
	fmt.Fprintln(w)
}

func printResult(w io.Writer, classes []string) {
	switch len(classes) {
	case 0:
		fmt.Fprintln(w, "No class matches these observations.")
	case 1:
		fmt.Fprintf(w, "✓ %s\n", classes[0])
	default:
		fmt.Fprintf(w, "%d candidates remain:\n", len(classes))
		for _, c := range classes {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}
}

func writeJSONLine(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
