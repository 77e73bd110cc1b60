package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchLine is one JSON line of batch output
type batchLine struct {
	Line    int                     `json:"line"`
	Input   string                  `json:"input"`
	Process []model.EliminationStep `json:"process,omitempty"`
	Result  []string                `json:"result,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Identify many observation sets from a file in parallel",
	Long: `Batch identifies every case of an input file concurrently:
- One case per line, observations separated by ';' (caliber=9x19; magazine_capacity=17)
- Blank lines and lines starting with '#' are skipped
- Results are printed as JSON lines in input order

Example:
  sieve batch cases.txt
  sieve batch cases.txt --concurrency 8 > results.jsonl
  sieve batch cases.txt --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Sieve Batch Identification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	rt, _, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	processor := worker.NewBatchProcessor(rt.Service, concurrency)

	startTime := time.Now()
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}
	duration := time.Since(startTime)

	out := cmd.OutOrStdout()
	var successCount, failureCount, unmatched int
	for _, r := range results {
		line := batchLine{Line: r.Line, Input: r.Input}
		if r.Error != nil {
			failureCount++
			line.Error = r.Error.Error()
		} else {
			successCount++
			line.Process = r.Identification.Process
			line.Result = r.Identification.Result
			if len(line.Result) == 0 {
				unmatched++
			}
		}
		if err := writeJSONLine(out, line); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total cases:  %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  ✓ Identified: %d (%d without a match)\n", successCount, unmatched)
	fmt.Fprintf(os.Stderr, "  ✗ Failed:     %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Duration:     %v\n", duration.Round(time.Millisecond))
	if len(results) > 0 {
		fmt.Fprintf(os.Stderr, "  Avg/case:     %v\n", (duration / time.Duration(len(results))).Round(time.Microsecond))
	}
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d cases failed", failureCount, len(results))
	}
	return nil
}
