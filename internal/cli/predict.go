package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var predictTimeout time.Duration

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict <name=value>...",
	Short: "Ask the statistical predictor for a class",
	Long: `Predict forwards the observations to the configured predictor and prints
the single class it answers. The rule engine is not consulted.

Example:
  sieve predict caliber=9x19 magazine_capacity=17
  sieve predict caliber=9x19 --provider openai --model gpt-4o-mini`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().String("provider", "", "predictor provider (http, openai, ollama)")
	predictCmd.Flags().String("url", "", "http predictor endpoint")
	predictCmd.Flags().String("model", "", "model name for openai/ollama")
	predictCmd.Flags().DurationVar(&predictTimeout, "timeout", 0, "overall timeout (default from predictor.timeout)")
	predictCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the JSON response instead of text")

	_ = viper.BindPFlag("predictor.provider", predictCmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("predictor.url", predictCmd.Flags().Lookup("url"))
	_ = viper.BindPFlag("predictor.model", predictCmd.Flags().Lookup("model"))
}

func runPredict(cmd *cobra.Command, args []string) error {
	observations, err := parseObservations(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if predictTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, predictTimeout)
		defer cancel()
	}

	rt, _, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	p, err := rt.Predict(ctx, observations)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSONLine(cmd.OutOrStdout(), p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (via %s)\n", p.PredictedClass, rt.PredictorName())
	return nil
}
