package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sieve/internal/kbfile"
)

var exportPath string

// kbCmd represents the kb command
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Import and export the knowledge base as YAML",
	Long: `Move a knowledge base between the database and a YAML document.

Example:
  sieve kb import internal/kbfile/testdata/weapons.yaml
  sieve kb export -o weapons.yaml`,
}

var kbImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a YAML document into the knowledge base",
	Long: `Import adds the properties, values and classes of a document and applies
its activations. Entries that already exist are kept, activations are
overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := kbfile.ReadFile(args[0])
		if err != nil {
			return err
		}

		ctx := context.Background()
		rt, cfg, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		stats, err := kbfile.Import(ctx, rt.Store(), doc)
		if err != nil {
			return err
		}

		target := cfg.Storage.Path
		if target == "" {
			target = "memory (nothing persisted)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d properties, %d values, %d classes, %d activations into %s\n",
			stats.Properties, stats.Values, stats.Classes, stats.Entries, target)
		return nil
	},
}

var kbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the knowledge base as a YAML document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := context.Background()
		rt, _, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		doc := kbfile.Export(rt.Store().Snapshot())

		if exportPath == "" || exportPath == "-" {
			return kbfile.Encode(cmd.OutOrStdout(), doc)
		}

		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportPath, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		if err := kbfile.Encode(f, doc); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Knowledge base written to %s\n", exportPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbImportCmd)
	kbCmd.AddCommand(kbExportCmd)

	kbExportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "output file (default stdout)")
}
