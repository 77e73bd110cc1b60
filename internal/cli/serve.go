package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/sieve/internal/logging"
	"github.com/ppiankov/sieve/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge base HTTP API",
	Long: `Serve exposes the registries, the activation map, the completeness check,
identification and prediction over HTTP.

Example:
  sieve serve
  sieve serve --addr :8080 --db ./weapons.db
  SIEVE_PREDICTOR_URL=http://ml:8000/predict sieve serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config, :5000)")
	serveCmd.Flags().Int("max-conns", 0, "maximum concurrent connections (0 keeps the configured value)")
	serveCmd.Flags().String("cors-origin", "", "Access-Control-Allow-Origin value")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.max_conns", serveCmd.Flags().Lookup("max-conns"))
	_ = viper.BindPFlag("server.cors_origin", serveCmd.Flags().Lookup("cors-origin"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, cfg, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	log := logging.ComponentLogger("cli")
	log.Infow("serving", "addr", cfg.Server.Addr, "predictor", rt.PredictorName())

	return server.New(rt.Service, cfg.Server).ListenAndServe(ctx)
}
