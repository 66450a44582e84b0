package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/jsonedit/internal/server"
	"github.com/lacquerai/jsonedit/internal/style"
)

var (
	serveMetrics bool
	serveCORS    bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor host",
	Long: `Start an HTTP server that hosts structural editors for the fields in the store.

The server provides:
- REST API for opening, saving and cancelling field editors
- WebSocket streaming of rendered HTML, validation errors and confirmations
- Document validation against the loaded schemas
- Prometheus metrics endpoint

Examples:
  jsonedit serve                                  # Serve ~/.jsonedit/fields
  jsonedit serve --store ./fields --schemas ./schemas
  jsonedit serve --port 9090 --host 0.0.0.0       # Custom host and port`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", true, "enable Prometheus metrics endpoint")
	serveCmd.Flags().BoolVar(&serveCORS, "cors", true, "enable CORS headers")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func serverConfig() *server.Config {
	config := server.DefaultConfig()
	config.Host = viper.GetString("server.host")
	config.Port = viper.GetInt("server.port")
	config.SchemaDir = viper.GetString("schemas.dir")
	config.StoreDir = viper.GetString("store.dir")
	config.EnableMetrics = serveMetrics
	config.EnableCORS = serveCORS
	config.Editor = editorConfig()
	return config
}

func startServer(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()

	strs, err := loadStrings()
	if err != nil {
		return err
	}

	srv, err := server.New(serverConfig(), server.WithStrings(strs))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.LoadSchemas(); err != nil {
		return err
	}

	if !viper.GetBool("quiet") {
		style.Success(w, fmt.Sprintf("jsonedit server starting at http://%s", srv.GetAddr()))
		fmt.Fprintf(w, "%s Loaded schemas: %d\n", style.InfoIcon(), srv.GetSchemaCount())
		fmt.Fprintf(w, "%s API: http://%s/api/v1/fields\n", style.InfoIcon(), srv.GetAddr())
		if serveMetrics {
			fmt.Fprintf(w, "%s Metrics: http://%s/metrics\n", style.InfoIcon(), srv.GetAddr())
		}
	}

	if err := srv.StartWithGracefulShutdown(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
