package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stackbridge/internal/app"
	"stackbridge/pkg/logging"
)

// serveConfigPath points at the YAML configuration file.
var serveConfigPath string

// serveDebug enables verbose logging across the application.
var serveDebug bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stackbridge HTTP server",
	Long: `Starts the stackbridge HTTP server.

Configuration is read from the config file (--config), overridden by
STACKBRIDGE_* environment variables. A .env file in the working directory
is loaded first, which is the usual place for STACKBRIDGE_SESSION_SECRET
during local development. The server runs until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Absence of a .env file is the normal production case.
		if err := godotenv.Load(); err == nil {
			logging.Debug("CLI", "Loaded environment from .env")
		}

		application, err := app.NewApplication(app.Options{
			ConfigPath: serveConfigPath,
			Debug:      serveDebug,
		})
		if err != nil {
			return err
		}
		return application.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config.yaml", "path to the configuration file")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)
}
