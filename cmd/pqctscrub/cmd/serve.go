/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ssargent/pqctscrub/pkg/api"
	"github.com/ssargent/pqctscrub/pkg/config"
)

// serveCmd represents the serve command
func newServeCmd(a *app) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the pqctscrub REST API server.

The server only reads and writes files under its root directory. Requests
must carry the API key in the X-API-Key header; with api_key set to "auto"
a key is generated for this run and printed on stderr.

Examples:
  pqctscrub serve --root /data/pqct
  pqctscrub serve --root /data/pqct --port 9000 --api-key mysecretkey`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("bind") {
				a.cfg.Server.Bind, _ = flags.GetString("bind")
			}
			if flags.Changed("port") {
				a.cfg.Server.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("root") {
				a.cfg.Server.Root, _ = flags.GetString("root")
			}
			if flags.Changed("api-key") {
				a.cfg.Server.APIKey, _ = flags.GetString("api-key")
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			apiKey := a.cfg.Server.APIKey
			if apiKey == "" || apiKey == "auto" {
				var err error
				apiKey, err = config.GenerateSecureKey(32)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "API key for this run: %s\n", apiKey)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := api.StartServer(ctx, a.container.Server(apiKey)); err != nil {
				return fmt.Errorf("error starting server: %w", err)
			}
			return nil
		},
	}

	serveCmd.Flags().String("bind", "", "Address to bind to (default from config, 127.0.0.1)")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config, 9370)")
	serveCmd.Flags().String("root", "", "Directory the server may read and write (default from config, .)")
	serveCmd.Flags().String("api-key", "", "API key for authentication (default from config)")
	return serveCmd
}
