package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the HTTP and language server",
		Long: `Start the sqb server.

The server exposes query parsing, completions, value suggestions and edit
sessions under /api, and a Language Server Protocol endpoint at /lsp
(WebSocket). The key registry is rebuilt whenever tag values are recorded
or the configured keys file changes.

Examples:
  sqb serve                 # Listen on the configured port (default 8377)
  sqb serve --port 9000 -v  # Custom port with info logging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "configuration validation failed")
			}
			if port == 0 {
				port = cfg.GetServerPort()
			}

			database, err := openDatabase(opts.dbPath, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			srv, err := server.New(database, cfg)
			if err != nil {
				return errors.Wrap(err, "failed to create server")
			}

			errChan := make(chan error, 1)
			go func() {
				errChan <- srv.Start(port, func(addr string) {
					pterm.Success.Printf("sqb listening on http://%s\n", addr)
				})
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case err := <-errChan:
				if err != nil {
					return errors.Wrap(err, "server failed")
				}
				return nil
			case <-sigChan:
				pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")

				shutdownDone := make(chan error, 1)
				go func() {
					shutdownDone <- srv.Stop()
				}()

				select {
				case err := <-shutdownDone:
					if err != nil {
						return errors.Wrap(err, "shutdown error")
					}
					pterm.Success.Println("Server stopped cleanly")
					return nil
				case <-sigChan:
					pterm.Warning.Println("Force shutdown - exiting immediately")
					os.Exit(1)
					return nil
				}
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from server.port)")
	return cmd
}
