package cmd

import (
	"fmt"

	"github.com/abramin/abilens/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve an indexed project over HTTP",
	Long: `Start a local HTTP server over the index built by "abilens index".

The API provides:
- Contract listing, including files that failed validation
- Types with members, tags and references
- Functions with inputs and outputs
- Type search and dependency graphs`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}

		cfg := GetConfig()
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Port:       port,
			ProjectDir: path,
			StoreDir:   cfg.Store.Dir,
			Log:        GetLogger(),
		})
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		fmt.Printf("Serving abilens API on http://localhost:%d\n", srv.Port())
		return srv.Start(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to run the server on")
}
