package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/mdvault/mdvault/internal/config"
	"github.com/mdvault/mdvault/internal/store"
	"github.com/mdvault/mdvault/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the vault API server",
		Long: `Start the mdvault HTTP API.

Examples:
  mdvault serve                   # listen on the configured address
  mdvault serve --addr :9000      # override the listen address`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			for _, warning := range cfg.Warnings() {
				log.Printf("WARNING: %s", warning)
			}

			db, err := store.Open(cfg.Store.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			srv, err := web.New(cfg, db)
			if err != nil {
				return err
			}
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
