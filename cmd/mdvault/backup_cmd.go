package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdvault/mdvault/internal/backup"
	"github.com/mdvault/mdvault/internal/config"
)

func backupCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a point-in-time backup of the vault database",
		Long: `Copy the vault database into the backup directory.

The copy is taken with SQLite's online backup (VACUUM INTO), so it is
consistent even while the server is running. Old backups are pruned to the
newest N.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if keep > 0 {
				cfg.Backup.Keep = keep
			}

			dest, err := backup.Run(cfg.Store.DBPath, cfg.Backup.Dir, cfg.Backup.Keep)
			if err != nil {
				return err
			}
			fmt.Printf("Backup created: %s\n", dest)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "Number of backups to keep (overrides config)")
	return cmd
}
