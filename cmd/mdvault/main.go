// Package main is the entrypoint for the mdvault CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// configPath is the global --config flag.
var configPath string

func main() {
	root := &cobra.Command{
		Use:   "mdvault",
		Short: "Personal document vault",
		Long:  "mdvault — a personal document vault with full-text search and file attachments.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(serveCmd())
	root.AddCommand(backupCmd())
	root.AddCommand(versionCmd())

	root.PersistentFlags().StringVar(&configPath, "config", "mdvault.toml", "Path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mdvault version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mdvault %s\n", Version)
		},
	}
}
