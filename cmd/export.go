package main

import (
	"github.com/spf13/cobra"

	"github.com/ivoytov/manhattan/internal/export"
)

var (
	exportDataDir string
	exportDBPath  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Bundle the CSV datasets into a SQLite database",
	Long:  "Imports every CSV store into a single SQLite file for the dashboard, one table per CSV with numeric type inference.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := cfg.DataDir
		if exportDataDir != "" {
			dataDir = exportDataDir
		}
		dbPath := cfg.Export.DBPath
		if exportDBPath != "" {
			dbPath = exportDBPath
		}
		return export.Build(cmd.Context(), dataDir, dbPath)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDataDir, "data-dir", "", "root of the CSV stores (overrides config)")
	exportCmd.Flags().StringVar(&exportDBPath, "database", "", "output SQLite file (overrides config)")
	rootCmd.AddCommand(exportCmd)
}
