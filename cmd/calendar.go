package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivoytov/manhattan/internal/calendar"
)

var (
	calendarBrowser string
	calendarDataDir string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Scrape the borough auction calendars for new cases",
	Long:  "Walks all five boroughs' foreclosure-auction court calendars and merges newly listed cases into foreclosures/cases.csv.",
	RunE: func(cmd *cobra.Command, args []string) error {
		browserCfg := cfg.Browser
		if calendarBrowser != "" {
			browserCfg.Endpoint = calendarBrowser
		}
		dataDir := cfg.DataDir
		if calendarDataDir != "" {
			dataDir = calendarDataDir
		}

		added, err := calendar.Update(cmd.Context(), browserCfg, dataDir)
		if err != nil {
			return err
		}
		zap.L().Info("calendar scrape finished", zap.Int("added", added))
		return nil
	},
}

func init() {
	calendarCmd.Flags().StringVar(&calendarBrowser, "browser", "", "remote browser WebSocket endpoint (overrides config)")
	calendarCmd.Flags().StringVar(&calendarDataDir, "data-dir", "", "root of the CSV stores (overrides config)")
	rootCmd.AddCommand(calendarCmd)
}
