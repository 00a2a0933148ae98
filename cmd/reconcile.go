package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivoytov/manhattan/internal/filing"
	"github.com/ivoytov/manhattan/internal/model"
	"github.com/ivoytov/manhattan/internal/nyscef"
	"github.com/ivoytov/manhattan/internal/ocr"
	"github.com/ivoytov/manhattan/internal/reconcile"
	"github.com/ivoytov/manhattan/internal/store"
)

var (
	reconcileInteractive bool
	reconcileBrowser     string
	reconcileDataDir     string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Download missing filings and backfill extracted fields",
	Long:  "Walks the case registry, fetches each case's missing Notice of Sale and Surplus Money Form from the court e-filing system, runs OCR field extraction, and rewrites the CSV stores.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		browserCfg := cfg.Browser
		if reconcileBrowser != "" {
			browserCfg.Endpoint = reconcileBrowser
		}
		dataDir := cfg.DataDir
		if reconcileDataDir != "" {
			dataDir = reconcileDataDir
		}

		class := filing.NewClassifier(dataDir, cfg.Windows, nil)
		extractor, err := ocr.NewExtractor(cfg.OCR)
		if err != nil {
			return err
		}

		excl := store.OpenExclusionLog(dataDir)
		dl := nyscef.NewDownloader(nil, cfg.Download.MinBytes)
		sessions := func(ctx context.Context, kase model.Case) (reconcile.CaseSession, error) {
			return nyscef.Open(ctx, browserCfg, class, excl, dl, kase)
		}

		var prompt reconcile.Prompter
		if reconcileInteractive {
			prompt = reconcile.NewStdioPrompter(os.Stdin, os.Stderr)
		}

		driver := reconcile.NewDriver(dataDir, class, sessions, extractor, prompt, browserCfg.SessionsPerMinute)
		sum, err := driver.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("reconcile finished",
			zap.Int("cases", sum.Cases),
			zap.Int("sessions", sum.Sessions),
			zap.Int("downloads", sum.Downloads),
			zap.Int("backfilled", sum.Backfilled),
			zap.Int("discontinued", sum.Discontinued),
			zap.Int("failures", sum.CaseFailures),
		)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileInteractive, "interactive", false, "prompt for fields automation could not fill")
	reconcileCmd.Flags().StringVar(&reconcileBrowser, "browser", "", "remote browser WebSocket endpoint (overrides config)")
	reconcileCmd.Flags().StringVar(&reconcileDataDir, "data-dir", "", "root of the CSV stores and saledocs/ (overrides config)")
	rootCmd.AddCommand(reconcileCmd)
}
