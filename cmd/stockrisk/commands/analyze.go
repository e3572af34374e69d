package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"stockrisk/internal/catalog"
	"stockrisk/internal/engine"
	"stockrisk/internal/report"
	"stockrisk/internal/runstore"
)

var (
	shipmentsFile string
	forecastsFile string
	batchesFile   string
	pricesFile    string
	outFile       string
	htmlFile      string
	openReport    bool
	noCache       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a full risk analysis over the three input datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot()
		if err != nil {
			return err
		}

		store := runstore.New(filepath.Join(cfg.CacheDir, "runs.json"), cfg.Params.RunRetention)
		if err := store.Load(); err != nil {
			log.Warn().Err(err).Msg("Run store unavailable, continuing without cache")
		}

		result, err := analyzeWithCache(cmd.Context(), store, snap)
		if err != nil {
			return err
		}

		summary := report.Summarize(result.Rows)
		log.Info().
			Int("batches", summary.TotalBatches).
			Str("totalValue", summary.TotalValue.String()).
			Str("valueAtRisk", summary.ValueAtRisk.String()).
			Msg("Risk distribution computed")

		if err := writeOutputs(result, summary); err != nil {
			return err
		}
		return nil
	},
}

func loadSnapshot() (*catalog.Snapshot, error) {
	shipments, err := catalog.LoadShipmentsCSV(shipmentsFile)
	if err != nil {
		return nil, err
	}
	forecasts, err := catalog.LoadForecastsCSV(forecastsFile)
	if err != nil {
		return nil, err
	}
	batches, err := catalog.LoadBatchesCSV(batchesFile)
	if err != nil {
		return nil, err
	}

	prices := make(catalog.PriceList)
	if pricesFile != "" {
		prices, err = catalog.LoadPricesCSV(pricesFile)
		if err != nil {
			return nil, err
		}
	}

	log.Info().
		Int("shipments", len(shipments)).
		Int("forecasts", len(forecasts)).
		Int("batches", len(batches)).
		Int("prices", len(prices)).
		Msg("Input snapshot loaded")

	return &catalog.Snapshot{
		Shipments: shipments,
		Forecasts: forecasts,
		Batches:   batches,
		Prices:    prices,
		TakenAt:   time.Now(),
	}, nil
}

func analyzeWithCache(ctx context.Context, store *runstore.Store, snap *catalog.Snapshot) (*engine.RunResult, error) {
	fingerprint := snap.Fingerprint()

	if !noCache {
		if cached, ok := store.Get(fingerprint); ok {
			log.Info().Str("run", cached.RunID).Msg("Identical snapshot already analyzed, serving cached run")
			return cached, nil
		}
	}

	e := engine.New(cfg.Params)
	result, err := e.Analyze(ctx, snap)
	if err != nil {
		return nil, err
	}

	if err := store.Put(result); err != nil {
		log.Warn().Err(err).Msg("Failed to persist run, result still returned")
	}
	return result, nil
}

func writeOutputs(result *engine.RunResult, summary report.Summary) error {
	out := os.Stdout
	if outFile != "" && outFile != "-" {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := report.WriteCSV(out, result.Rows); err != nil {
		return err
	}

	if htmlFile != "" {
		f, err := os.Create(htmlFile)
		if err != nil {
			return fmt.Errorf("failed to create HTML report: %w", err)
		}
		if err := report.WriteHTML(f, result, summary); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info().Str("path", htmlFile).Msg("HTML report written")

		if openReport {
			if err := browser.OpenFile(htmlFile); err != nil {
				log.Warn().Err(err).Msg("Could not open report in browser")
			}
		}
	}

	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&shipmentsFile, "shipments", "", "shipment history CSV (required)")
	analyzeCmd.Flags().StringVar(&forecastsFile, "forecasts", "", "forecast history CSV (required)")
	analyzeCmd.Flags().StringVar(&batchesFile, "batches", "", "inventory batch snapshot CSV (required)")
	analyzeCmd.Flags().StringVar(&pricesFile, "prices", "", "product price lookup CSV")
	analyzeCmd.Flags().StringVarP(&outFile, "out", "o", "-", "output CSV path, - for stdout")
	analyzeCmd.Flags().StringVar(&htmlFile, "html", "", "also write an HTML report to this path")
	analyzeCmd.Flags().BoolVar(&openReport, "open", false, "open the HTML report in a browser")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "recompute even if an identical snapshot was already analyzed")

	_ = analyzeCmd.MarkFlagRequired("shipments")
	_ = analyzeCmd.MarkFlagRequired("forecasts")
	_ = analyzeCmd.MarkFlagRequired("batches")

	rootCmd.AddCommand(analyzeCmd)
}
