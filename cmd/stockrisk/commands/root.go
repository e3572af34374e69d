package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"stockrisk/internal/config"
	"stockrisk/internal/logging"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose    bool
	paramsFile string
	cfg        *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "stockrisk",
	Short: "Stockrisk scores inventory batches for backlog risk and attributes responsibility",
	Long: `A batch-inventory risk engine: estimates clearance horizons and multi-horizon
backlog risk per production batch, classifies each batch into a risk tier with a
recommended action, and attributes over-stock responsibility to salespeople by
comparing their forecasts against actual fulfillment.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load(paramsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("stockrisk starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&paramsFile, "params", "", "path to an engine parameters YAML file")
}
