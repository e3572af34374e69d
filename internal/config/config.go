package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Params holds every tunable constant of the scoring engine. The numeric
// defaults are carried-over business heuristics with no formal derivation;
// they are exposed here precisely so the business owner can confirm or
// adjust them without a code change.
type Params struct {
	MinDailySales    float64 `mapstructure:"min_daily_sales"`
	MinSeasonalIndex float64 `mapstructure:"min_seasonal_index"`
	MaxForecastBias  float64 `mapstructure:"max_forecast_bias"`

	CriticalScore int `mapstructure:"critical_score"`
	HighScore     int `mapstructure:"high_score"`
	MediumScore   int `mapstructure:"medium_score"`
	LowScore      int `mapstructure:"low_score"`

	DefaultRegion string `mapstructure:"default_region"`
	DefaultOwner  string `mapstructure:"default_owner"`

	ForecastWindowBackDays    int `mapstructure:"forecast_window_back_days"`
	ForecastWindowForwardDays int `mapstructure:"forecast_window_forward_days"`
	ActualsWindowDays         int `mapstructure:"actuals_window_days"`
	BiasForecastWindowDays    int `mapstructure:"bias_forecast_window_days"`
	BiasActualsWindowDays     int `mapstructure:"bias_actuals_window_days"`

	Workers      int `mapstructure:"workers"`
	RunRetention int `mapstructure:"run_retention"`
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath string
	LogDir   string
	CacheDir string
	Params   Params
}

// Load loads the configuration from .env files, environment variables and
// an optional engine parameters file.
func Load(paramsFile string) (*AppConfig, error) {
	// 1. Try to load from the executable's directory first
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := getEnv("DATA_PATH", "")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	params, err := LoadParams(paramsFile)
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		DataPath: dataPath,
		LogDir:   logDir,
		CacheDir: cacheDir,
		Params:   params,
	}, nil
}

// LoadParams reads engine tunables from an optional YAML file with
// programmatic defaults and STOCKRISK_* environment overrides.
func LoadParams(path string) (Params, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STOCKRISK")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Params{}, err
		}
		log.Debug().Str("path", path).Msg("Loaded engine parameters file")
	}

	var p Params
	if err := v.Unmarshal(&p); err != nil {
		return Params{}, err
	}
	return p, nil
}

// DefaultParams returns the engine defaults without touching files or env.
func DefaultParams() Params {
	v := viper.New()
	setDefaults(v)
	var p Params
	_ = v.Unmarshal(&p)
	return p
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("min_daily_sales", 0.1)
	v.SetDefault("min_seasonal_index", 0.3)
	v.SetDefault("max_forecast_bias", 1.0)

	v.SetDefault("critical_score", 80)
	v.SetDefault("high_score", 60)
	v.SetDefault("medium_score", 40)
	v.SetDefault("low_score", 20)

	v.SetDefault("default_region", "Unassigned Territory")
	v.SetDefault("default_owner", "Unassigned")

	v.SetDefault("forecast_window_back_days", 90)
	v.SetDefault("forecast_window_forward_days", 30)
	v.SetDefault("actuals_window_days", 90)
	v.SetDefault("bias_forecast_window_days", 90)
	v.SetDefault("bias_actuals_window_days", 30)

	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("run_retention", 32)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
