package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at configPath (optional)
// 3. CANDLEBOT_* environment variables
//
// The two delivery secrets additionally bind to their canonical unprefixed
// environment names, TELEGRAM_TOKEN and TELEGRAM_CHAT_ID.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CANDLEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The secrets keep their upstream names so the same environment works
	// unchanged; the prefixed names still override when both are set.
	if err := v.BindEnv("telegram.token", "CANDLEBOT_TELEGRAM_TOKEN", "TELEGRAM_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind telegram token env: %w", err)
	}
	if err := v.BindEnv("telegram.chat_id", "CANDLEBOT_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind telegram chat id env: %w", err)
	}

	// Missing config file is fine, defaults plus environment carry the run.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %q: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := restoreEnvKeys(cfg, configPath); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := validateJobs(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// restoreEnvKeys re-reads the jobs section of the config file with
// case-preserving YAML decoding and puts the original command env keys back:
// viper lowercases map keys during Unmarshal, which would mangle environment
// variable names like TELEGRAM_TOKEN into telegram_token.
func restoreEnvKeys(cfg *Config, configPath string) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to re-read config file %q: %w", configPath, err)
	}

	var doc struct {
		Jobs map[string]struct {
			Command *struct {
				Env map[string]string `yaml:"env"`
			} `yaml:"command"`
		} `yaml:"jobs"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse jobs section of %q: %w", configPath, err)
	}

	for name, parsed := range doc.Jobs {
		if parsed.Command == nil || len(parsed.Command.Env) == 0 {
			continue
		}
		// Viper also lowercases the job names themselves.
		key := strings.ToLower(name)
		job, ok := cfg.Jobs[key]
		if !ok || job.Command == nil {
			continue
		}
		job.Command.Env = parsed.Command.Env
		cfg.Jobs[key] = job
	}
	return nil
}

// validateJobs enforces the cross-field constraints the struct tags cannot
// express: builtin jobs must reference a known task name.
func validateJobs(cfg *Config) error {
	known := map[string]bool{
		TaskMarketScan:    true,
		TaskDailyDigest:   true,
		TaskDBMaintenance: true,
	}
	for name, job := range cfg.Jobs {
		if job.Builtin != "" && !known[job.Builtin] {
			return fmt.Errorf("job %q references unknown builtin task %q", name, job.Builtin)
		}
		if job.Builtin == "" && job.Command == nil {
			return fmt.Errorf("job %q must declare either a builtin task or a command", name)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("market.binance_url", DefaultBinanceURL)
	v.SetDefault("market.coindcx_url", DefaultCoinDCXURL)
	v.SetDefault("market.timeout", DefaultMarketTimeout)
	v.SetDefault("market.symbols", DefaultSymbols)
	v.SetDefault("market.interval", DefaultInterval)
	v.SetDefault("market.candle_limit", DefaultCandleLimit)

	v.SetDefault("signal.require_high_volume", DefaultRequireHighVolume)
	v.SetDefault("signal.price_buffer", DefaultPriceBuffer)
	v.SetDefault("signal.ema_fast", DefaultEMAFast)
	v.SetDefault("signal.ema_slow", DefaultEMASlow)
	v.SetDefault("signal.rsi_period", DefaultRSIPeriod)
	v.SetDefault("signal.rsi_bull", DefaultRSIBull)
	v.SetDefault("signal.rsi_bear", DefaultRSIBear)
	v.SetDefault("signal.volume_window", DefaultVolumeWindow)
	v.SetDefault("signal.volume_factor", DefaultVolumeFactor)
	v.SetDefault("signal.trend_window", DefaultTrendWindow)

	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", 1.0)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_delay_seconds", DefaultGeminiRetryDelay)

	v.SetDefault("maintenance.retention_days", DefaultRetentionDays)

	v.SetDefault("jobs.market_scan.schedule", DefaultScanSchedule)
	v.SetDefault("jobs.market_scan.enabled", true)
	v.SetDefault("jobs.market_scan.builtin", TaskMarketScan)

	v.SetDefault("jobs.db_maintenance.schedule", DefaultMaintenanceSchedule)
	v.SetDefault("jobs.db_maintenance.enabled", true)
	v.SetDefault("jobs.db_maintenance.builtin", TaskDBMaintenance)

	v.SetDefault("jobs.daily_digest.schedule", DefaultDigestSchedule)
	v.SetDefault("jobs.daily_digest.enabled", false)
	v.SetDefault("jobs.daily_digest.builtin", TaskDailyDigest)
}
