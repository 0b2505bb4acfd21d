// Package config provides configuration loading, validation, and management
// for the candlebot application. It handles reading from YAML files,
// environment variables, default values, and validating configuration
// parameters.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration parameters for all components
// of the candlebot system, including logging, storage, Telegram delivery,
// market data access, signal evaluation, and the job schedule.
type Config struct {
	Logger      LoggerConfig         `mapstructure:"log"`
	Database    DatabaseConfig       `mapstructure:"database"`
	Telegram    TelegramConfig       `mapstructure:"telegram"`
	Market      MarketConfig         `mapstructure:"market"`
	Signal      SignalConfig         `mapstructure:"signal"`
	Gemini      GeminiConfig         `mapstructure:"gemini"`
	Maintenance MaintenanceConfig    `mapstructure:"maintenance"`
	Jobs        map[string]JobConfig `mapstructure:"jobs" validate:"dive"`
}

// LoggerConfig controls log output level and format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds SQLite storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TelegramConfig holds the delivery credentials and the optional command-bot
// settings. Token and ChatID resolve from the TELEGRAM_TOKEN and
// TELEGRAM_CHAT_ID environment variables when not set in the config file.
// When Token is empty the Telegram surface is disabled entirely; when
// AdminUserID is zero the command bot is disabled but delivery still works.
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	ChatID      string `mapstructure:"chat_id"`
	AdminUserID int64  `mapstructure:"admin_id" validate:"omitempty,gt=0"`

	// BotInfo is populated at startup from the Telegram API; it is not a
	// config file field.
	BotInfo *models.User `mapstructure:"-"`
}

// Enabled reports whether the Telegram delivery surface is configured.
func (c TelegramConfig) Enabled() bool {
	return c.Token != ""
}

// MarketConfig holds market data source settings for the scan task.
type MarketConfig struct {
	BinanceURL  string        `mapstructure:"binance_url" validate:"required,url"`
	CoinDCXURL  string        `mapstructure:"coindcx_url" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"required,min=1s,max=1m"`
	Symbols     []string      `mapstructure:"symbols" validate:"required,min=1,dive,required"`
	Interval    string        `mapstructure:"interval" validate:"required"`
	CandleLimit int           `mapstructure:"candle_limit" validate:"required,min=50,max=1000"`
}

// SignalConfig holds the tunable parameters of the signal evaluation
// strategy. The defaults reproduce the EMA20/EMA50 + RSI(14) strategy with
// a 0.1% price buffer and 1.5x volume confirmation.
type SignalConfig struct {
	RequireHighVolume bool    `mapstructure:"require_high_volume"`
	PriceBuffer       float64 `mapstructure:"price_buffer" validate:"gte=0,lt=1"`
	EMAFast           int     `mapstructure:"ema_fast" validate:"required,min=2"`
	EMASlow           int     `mapstructure:"ema_slow" validate:"required,min=2,gtfield=EMAFast"`
	RSIPeriod         int     `mapstructure:"rsi_period" validate:"required,min=2"`
	RSIBull           float64 `mapstructure:"rsi_bull" validate:"required,gt=0,lt=100"`
	RSIBear           float64 `mapstructure:"rsi_bear" validate:"required,gt=0,lt=100"`
	VolumeWindow      int     `mapstructure:"volume_window" validate:"required,min=2"`
	VolumeFactor      float64 `mapstructure:"volume_factor" validate:"required,gt=0"`
	TrendWindow       int     `mapstructure:"trend_window" validate:"required,min=1"`
}

// GeminiConfig holds settings for the optional Gemini digest writer.
// When APIKey is empty the daily digest falls back to plain formatting.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	ModelName         string  `mapstructure:"model" validate:"required"`
	Temperature       float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	SystemInstruction string  `mapstructure:"system_instruction"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=300"`
}

// MaintenanceConfig controls run-history retention.
type MaintenanceConfig struct {
	RetentionDays int `mapstructure:"retention_days" validate:"required,min=1"`
}

// JobConfig declares one scheduled job. Exactly one of Builtin or Command
// must be set. The schedule is a five-field cron expression and is honored
// literally; the scheduler logs each job's computed next run so the
// operator can see the actual cadence.
type JobConfig struct {
	Schedule string         `mapstructure:"schedule" validate:"required,cron"`
	Enabled  bool           `mapstructure:"enabled"`
	Overlap  string         `mapstructure:"overlap" validate:"omitempty,oneof=allow skip"`
	Builtin  string         `mapstructure:"builtin" validate:"required_without=Command,excluded_with=Command"`
	Command  *CommandConfig `mapstructure:"command"`
}

// CommandConfig declares an external entry point job: setup commands run in
// order before the entry point, env values are resolved against the process
// environment on every firing.
type CommandConfig struct {
	Setup   [][]string        `mapstructure:"setup" validate:"dive,min=1"`
	Run     []string          `mapstructure:"run" validate:"required,min=1"`
	Env     map[string]string `mapstructure:"env"`
	Workdir string            `mapstructure:"workdir"`
	Timeout time.Duration     `mapstructure:"timeout" validate:"omitempty,min=1s"`
}
