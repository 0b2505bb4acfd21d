package config

import "time"

// Builtin task names usable in job configuration.
const (
	TaskMarketScan    = "market_scan"
	TaskDailyDigest   = "daily_digest"
	TaskDBMaintenance = "db_maintenance"
)

// Default values for configuration.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultDBPath = "candlebot.db"

	DefaultBinanceURL    = "https://api.binance.com"
	DefaultCoinDCXURL    = "https://api.coindcx.com"
	DefaultMarketTimeout = 5 * time.Second // matches the upstream API request timeout
	DefaultInterval      = "1m"
	DefaultCandleLimit   = 100

	DefaultRequireHighVolume = true
	DefaultPriceBuffer       = 0.001
	DefaultEMAFast           = 20
	DefaultEMASlow           = 50
	DefaultRSIPeriod         = 14
	DefaultRSIBull           = 55
	DefaultRSIBear           = 45
	DefaultVolumeWindow      = 20
	DefaultVolumeFactor      = 1.5
	DefaultTrendWindow       = 3

	DefaultGeminiModel      = "gemini-2.0-flash"
	DefaultGeminiMaxRetries = 2
	DefaultGeminiRetryDelay = 5 // seconds

	DefaultRetentionDays = 90

	// DefaultScanSchedule is the shipped cadence of the market scan job.
	// The upstream workflow declares "every 5 minutes" in a comment but
	// actually fires every minute; the literal expression wins.
	DefaultScanSchedule        = "* * * * *"
	DefaultMaintenanceSchedule = "0 4 * * *"
	DefaultDigestSchedule      = "0 8 * * *"
)

// DefaultSymbols are the markets scanned when none are configured.
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "SEIUSDT", "POLUSDT"}
