package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/candlebot/candlebot/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig with missing file returned error: %v", err)
	}

	if cfg.Logger.Level != "info" || !cfg.Logger.JSON {
		t.Errorf("logger defaults = %+v, want level info json true", cfg.Logger)
	}
	if cfg.Database.Path != "candlebot.db" {
		t.Errorf("database path = %q, want candlebot.db", cfg.Database.Path)
	}
	if cfg.Market.Timeout != 5*time.Second {
		t.Errorf("market timeout = %v, want 5s", cfg.Market.Timeout)
	}
	if len(cfg.Market.Symbols) != 5 || cfg.Market.Symbols[0] != "BTCUSDT" {
		t.Errorf("market symbols = %v, want the five default markets", cfg.Market.Symbols)
	}
	if !cfg.Signal.RequireHighVolume || cfg.Signal.EMAFast != 20 || cfg.Signal.EMASlow != 50 {
		t.Errorf("signal defaults = %+v", cfg.Signal)
	}
	if cfg.Telegram.Enabled() {
		t.Error("telegram enabled without a token")
	}

	scan, ok := cfg.Jobs["market_scan"]
	if !ok {
		t.Fatal("default jobs missing market_scan")
	}
	// The shipped cadence is every minute, kept literally.
	if scan.Schedule != "* * * * *" {
		t.Errorf("market_scan schedule = %q, want * * * * *", scan.Schedule)
	}
	if !scan.Enabled || scan.Builtin != config.TaskMarketScan {
		t.Errorf("market_scan job = %+v", scan)
	}

	digest, ok := cfg.Jobs["daily_digest"]
	if !ok {
		t.Fatal("default jobs missing daily_digest")
	}
	if digest.Enabled {
		t.Error("daily_digest should be disabled by default")
	}
}

func TestLoadConfigSecretEnvBinding(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123456789:token-from-env")
	t.Setenv("TELEGRAM_CHAT_ID", "-1000042")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Telegram.Token != "123456789:token-from-env" {
		t.Errorf("telegram token = %q, want value from TELEGRAM_TOKEN", cfg.Telegram.Token)
	}
	if cfg.Telegram.ChatID != "-1000042" {
		t.Errorf("telegram chat id = %q, want value from TELEGRAM_CHAT_ID", cfg.Telegram.ChatID)
	}
	if !cfg.Telegram.Enabled() {
		t.Error("telegram should be enabled when a token is set")
	}
}

func TestLoadConfigFileOverrides(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  json: false
market:
  symbols: ["BTCUSDT"]
  timeout: 7s
signal:
  require_high_volume: false
  rsi_bull: 60
jobs:
  market_scan:
    schedule: "*/5 * * * *"
    enabled: true
    builtin: market_scan
    overlap: skip
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Logger.Level != "debug" || cfg.Logger.JSON {
		t.Errorf("logger = %+v, want debug text", cfg.Logger)
	}
	if len(cfg.Market.Symbols) != 1 || cfg.Market.Symbols[0] != "BTCUSDT" {
		t.Errorf("market symbols = %v, want [BTCUSDT]", cfg.Market.Symbols)
	}
	if cfg.Market.Timeout != 7*time.Second {
		t.Errorf("market timeout = %v, want 7s", cfg.Market.Timeout)
	}
	if cfg.Signal.RequireHighVolume {
		t.Error("require_high_volume should be overridden to false")
	}
	if cfg.Signal.RSIBull != 60 {
		t.Errorf("rsi_bull = %v, want 60", cfg.Signal.RSIBull)
	}

	scan := cfg.Jobs["market_scan"]
	if scan.Schedule != "*/5 * * * *" {
		t.Errorf("market_scan schedule = %q, want */5 * * * *", scan.Schedule)
	}
	if scan.Overlap != "skip" {
		t.Errorf("market_scan overlap = %q, want skip", scan.Overlap)
	}
}

func TestLoadConfigCommandJob(t *testing.T) {
	path := writeConfig(t, `
jobs:
  legacy_bot:
    schedule: "* * * * *"
    enabled: true
    command:
      setup:
        - ["pip", "install", "requests", "pandas"]
      run: ["python", "main.py"]
      env:
        TELEGRAM_TOKEN: "${TELEGRAM_TOKEN}"
        TELEGRAM_CHAT_ID: "${TELEGRAM_CHAT_ID}"
        Py_Colors: "1"
      timeout: 3m
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	job, ok := cfg.Jobs["legacy_bot"]
	if !ok {
		t.Fatal("jobs missing legacy_bot")
	}
	if job.Command == nil {
		t.Fatal("legacy_bot command spec not parsed")
	}
	if len(job.Command.Setup) != 1 || job.Command.Setup[0][0] != "pip" {
		t.Errorf("setup = %v, want one pip install command", job.Command.Setup)
	}
	if len(job.Command.Run) != 2 || job.Command.Run[1] != "main.py" {
		t.Errorf("run = %v, want [python main.py]", job.Command.Run)
	}
	if job.Command.Env["TELEGRAM_TOKEN"] != "${TELEGRAM_TOKEN}" {
		t.Errorf("env template = %q, want ${TELEGRAM_TOKEN} kept verbatim", job.Command.Env["TELEGRAM_TOKEN"])
	}
	if job.Command.Env["TELEGRAM_CHAT_ID"] != "${TELEGRAM_CHAT_ID}" {
		t.Errorf("env template = %q, want ${TELEGRAM_CHAT_ID} kept verbatim", job.Command.Env["TELEGRAM_CHAT_ID"])
	}
	// Env keys must keep their exact case; they name environment variables.
	if job.Command.Env["Py_Colors"] != "1" {
		t.Errorf("env = %v, want the Py_Colors key preserved case-exactly", job.Command.Env)
	}
	if job.Command.Timeout != 3*time.Minute {
		t.Errorf("timeout = %v, want 3m", job.Command.Timeout)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{
			name: "invalid log level",
			content: `
log:
  level: loud
`,
		},
		{
			name: "invalid cron expression",
			content: `
jobs:
  broken:
    schedule: "not a cron"
    builtin: market_scan
`,
		},
		{
			name: "unknown builtin task",
			content: `
jobs:
  mystery:
    schedule: "* * * * *"
    builtin: does_not_exist
`,
		},
		{
			name: "ema windows inverted",
			content: `
signal:
  ema_fast: 50
  ema_slow: 20
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := config.LoadConfig(path); err == nil {
				t.Error("LoadConfig accepted invalid configuration")
			}
		})
	}
}
