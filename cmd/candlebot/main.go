// Package main contains the entrypoint for the candlebot daemon and its
// manual-dispatch mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/candlebot/candlebot/internal/bot"
	"github.com/candlebot/candlebot/internal/bot/handlers"
	"github.com/candlebot/candlebot/internal/bot/tasks"
	"github.com/candlebot/candlebot/internal/config"
	"github.com/candlebot/candlebot/internal/database"
	"github.com/candlebot/candlebot/internal/gemini"
	"github.com/candlebot/candlebot/internal/logger"
	"github.com/candlebot/candlebot/internal/market"
	"github.com/candlebot/candlebot/internal/runner"
	"github.com/candlebot/candlebot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components (config, logger, db, clients,
// scheduler), dispatches into daemon or one-shot mode, and returns an exit
// code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	runJob := flag.String("run", "", "Run the named job once and exit")
	listJobs := flag.Bool("jobs", false, "List configured jobs and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	binance := market.NewBinanceClient(cfg.Market.BinanceURL, cfg.Market.Timeout, log)
	coindcx := market.NewCoinDCXClient(cfg.Market.CoinDCXURL, cfg.Market.Timeout, log)

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}
	if gemClient == nil {
		log.Info("Gemini not configured, digest will use plain formatting")
	}

	// The Telegram surface is optional: no token means no delivery and no
	// command bot; token without admin means delivery only.
	var tg *tgbot.Bot
	var notifier tasks.Notifier
	if cfg.Telegram.Enabled() {
		botOpts := []tgbot.Option{
			tgbot.WithMiddlewares(logger.Middleware(log)),
		}
		tg, err = telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
		if err != nil {
			log.Error("Failed to create Telegram bot", "error", err)
			return 1
		}

		cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
		if err != nil {
			log.Error("Failed to get bot info", "error", err)
			return 1
		}
		log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

		if cfg.Telegram.ChatID != "" {
			n, err := telegram.NewNotifier(tg, cfg.Telegram.ChatID, log)
			if err != nil {
				log.Error("Failed to create notifier", "error", err)
				return 1
			}
			notifier = n
		} else {
			log.Warn("No destination chat configured, signal delivery disabled")
		}
	} else {
		log.Warn("Telegram token not configured, delivery and command bot disabled")
	}

	tDeps := tasks.TaskDeps{
		Logger:       log,
		Config:       cfg,
		Store:        store,
		Candles:      binance,
		Prices:       coindcx,
		GeminiClient: gemClient,
		Notifier:     notifier,
	}

	cmdRunner := runner.NewRunner(log)
	sched, err := bot.NewScheduler(log, cfg.Jobs, tasks.RegisterAllTasks(tDeps), cmdRunner, store, logger.NewGocronLogger(log))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	if *listJobs {
		for _, j := range sched.Jobs() {
			state := "enabled"
			if !j.Enabled {
				state = "disabled"
			}
			fmt.Printf("%s\t%s\t%s\t%q\n", j.Name, j.Kind, state, j.Schedule)
		}
		return 0
	}

	// Manual dispatch: exactly one execution of the named job, exit code
	// from the run outcome.
	if *runJob != "" {
		log.Info("Manual dispatch", "job_name", *runJob)
		if err := sched.RunOnce(ctx, *runJob, database.TriggerManual); err != nil {
			log.Error("Job run failed", "job_name", *runJob, "error", err)
			return 1
		}
		log.Info("Job run succeeded", "job_name", *runJob)
		return 0
	}

	// The command bot needs an admin to gate the privileged commands; with
	// no admin configured the daemon runs scheduler-only.
	if tg != nil && cfg.Telegram.AdminUserID != 0 {
		hDeps := handlers.HandlerDeps{
			Logger:     log,
			Config:     cfg,
			Store:      store,
			Dispatcher: sched,
		}
		if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
			log.Error("Failed to register Telegram handlers", "error", err)
			return 1
		}
	} else if tg != nil {
		log.Warn("No admin configured, command bot disabled")
		tg = nil
	}

	app := bot.NewBot(log, tg, sched)

	log.Info("Starting candlebot...")
	runErr := app.Run(ctx)
	log.Info("Run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
