package logger

import (
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// gocronAdapter bridges gocron's internal logging onto slog.
type gocronAdapter struct {
	log *slog.Logger
}

// NewGocronLogger returns a gocron.Logger that forwards to the given slog
// logger under the "gocron" component.
func NewGocronLogger(log *slog.Logger) gocron.Logger {
	return &gocronAdapter{log: log.With("component", "gocron")}
}

func (a *gocronAdapter) Debug(msg string, args ...any) { a.log.Debug(msg, args...) }
func (a *gocronAdapter) Error(msg string, args ...any) { a.log.Error(msg, args...) }
func (a *gocronAdapter) Info(msg string, args ...any)  { a.log.Info(msg, args...) }
func (a *gocronAdapter) Warn(msg string, args ...any)  { a.log.Warn(msg, args...) }
