package database

import "time"

// Trigger sources for a task run.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerChat     = "chat"
)

// Task run statuses.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusTimeout  = "timeout"
	StatusCanceled = "canceled"
)

// TaskRun records one execution of a job: who fired it, how it ended, and
// what it produced. Rows are append-only reporting; the scheduler never
// reads them to decide whether to fire.
type TaskRun struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	JobName    string    `db:"job_name"`
	Trigger    string    `db:"trigger_source"`
	Status     string    `db:"status"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	DurationMS int64     `db:"duration_ms"`
	Output     string    `db:"output"`
	Error      string    `db:"error"`
}

// Signal records one LONG or SHORT strategy signal produced by a market
// scan, including the indicator values it was derived from and the
// rendered report that was delivered.
type Signal struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	Symbol    string  `db:"symbol"`
	Direction string  `db:"direction"`
	LowVolume bool    `db:"low_volume"`
	Price     float64 `db:"price"`
	RSI       float64 `db:"rsi"`
	EMAFast   float64 `db:"ema_fast"`
	EMASlow   float64 `db:"ema_slow"`
	Volume    float64 `db:"volume"`
	VolumeAvg float64 `db:"volume_avg"`
	Message   string  `db:"message"`
}
