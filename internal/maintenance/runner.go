// Package maintenance runs periodic housekeeping against the database:
// compacting stale rate-limit windows and purging long-expired sessions.
// Neither task affects request outcomes; they only bound table growth.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/arelclub/clubgate/internal/observability"
)

// taskTimeout bounds a single task run.
const taskTimeout = 30 * time.Second

// Task is one housekeeping job. Run returns how many rows it removed.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// Runner executes its tasks on a fixed interval until its context ends.
type Runner struct {
	interval time.Duration
	tasks    []Task
	metrics  *observability.Metrics
}

// NewRunner creates a runner. metrics may be nil.
func NewRunner(interval time.Duration, metrics *observability.Metrics, tasks ...Task) *Runner {
	return &Runner{interval: interval, tasks: tasks, metrics: metrics}
}

// Run executes every task once immediately, then on each tick. It returns nil
// when ctx is cancelled; task failures are logged and never stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("maintenance runner started",
		slog.Duration("interval", r.interval),
		slog.Int("tasks", len(r.tasks)),
	)

	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("maintenance runner stopped")
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes every task sequentially.
func (r *Runner) RunOnce(ctx context.Context) {
	for _, task := range r.tasks {
		if ctx.Err() != nil {
			return
		}
		r.runTask(ctx, task)
	}
}

func (r *Runner) runTask(ctx context.Context, task Task) {
	ctx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	start := time.Now()
	n, err := task.Run(ctx)
	r.metrics.MaintenanceRun(task.Name, err)

	if err != nil {
		slog.Error("maintenance task failed",
			slog.String("task", task.Name),
			slog.Any("error", err),
		)
		return
	}
	if n > 0 {
		slog.Info("maintenance task completed",
			slog.String("task", task.Name),
			slog.Int64("removed", n),
			slog.Duration("took", time.Since(start)),
		)
	}
}
