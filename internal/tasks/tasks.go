// Package tasks runs the process-owned background loops: catalog refresh
// and the self-health-check heartbeat.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Task is a named periodic job. Delay postpones the first run after Start;
// Interval paces subsequent runs. An Interval of zero means run once.
type Task struct {
	Name     string
	Delay    time.Duration
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner owns a set of background tasks for the life of a context.
type Runner struct {
	tasks []Task
	wg    sync.WaitGroup
}

// NewRunner creates an empty runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Add registers a task. Must be called before Start.
func (r *Runner) Add(t Task) {
	r.tasks = append(r.tasks, t)
}

// Start launches one goroutine per task. Tasks stop when ctx is canceled.
func (r *Runner) Start(ctx context.Context) {
	for _, t := range r.tasks {
		r.wg.Add(1)
		go func(t Task) {
			defer r.wg.Done()
			r.loop(ctx, t)
		}(t)
	}
}

// Wait blocks until all task goroutines have returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, t Task) {
	if t.Delay > 0 {
		timer := time.NewTimer(t.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	runOnce(ctx, t)
	if t.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, t)
		}
	}
}

// Failures are logged and absorbed; the next tick always happens.
func runOnce(ctx context.Context, t Task) {
	if err := t.Run(ctx); err != nil {
		log.Warn().Err(err).Str("task", t.Name).Msg("background task failed")
	}
}
