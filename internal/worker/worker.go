// Package worker runs at most one job at a time in the background.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrBusy is returned when a job is already running
var ErrBusy = errors.New("a job is already running")

// ErrStopped is returned after Stop
var ErrStopped = errors.New("worker stopped")

// Job is one unit of background work
type Job struct {
	Name string
	Run  func(ctx context.Context) error
	// Done is called with the job result on the worker goroutine
	Done func(err error)
}

// Worker owns a single goroutine; a submit only succeeds while no job is accepted
type Worker struct {
	jobs    chan Job
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.Mutex
	busy    bool
	stopped bool
	running string
	logger  zerolog.Logger
}

// New creates a stopped worker
func New() *Worker {
	return &Worker{
		jobs:   make(chan Job, 1),
		stop:   make(chan struct{}),
		logger: log.With().Str("component", "worker").Logger(),
	}
}

// Start launches the worker goroutine; jobs receive ctx
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			case job := <-w.jobs:
				w.execute(ctx, job)
			}
		}
	}()
}

func (w *Worker) execute(ctx context.Context, job Job) {
	// busy stays set until Done returns
	defer w.release()

	w.logger.Info().Str("job", job.Name).Msg("Job started")
	err := job.Run(ctx)
	if err != nil {
		w.logger.Error().Err(err).Str("job", job.Name).Msg("Job failed")
	} else {
		w.logger.Info().Str("job", job.Name).Msg("Job finished")
	}
	if job.Done != nil {
		job.Done(err)
	}
}

// TrySubmit hands job to the worker if no other job is queued or running
func (w *Worker) TrySubmit(job Job) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrStopped
	}
	if w.busy {
		return ErrBusy
	}
	w.busy = true
	w.running = job.Name
	// Capacity 1 and the busy flag guarantee this send never blocks
	w.jobs <- job
	return nil
}

// Running returns the name of the accepted job, or "" when idle
func (w *Worker) Running() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) release() {
	w.mu.Lock()
	w.busy = false
	w.running = ""
	w.mu.Unlock()
}

// Stop waits for the current job to finish and ends the worker
func (w *Worker) Stop() {
	w.once.Do(func() {
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
		close(w.stop)
	})
	w.wg.Wait()
}
