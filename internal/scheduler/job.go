// Package scheduler provides the process-wide periodic job engine that
// drives the expiry and cleanup sweeps. Jobs are explicit long-lived objects
// constructed once at startup and injected wherever they need to be queried
// or stopped; there are no package-level singletons.
//
// Tick discipline:
//   - Start is idempotent: a second Start warns and does nothing, so two
//     concurrent tickers for the same job cannot exist.
//   - The first execution fires immediately, then on every interval.
//   - Ticks never overlap: a firing that arrives while the previous tick is
//     still executing is skipped (single-flight), and the skip is counted.
//   - A tick that fails is logged and isolated; the job keeps ticking.
//   - Stop cancels future ticks and waits for an in-flight tick up to a
//     bounded timeout, then returns regardless.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// errPanic marks a tick that ended in a recovered panic.
var errPanic = errors.New("tick panicked")

// stopWait bounds how long Stop blocks on an in-flight tick.
const stopWait = 5 * time.Second

// defaultTickTimeout bounds a single tick so one stuck data-store call
// cannot starve every subsequent firing.
const defaultTickTimeout = time.Minute

// RunFunc is one sweep execution. It reports how many records it affected.
type RunFunc func(ctx context.Context) (int64, error)

// Job is a periodic background task with single-flight ticks.
type Job struct {
	name     string
	interval time.Duration
	run      RunFunc
	log      zerolog.Logger

	// TickTimeout overrides the per-tick deadline; zero means the default.
	TickTimeout time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	loopWG  sync.WaitGroup
	tickWG  sync.WaitGroup

	busy atomic.Bool

	// status fields, guarded by mu
	lastTick     time.Time
	lastErr      error
	lastAffected int64
	runs         int64
	skips        int64
}

// New constructs a Job named name that executes run every interval once
// started.
func New(name string, interval time.Duration, run RunFunc, log zerolog.Logger) *Job {
	return &Job{
		name:     name,
		interval: interval,
		run:      run,
		log:      log.With().Str("job", name).Logger(),
	}
}

// Name returns the job's name.
func (j *Job) Name() string { return j.name }

// Start launches the job: one immediate execution, then a tick every
// interval. Starting an already-running job logs a warning and does nothing.
func (j *Job) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		j.log.Warn().Msg("job already running")
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	stop := j.stopCh
	j.mu.Unlock()

	j.log.Info().Dur("interval", j.interval).Msg("job started")

	j.fire()

	j.loopWG.Add(1)
	go func() {
		defer j.loopWG.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				j.fire()
			}
		}
	}()
}

// Stop cancels future ticks and waits for an in-flight tick up to a bounded
// timeout. Stopping a job that is not running is a no-op.
func (j *Job) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	close(j.stopCh)
	j.mu.Unlock()

	j.loopWG.Wait()

	// Await the in-flight tick, but never indefinitely.
	done := make(chan struct{})
	go func() {
		j.tickWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		j.log.Info().Msg("job stopped")
	case <-time.After(stopWait):
		j.log.Warn().Msg("job stopped with tick still in flight")
	}
}

// fire runs one tick unless the previous one is still executing, in which
// case the firing is skipped and counted.
func (j *Job) fire() {
	if !j.busy.CompareAndSwap(false, true) {
		j.mu.Lock()
		j.skips++
		j.mu.Unlock()
		j.log.Warn().Msg("tick skipped: previous tick still running")
		return
	}

	j.tickWG.Add(1)
	go func() {
		defer j.tickWG.Done()
		defer j.busy.Store(false)
		j.execute()
	}()
}

// execute performs one sweep with a deadline, recording the outcome. Errors
// and panics are contained here; they must never take the process down or
// halt the ticker.
func (j *Job) execute() {
	timeout := j.TickTimeout
	if timeout <= 0 {
		timeout = defaultTickTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			j.log.Error().Interface("panic", rec).Msg("tick panicked")
			j.mu.Lock()
			j.lastErr = errPanic
			j.mu.Unlock()
		}
	}()

	n, err := j.run(ctx)

	j.mu.Lock()
	j.lastTick = time.Now()
	j.lastErr = err
	j.lastAffected = n
	j.runs++
	j.mu.Unlock()

	if err != nil {
		j.log.Error().Err(err).Msg("tick failed")
		return
	}
	if n > 0 {
		j.log.Info().Int64("affected", n).Msg("tick completed")
	}
}

// Status is a point-in-time snapshot of a job's state for the introspection
// endpoint.
type Status struct {
	Name         string    `json:"name"`
	Running      bool      `json:"running"`
	Interval     string    `json:"interval"`
	LastTick     time.Time `json:"last_tick"`
	LastError    string    `json:"last_error,omitempty"`
	LastAffected int64     `json:"last_affected"`
	Runs         int64     `json:"runs"`
	Skips        int64     `json:"skips"`
}

// Status returns the job's current state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	st := Status{
		Name:         j.name,
		Running:      j.running,
		Interval:     j.interval.String(),
		LastTick:     j.lastTick,
		LastAffected: j.lastAffected,
		Runs:         j.runs,
		Skips:        j.skips,
	}
	if j.lastErr != nil {
		st.LastError = j.lastErr.Error()
	}
	return st
}
