package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is the work a trigger runs
type Job func(ctx context.Context) error

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	// Name labels the job in logs
	Name string
	// At is the local wall-clock time to run, in 24h HH:MM form
	At string
	// CheckInterval is how often the clock is polled
	CheckInterval time.Duration
	// Timeout bounds a single run. Zero means no bound.
	Timeout time.Duration
}

// DailyTrigger runs a job once per calendar day at a fixed time.
// A run that is still in progress when the next check fires is not restarted.
type DailyTrigger struct {
	config DailyTriggerConfig
	hour   int
	minute int
	job    Job
	logger *zap.Logger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger parses config.At and returns a stopped trigger
func NewDailyTrigger(config DailyTriggerConfig, job Job, logger *zap.Logger) (*DailyTrigger, error) {
	at, err := time.Parse("15:04", config.At)
	if err != nil {
		return nil, fmt.Errorf("%w: run time %q", ErrInvalidConfig, config.At)
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &DailyTrigger{
		config: config,
		hour:   at.Hour(),
		minute: at.Minute(),
		job:    job,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Start begins polling the clock
func (t *DailyTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Daily trigger started",
		zap.String("job", t.config.Name),
		zap.String("at", t.config.At),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop cancels a running job and waits for it to return
func (t *DailyTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Daily trigger stopped", zap.String("job", t.config.Name))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *DailyTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndRun(ctx)
		}
	}
}

// checkAndRun runs the job when the clock has reached the scheduled time
// and the job has not run yet today. Returns whether it ran.
func (t *DailyTrigger) checkAndRun(ctx context.Context) bool {
	now := t.now()
	today := now.Format("2006-01-02")

	t.mu.Lock()
	if t.lastRunDate == today {
		t.mu.Unlock()
		return false
	}
	if now.Hour() < t.hour || (now.Hour() == t.hour && now.Minute() < t.minute) {
		t.mu.Unlock()
		return false
	}
	t.lastRunDate = today
	t.mu.Unlock()

	t.run(ctx)
	return true
}

func (t *DailyTrigger) run(ctx context.Context) {
	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	started := t.now()
	t.logger.Info("Running scheduled job", zap.String("job", t.config.Name))
	if err := t.job(ctx); err != nil {
		t.logger.Error("Scheduled job failed",
			zap.String("job", t.config.Name),
			zap.Duration("duration", t.now().Sub(started)),
			zap.Error(err),
		)
		return
	}
	t.logger.Info("Scheduled job completed",
		zap.String("job", t.config.Name),
		zap.Duration("duration", t.now().Sub(started)),
	)
}

// RunNow runs the job immediately, outside the daily schedule
func (t *DailyTrigger) RunNow(ctx context.Context) {
	t.run(ctx)
}
