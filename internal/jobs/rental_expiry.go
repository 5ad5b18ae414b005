package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RentalExpirer cancels pending rentals that were never approved
type RentalExpirer interface {
	ExpirePending(ctx context.Context) (int, error)
}

// RunRecorder observes job executions
type RunRecorder interface {
	JobRun(job string, seconds float64, err error)
}

const rentalExpiryJob = "rental_expiry"

// RentalExpiryJob periodically cancels pending rentals older than the
// configured pending TTL, freeing their claim on the instance.
type RentalExpiryJob struct {
	rentals    RentalExpirer
	recorder   RunRecorder
	interval   time.Duration
	startDelay time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

// NewRentalExpiryJob creates a new rental expiry job. recorder may be nil.
func NewRentalExpiryJob(rentals RentalExpirer, recorder RunRecorder, interval time.Duration) *RentalExpiryJob {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RentalExpiryJob{
		rentals:    rentals,
		recorder:   recorder,
		interval:   interval,
		startDelay: 5 * time.Second,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the expiry loop
func (j *RentalExpiryJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	slog.Info("rental expiry job started", slog.Duration("interval", j.interval))
}

// Stop gracefully stops the job, waiting for an in-flight run
func (j *RentalExpiryJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	slog.Info("rental expiry job stopped")
}

func (j *RentalExpiryJob) run() {
	defer j.wg.Done()

	// Let the rest of the server come up before the first pass
	select {
	case <-time.After(j.startDelay):
	case <-j.stopCh:
		return
	}
	j.tick()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.tick()
		case <-j.stopCh:
			return
		}
	}
}

func (j *RentalExpiryJob) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		slog.Error("expiring pending rentals", slog.String("error", err.Error()))
	}
}

// RunOnce expires pending rentals once and reports how many were cancelled
func (j *RentalExpiryJob) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := j.rentals.ExpirePending(ctx)
	if j.recorder != nil {
		j.recorder.JobRun(rentalExpiryJob, time.Since(start).Seconds(), err)
	}
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("expired pending rentals", slog.Int("count", n))
	}
	return n, nil
}

// IsRunning returns whether the job is running
func (j *RentalExpiryJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
