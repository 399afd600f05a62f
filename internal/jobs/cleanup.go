package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/metrics"
)

const (
	cleanupTimeout = 30 * time.Second
	stopTimeout    = 5 * time.Second
)

// TokenPurger deletes unused invitation tokens that expired before a cutoff.
type TokenPurger interface {
	DeleteExpiredUnused(ctx context.Context, expiredBefore time.Time) (int64, error)
}

// CleanupJob purges long expired invitation tokens on a cron schedule.
type CleanupJob struct {
	tokens    TokenPurger
	retention time.Duration
	metrics   *metrics.Metrics
	cron      *cron.Cron
	schedule  string
	now       func() time.Time

	// tracks the run kicked off by Start, which cron does not own
	wg sync.WaitGroup
}

// NewCleanupJob accepts standard five field expressions and descriptors
// such as "@every 5m" or "@daily".
func NewCleanupJob(tokens TokenPurger, schedule string, retention time.Duration, m *metrics.Metrics) (*CleanupJob, error) {
	j := &CleanupJob{
		tokens:    tokens,
		retention: retention,
		metrics:   m,
		cron:      cron.New(),
		schedule:  schedule,
		now:       time.Now,
	}
	if _, err := j.cron.AddFunc(schedule, j.cleanup); err != nil {
		return nil, fmt.Errorf("parse cleanup schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *CleanupJob) Start() {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.cleanup()
	}()
	j.cron.Start()
	log.Info().Str("schedule", j.schedule).Dur("retention", j.retention).Msg("cleanup job started")
}

// Stop waits for a running cleanup to finish, bounded by stopTimeout.
func (j *CleanupJob) Stop() {
	cronDone := j.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		j.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		log.Warn().Msg("cleanup job still running at shutdown")
	}
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	count, err := j.tokens.DeleteExpiredUnused(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup expired comment tokens")
		return
	}
	if count > 0 {
		j.metrics.TokensPurged.Add(float64(count))
		log.Info().Int64("count", count).Time("cutoff", cutoff).Msg("cleaned up expired comment tokens")
	}
}
