package background

import (
	"context"
	"log"
	"time"

	"tourbase/internal/caching"
	"tourbase/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs periodic maintenance: purging expired password-reset
// tokens and refreshing the tour cache.
type JobScheduler struct {
	scheduler gocron.Scheduler
	userRepo  repositories.UserRepository
	cacheSvc  caching.CacheService
}

func NewJobScheduler(userRepo repositories.UserRepository, cacheSvc caching.CacheService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		userRepo:  userRepo,
		cacheSvc:  cacheSvc,
	}
	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	// Expired reset tokens are already unusable (the lookup checks expiry);
	// the purge just keeps stale hashes out of the table.
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.purgeExpiredResetTokens),
		gocron.WithName("reset-token-purge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	_, err = js.scheduler.NewJob(
		gocron.DurationJob(30*time.Minute),
		gocron.NewTask(js.refreshTourCache),
		gocron.WithName("tour-cache-refresh"),
	)
	return err
}

func (js *JobScheduler) purgeExpiredResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := js.userRepo.PurgeExpiredResetTokens(ctx, time.Now())
	if err != nil {
		log.Printf("reset-token purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("purged %d expired password-reset tokens", purged)
	}
}

func (js *JobScheduler) refreshTourCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := js.cacheSvc.InvalidateTours(ctx); err != nil {
		log.Printf("tour cache refresh failed: %v", err)
	}
}
