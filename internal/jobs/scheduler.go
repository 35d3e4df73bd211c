// Package jobs runs the recurring background work: daily score calculation,
// weekly review-schedule generation, and the notification sweeps.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"schedulo/internal/config"
	"schedulo/internal/services"
)

const jobLockTTL = 5 * time.Minute

// Scheduler owns the fixed job set. Every run takes a Redis lock first so
// only one instance executes a given tick when several replicas run.
type Scheduler struct {
	scheduler     gocron.Scheduler
	redis         *services.RedisService
	scores        *services.ScoreService
	routines      *services.RoutineService
	notifications *services.NotificationService
	cfg           *config.Config
	instanceID    string
}

func NewScheduler(
	cfg *config.Config,
	redis *services.RedisService,
	scores *services.ScoreService,
	routines *services.RoutineService,
	notifications *services.NotificationService,
) (*Scheduler, error) {
	// Fail fast on malformed specs instead of silently never firing.
	for name, spec := range map[string]string{
		"score":    cfg.ScoreCron,
		"review":   cfg.ReviewCron,
		"morning":  cfg.MorningCron,
		"evening":  cfg.EveningCron,
		"deadline": cfg.DeadlineCron,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("invalid %s cron spec %q: %w", name, spec, err)
		}
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.Local),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler:     scheduler,
		redis:         redis,
		scores:        scores,
		routines:      routines,
		notifications: notifications,
		cfg:           cfg,
		instanceID:    uuid.New().String(),
	}, nil
}

// Start registers the job set and starts the scheduler.
func (s *Scheduler) Start() error {
	log.Println("⏰ Starting job scheduler...")

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"daily_score", s.cfg.ScoreCron, s.runDailyScore},
		{"weekly_review", s.cfg.ReviewCron, s.runWeeklyReview},
		{"morning_notify", s.cfg.MorningCron, s.runMorningNotify},
		{"evening_notify", s.cfg.EveningCron, s.runEveningNotify},
		{"deadline_notify", s.cfg.DeadlineCron, s.runDeadlineNotify},
	}

	for _, j := range jobs {
		j := j
		_, err := s.scheduler.NewJob(
			gocron.CronJob(j.spec, false),
			gocron.NewTask(func() {
				s.execute(j.name, j.run)
			}),
			gocron.WithName(j.name),
		)
		if err != nil {
			return fmt.Errorf("failed to register job %s: %w", j.name, err)
		}
	}

	s.scheduler.Start()
	log.Printf("✅ Job scheduler started (%d jobs)", len(jobs))
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	log.Println("⏹️ Stopping job scheduler...")
	return s.scheduler.Shutdown()
}

// execute runs one job tick under a distributed lock. The lock key includes
// the tick's minute so a slow instance cannot rerun an already-executed tick
// after the fast instance releases it.
func (s *Scheduler) execute(name string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobLockTTL)
	defer cancel()

	if s.redis != nil {
		lockKey := fmt.Sprintf("job:lock:%s:%s", name, time.Now().Format("2006-01-02T15:04"))
		acquired, err := s.redis.AcquireLock(ctx, lockKey, s.instanceID, jobLockTTL)
		if err != nil {
			log.Printf("⚠️ [JOB] %s: lock check failed, running anyway: %v", name, err)
		} else if !acquired {
			log.Printf("⏭️ [JOB] %s: another instance holds the lock, skipping", name)
			return
		}
	}

	start := time.Now()
	log.Printf("▶️ [JOB] %s: starting", name)
	if err := run(ctx); err != nil {
		log.Printf("❌ [JOB] %s failed after %v: %v", name, time.Since(start), err)
		return
	}
	log.Printf("✅ [JOB] %s finished in %v", name, time.Since(start))
}

// runDailyScore scores the previous calendar day for all users.
func (s *Scheduler) runDailyScore(ctx context.Context) error {
	return s.scores.CalculateDaily(ctx, time.Now().AddDate(0, 0, -1))
}

func (s *Scheduler) runWeeklyReview(ctx context.Context) error {
	return s.routines.GenerateWeeklyReviews(ctx, time.Now())
}

func (s *Scheduler) runMorningNotify(ctx context.Context) error {
	return s.notifications.NotifyTodaySchedules(ctx, "오늘의 일정이에요 ☀️")
}

func (s *Scheduler) runEveningNotify(ctx context.Context) error {
	return s.notifications.NotifyTodaySchedules(ctx, "아직 끝내지 못한 일정이 있어요 🌙")
}

func (s *Scheduler) runDeadlineNotify(ctx context.Context) error {
	return s.notifications.NotifyDeadlines(ctx)
}
