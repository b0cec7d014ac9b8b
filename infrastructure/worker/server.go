package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/infrastructure/configuration"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

func RedisOpt(cfg configuration.RedisClient) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewServer(redis asynq.RedisClientOpt, concurrency int) *asynq.Server {
	return asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"critical": 3,
			"default":  1,
		},
		RetryDelayFunc: RetryDelay,
		Logger:         logger.GetLogger(),
	})
}

const (
	retryBase       = time.Minute
	retryMax        = 6 * time.Hour
	quotaRetryDelay = time.Hour
)

// RetryDelay backs off exponentially from one minute. Quota failures wait at
// least an hour since the quota will not come back sooner.
func RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	delay := retryBase
	for i := 0; i < n; i++ {
		delay *= 2
		if delay > retryMax {
			delay = retryMax
			break
		}
	}
	if errors.Is(err, model.ErrQuotaExceeded) && delay < quotaRetryDelay {
		delay = quotaRetryDelay
	}
	logger.GetLogger().
		WithField("task", task.Type()).
		WithField("attempt", n+1).
		WithField("delay", delay.String()).
		Warn("Task failed, retrying")
	return delay
}

// Registrar is implemented by asynq.Scheduler.
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (entryID string, err error)
}

// RegisterPeriodic registers the periodic sync jobs. A "-" cronspec skips the job.
func RegisterPeriodic(s Registrar, cfg configuration.Worker) error {
	subs, err := NewSyncSubscriptionsTask(true)
	if err != nil {
		return err
	}
	streams, err := NewSyncFollowedStreamsTask(true)
	if err != nil {
		return err
	}
	jobs := []struct {
		cronspec string
		task     *asynq.Task
	}{
		{cfg.SubscriptionsEvery, subs},
		{cfg.FollowedStreamsEvery, streams},
		{cfg.FollowingsEvery, NewSyncFollowingsTask()},
		{cfg.UploadsEvery, NewSyncUploadsTask()},
		{cfg.CleanupEvery, NewCleanupTask()},
	}
	for _, job := range jobs {
		if job.cronspec == "" || job.cronspec == "-" {
			continue
		}
		if _, err := s.Register(job.cronspec, job.task, asynq.Unique(time.Minute)); err != nil {
			return fmt.Errorf("could not register %s: %w", job.task.Type(), err)
		}
		logger.GetLogger().WithField("task", job.task.Type()).WithField("cronspec", job.cronspec).Info("Periodic task registered")
	}
	return nil
}
