package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"audiopress/internal/domain"
	"audiopress/internal/repository"
)

var _ repository.JobRepository = (*redisJobRepo)(nil)

const jobKeyPrefix = "audiopress:job:"

// transitionScript updates job fields only while the job is not terminal.
// Returns -1 when the key is missing, 0 when the job is already terminal,
// 1 on success. Keeps the state check and the field writes atomic so a
// misbehaving second writer cannot resurrect a finished job.
var transitionScript = goredis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if not state then return -1 end
if state == 'DONE' or state == 'FAILED' then return 0 end
for i = 1, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i+1])
end
return 1
`)

type redisJobRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedisJobRepository creates a Redis-backed job repository. Each job is
// stored as a hash under audiopress:job:<id>. A non-zero ttl expires
// finished jobs after the given retention window.
func NewRedisJobRepository(client *goredis.Client, ttl time.Duration) repository.JobRepository {
	return &redisJobRepo{client: client, ttl: ttl}
}

func (r *redisJobRepo) Create(ctx context.Context, job *domain.Job) error {
	key := jobKeyPrefix + job.ID
	fields := map[string]interface{}{
		"source_url": job.SourceURL,
		"state":      string(job.State),
		"created_at": job.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": job.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: create job: %w", err)
	}
	return nil
}

func (r *redisJobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	vals, err := r.client.HGetAll(ctx, jobKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get job: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrJobNotFound
	}

	job := &domain.Job{
		ID:            id,
		SourceURL:     vals["source_url"],
		State:         domain.JobState(vals["state"]),
		FailureReason: vals["failure_reason"],
		ResultPath:    vals["result_path"],
		Title:         vals["title"],
	}
	if v := vals["duration_seconds"]; v != "" {
		job.DurationSeconds, _ = strconv.ParseInt(v, 10, 64)
	}
	if t, err := time.Parse(time.RFC3339Nano, vals["created_at"]); err == nil {
		job.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, vals["updated_at"]); err == nil {
		job.UpdatedAt = t
	}
	return job, nil
}

func (r *redisJobRepo) MarkProcessing(ctx context.Context, id string, title string, durationSeconds int64) error {
	return r.transition(ctx, id,
		"state", string(domain.StateProcessing),
		"title", title,
		"duration_seconds", strconv.FormatInt(durationSeconds, 10),
	)
}

func (r *redisJobRepo) MarkDone(ctx context.Context, id string, resultPath string) error {
	return r.transition(ctx, id,
		"state", string(domain.StateDone),
		"result_path", resultPath,
	)
}

func (r *redisJobRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.transition(ctx, id,
		"state", string(domain.StateFailed),
		"failure_reason", reason,
	)
}

func (r *redisJobRepo) transition(ctx context.Context, id string, fieldPairs ...string) error {
	key := jobKeyPrefix + id
	args := make([]interface{}, 0, len(fieldPairs)+2)
	for _, p := range fieldPairs {
		args = append(args, p)
	}
	args = append(args, "updated_at", time.Now().UTC().Format(time.RFC3339Nano))

	res, err := transitionScript.Run(ctx, r.client, []string{key}, args...).Int()
	if err != nil {
		return fmt.Errorf("redis: transition job: %w", err)
	}
	switch res {
	case -1:
		return domain.ErrJobNotFound
	case 0:
		return domain.ErrTerminalState
	}
	return nil
}
