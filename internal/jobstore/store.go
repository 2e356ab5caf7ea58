// Package jobstore persists audit jobs in Redis. Each job lives under one
// durable key (job:<id>) holding the JSON-serialized record; a Redis list
// serves as the FIFO of queued job ids. All mutations are read-modify-write
// transactions per key, so concurrent updates to the same job serialize.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/siteaudit/internal/domain"
	"github.com/jonesrussell/siteaudit/internal/logger"
)

// Key layout.
const (
	jobKeyPrefix    = "job:"
	pendingQueueKey = "jobs:pending"
)

// txRetries bounds optimistic-lock retries on contended updates.
const txRetries = 5

// scanBatchSize is the COUNT hint for key enumeration.
const scanBatchSize = 100

// Store is the durable record of job lifecycles.
type Store struct {
	client *redis.Client
	logger logger.Interface
}

// New creates a Store backed by the given Redis client.
func New(client *redis.Client, log logger.Interface) *Store {
	return &Store{
		client: client,
		logger: log.WithComponent("jobstore"),
	}
}

// jobKey returns the durable key for a job id.
func jobKey(id string) string {
	return jobKeyPrefix + id
}

// Create persists a new job and enqueues its id. Fails with
// ErrDuplicateJob when the id already exists.
func (s *Store) Create(ctx context.Context, job *domain.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobstore: marshal job: %w", err)
	}

	ok, setErr := s.client.SetNX(ctx, jobKey(job.ID), payload, 0).Result()
	if setErr != nil {
		return fmt.Errorf("jobstore: create job %s: %w", job.ID, setErr)
	}
	if !ok {
		return fmt.Errorf("jobstore: %w: %s", ErrDuplicateJob, job.ID)
	}

	if pushErr := s.client.LPush(ctx, pendingQueueKey, job.ID).Err(); pushErr != nil {
		// Without the pending-list entry the record would sit queued
		// forever, holding the id.
		if delErr := s.client.Del(ctx, jobKey(job.ID)).Err(); delErr != nil {
			s.logger.Error("orphaned job record after enqueue failure",
				"job_id", job.ID, "error", delErr)
		}
		return fmt.Errorf("jobstore: enqueue job %s: %w", job.ID, pushErr)
	}

	s.logger.Info("job created", "job_id", job.ID, "type", job.Type, "url", job.Params.URL)
	return nil
}

// Get returns the job, or nil (not an error) when the id is absent.
func (s *Store) Get(ctx context.Context, id string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jobstore: get job %s: %w", id, err)
	}

	var job domain.Job
	if unmarshalErr := json.Unmarshal(data, &job); unmarshalErr != nil {
		return nil, fmt.Errorf("jobstore: unmarshal job %s: %w", id, unmarshalErr)
	}

	return &job, nil
}

// Dequeue blocks up to timeout waiting for a queued job id. Returns an
// empty id when the wait times out.
func (s *Store) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := s.client.BRPop(ctx, timeout, pendingQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("jobstore: dequeue: %w", err)
	}

	// BRPop returns [key, value].
	return res[1], nil
}

// Requeue pushes a dequeued job id back onto the pending list. Only jobs
// still in the queued state go back; anything else is a no-op.
func (s *Store) Requeue(ctx context.Context, id string) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if job == nil || job.Status != domain.JobStatusQueued {
		return nil
	}

	if pushErr := s.client.LPush(ctx, pendingQueueKey, id).Err(); pushErr != nil {
		return fmt.Errorf("jobstore: requeue job %s: %w", id, pushErr)
	}

	s.logger.Warn("job requeued", "job_id", id)
	return nil
}

// Update applies mutate to the job under an optimistic per-key transaction.
// Terminal jobs are not modified: the update is a silent no-op, preserving
// stored results. Fails with ErrJobNotFound when the id is absent.
func (s *Store) Update(ctx context.Context, id string, mutate func(*domain.Job)) error {
	return s.transition(ctx, id, func(job *domain.Job) bool {
		if job.Status.Terminal() {
			return false
		}
		mutate(job)
		return true
	})
}

// MarkProcessing transitions a queued job to processing.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	return s.Update(ctx, id, func(job *domain.Job) {
		job.Status = domain.JobStatusProcessing
		job.Progress = 0
	})
}

// SetProgress records crawl progress. Progress is monotonically
// non-decreasing until the job reaches a terminal state.
func (s *Store) SetProgress(ctx context.Context, id string, progress int) error {
	return s.Update(ctx, id, func(job *domain.Job) {
		if progress > job.Progress {
			job.Progress = progress
		}
	})
}

// RequestCancel sets the cooperative cancellation flag. The processor
// checks it between page fetches. Fails with ErrJobTerminal when the job
// has already finished.
func (s *Store) RequestCancel(ctx context.Context, id string) error {
	var terminal bool

	err := s.transition(ctx, id, func(job *domain.Job) bool {
		terminal = job.Status.Terminal()
		if terminal {
			return false
		}
		job.CancelRequested = true
		return true
	})
	if err != nil {
		return err
	}
	if terminal {
		return fmt.Errorf("jobstore: %w: %s", ErrJobTerminal, id)
	}

	return nil
}

// progressComplete is the progress value of a finished job.
const progressComplete = 100

// Complete transitions the job to completed with its results. Idempotent:
// calling it (or Fail) again after a terminal state is a no-op.
func (s *Store) Complete(ctx context.Context, id string, results *domain.SiteReport) error {
	return s.transition(ctx, id, func(job *domain.Job) bool {
		if job.Status.Terminal() {
			return false
		}

		job.Status = domain.JobStatusCompleted
		job.Progress = progressComplete
		job.Results = results
		job.Error = ""
		return true
	})
}

// Fail transitions the job to failed with a human-readable error. Partial
// results may be attached. Idempotent after any terminal state.
func (s *Store) Fail(ctx context.Context, id, errMsg string, partial *domain.SiteReport) error {
	return s.transition(ctx, id, func(job *domain.Job) bool {
		if job.Status.Terminal() {
			return false
		}

		job.Status = domain.JobStatusFailed
		job.Error = errMsg
		if partial != nil {
			job.Results = partial
		}
		return true
	})
}

// transition runs a read-modify-write cycle under WATCH. The apply func
// returns false to skip the write (no-op) while still succeeding.
func (s *Store) transition(ctx context.Context, id string, apply func(*domain.Job) bool) error {
	key := jobKey(id)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("jobstore: %w: %s", ErrJobNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("jobstore: read job %s: %w", id, err)
		}

		var job domain.Job
		if unmarshalErr := json.Unmarshal(data, &job); unmarshalErr != nil {
			return fmt.Errorf("jobstore: unmarshal job %s: %w", id, unmarshalErr)
		}

		if !apply(&job) {
			return nil
		}

		job.UpdatedAt = time.Now()

		payload, marshalErr := json.Marshal(&job)
		if marshalErr != nil {
			return fmt.Errorf("jobstore: marshal job %s: %w", id, marshalErr)
		}

		_, pipeErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return pipeErr
	}

	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		err = s.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return fmt.Errorf("jobstore: update job %s: %w", id, err)
}

// QueueStats returns job counts by status, enumerated from the job keys.
func (s *Store) QueueStats(ctx context.Context) (map[domain.JobStatus]int, error) {
	stats := map[domain.JobStatus]int{
		domain.JobStatusQueued:     0,
		domain.JobStatusProcessing: 0,
		domain.JobStatusCompleted:  0,
		domain.JobStatusFailed:     0,
	}

	err := s.forEachJob(ctx, func(job *domain.Job) {
		stats[job.Status]++
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// ListProcessing returns all jobs currently in the processing state.
// Used by the stale-job watchdog.
func (s *Store) ListProcessing(ctx context.Context) ([]*domain.Job, error) {
	var jobs []*domain.Job

	err := s.forEachJob(ctx, func(job *domain.Job) {
		if job.Status == domain.JobStatusProcessing {
			jobs = append(jobs, job)
		}
	})
	if err != nil {
		return nil, err
	}

	return jobs, nil
}

// forEachJob scans the job keyspace and invokes fn for every decodable
// record. Records deleted between SCAN and GET are skipped.
func (s *Store) forEachJob(ctx context.Context, fn func(*domain.Job)) error {
	iter := s.client.Scan(ctx, 0, jobKeyPrefix+"*", scanBatchSize).Iterator()

	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("jobstore: scan read %s: %w", iter.Val(), err)
		}

		var job domain.Job
		if unmarshalErr := json.Unmarshal(data, &job); unmarshalErr != nil {
			s.logger.Warn("skipping undecodable job record", "key", iter.Val(), "error", unmarshalErr)
			continue
		}

		fn(&job)
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("jobstore: scan: %w", err)
	}

	return nil
}

// Ping verifies store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("jobstore: ping: %w", err)
	}
	return nil
}
