// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voxbridgeai/pkg/commons"
	"github.com/voxbridgeai/pkg/connectors"
)

const queueKey = "voxbridge:dispatch:calls"

// CallJob is one queued outbound call request.
type CallJob struct {
	JobID     string `json:"jobId"`
	ContactID string `json:"contactId"`
	ToNumber  string `json:"toNumber"`
	QueuedAt  int64  `json:"queuedAt"`
}

// Queue is the redis-backed outbound call queue between the CRM syncer and
// the dialing worker. LPUSH/BRPOP gives FIFO ordering and lets multiple
// workers share one queue.
type Queue interface {
	Enqueue(ctx context.Context, job CallJob) error

	// Dequeue blocks up to timeout for the next job. A nil job with nil error
	// means the timeout elapsed with the queue empty.
	Dequeue(ctx context.Context, timeout time.Duration) (*CallJob, error)
}

type redisQueue struct {
	logger commons.Logger
	redis  connectors.RedisConnector
}

func NewQueue(redisConn connectors.RedisConnector, logger commons.Logger) Queue {
	return &redisQueue{
		logger: logger,
		redis:  redisConn,
	}
}

func (q *redisQueue) Enqueue(ctx context.Context, job CallJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode call job for %s: %w", job.ContactID, err)
	}
	if err := q.redis.Client().LPush(ctx, queueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue call job for %s: %w", job.ContactID, err)
	}
	q.logger.Debugf("enqueued call job: contactId=%s to=%s", job.ContactID, job.ToNumber)
	return nil
}

func (q *redisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*CallJob, error) {
	res, err := q.redis.Client().BRPop(ctx, timeout, queueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue call job: %w", err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected brpop reply of length %d", len(res))
	}

	var job CallJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("undecodable call job: %w", err)
	}
	return &job, nil
}
