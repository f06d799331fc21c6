// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	redismock "github.com/go-redis/redismock/v9"

	"github.com/voxbridgeai/pkg/commons"
	"github.com/voxbridgeai/pkg/connectors"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-dispatch"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func newMockQueue(t *testing.T) (Queue, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	log := newTestLogger(t)
	return NewQueue(connectors.NewRedisConnectorFromClient(client, log), log), mock
}

func TestEnqueue(t *testing.T) {
	queue, mock := newMockQueue(t)

	job := CallJob{ContactID: "ct_1", ToNumber: "+15550100", QueuedAt: 1700000000}
	payload, _ := json.Marshal(job)
	mock.ExpectLPush(queueKey, payload).SetVal(1)

	if err := queue.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDequeue(t *testing.T) {
	queue, mock := newMockQueue(t)

	job := CallJob{ContactID: "ct_1", ToNumber: "+15550100", QueuedAt: 1700000000}
	payload, _ := json.Marshal(job)
	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, string(payload)})

	got, err := queue.Dequeue(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if got == nil || got.ContactID != "ct_1" || got.ToNumber != "+15550100" {
		t.Errorf("unexpected job: %+v", got)
	}
}

func TestDequeueTimeoutReturnsNil(t *testing.T) {
	queue, mock := newMockQueue(t)

	mock.ExpectBRPop(time.Second, queueKey).RedisNil()

	got, err := queue.Dequeue(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil job on timeout, got %+v", got)
	}
}

func TestDequeueGarbageErrors(t *testing.T) {
	queue, mock := newMockQueue(t)

	mock.ExpectBRPop(time.Second, queueKey).SetVal([]string{queueKey, "not json"})

	if _, err := queue.Dequeue(context.Background(), time.Second); err == nil {
		t.Error("expected error for undecodable job")
	}
}
