// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_crm

import (
	"context"
	"time"

	"github.com/google/uuid"

	internal_dispatch "github.com/voxbridgeai/api/call-api/internal/dispatch"
	"github.com/voxbridgeai/pkg/commons"
)

// Syncer periodically pulls contacts due for an outbound call from the CRM
// and queues them for the dialing worker. Placing the calls (and marking the
// contacts called) is the worker's job; the syncer only moves work across.
type Syncer struct {
	logger   commons.Logger
	client   Client
	queue    internal_dispatch.Queue
	interval time.Duration

	// enqueued de-duplicates contacts across sync rounds within this process:
	// the CRM keeps reporting a contact as due until the worker marks it
	// called, and the window between rounds is shorter than a call.
	enqueued map[string]struct{}
}

func NewSyncer(logger commons.Logger, client Client, queue internal_dispatch.Queue, interval time.Duration) *Syncer {
	return &Syncer{
		logger:   logger,
		client:   client,
		queue:    queue,
		interval: interval,
		enqueued: make(map[string]struct{}),
	}
}

// Run loops until ctx is cancelled. A failed round is logged and retried at
// the next tick; the CRM being down must not take the call service with it.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("crm syncer stopped")
			return
		case <-ticker.C:
			if err := s.syncOnce(ctx); err != nil {
				s.logger.Errorf("crm sync round failed: %v", err)
			}
		}
	}
}

func (s *Syncer) syncOnce(ctx context.Context) error {
	contacts, err := s.client.DueContacts(ctx)
	if err != nil {
		return err
	}

	queued := 0
	for _, contact := range contacts {
		if _, seen := s.enqueued[contact.ID]; seen {
			continue
		}
		if contact.PhoneNumber == "" {
			s.logger.Warnf("skipping contact without phone number: contactId=%s", contact.ID)
			continue
		}
		job := internal_dispatch.CallJob{
			JobID:     uuid.New().String(),
			ContactID: contact.ID,
			ToNumber:  contact.PhoneNumber,
			QueuedAt:  time.Now().Unix(),
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.logger.Errorf("failed to enqueue contact %s: %v", contact.ID, err)
			continue
		}
		s.enqueued[contact.ID] = struct{}{}
		queued++
	}

	if queued > 0 {
		s.logger.Infof("crm sync: queued %d outbound calls", queued)
	}
	return nil
}
