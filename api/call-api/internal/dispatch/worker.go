// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_dispatch

import (
	"context"
	"time"

	internal_callrecord "github.com/voxbridgeai/api/call-api/internal/callrecord"
	internal_twilio_telephony "github.com/voxbridgeai/api/call-api/internal/telephony/twilio"
	"github.com/voxbridgeai/pkg/commons"
)

const dequeueTimeout = 5 * time.Second

// ContactMarker is the slice of the CRM client the worker needs.
type ContactMarker interface {
	MarkCalled(ctx context.Context, contactID, callSid string) error
}

// WebhookURLs are the callback endpoints handed to the telephony provider for
// each placed call.
type WebhookURLs struct {
	Voice     string
	Status    string
	Recording string
}

// Worker drains the dispatch queue: for each job it places the outbound call,
// saves the call record, and reports the placement back to the CRM.
type Worker struct {
	logger    commons.Logger
	queue     Queue
	telephony internal_twilio_telephony.Telephony
	records   internal_callrecord.Store
	marker    ContactMarker
	urls      WebhookURLs
	from      string
}

func NewWorker(
	logger commons.Logger,
	queue Queue,
	telephony internal_twilio_telephony.Telephony,
	records internal_callrecord.Store,
	marker ContactMarker,
	urls WebhookURLs,
	fromNumber string,
) *Worker {
	return &Worker{
		logger:    logger,
		queue:     queue,
		telephony: telephony,
		records:   records,
		marker:    marker,
		urls:      urls,
		from:      fromNumber,
	}
}

// Run loops until ctx is cancelled. Job failures are logged and the loop
// continues; one bad number must not stall the queue.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			w.logger.Infof("dispatch worker stopped")
			return
		}
		job, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Errorf("dispatch dequeue failed: %v", err)
			continue
		}
		if job == nil {
			continue
		}
		if err := w.process(ctx, job); err != nil {
			w.logger.Errorf("dispatch job failed: contactId=%s: %v", job.ContactID, err)
		}
	}
}

func (w *Worker) process(ctx context.Context, job *CallJob) error {
	callSid, err := w.telephony.PlaceCall(job.ToNumber, w.urls.Voice, w.urls.Status, w.urls.Recording)
	if err != nil {
		return err
	}

	record := &internal_callrecord.CallRecord{
		CallSid:    callSid,
		Direction:  internal_callrecord.DirectionOutbound,
		FromNumber: w.from,
		ToNumber:   job.ToNumber,
		ContactID:  job.ContactID,
	}
	if err := w.records.Save(ctx, record); err != nil {
		// The call is already ringing; losing the record is worse than a
		// duplicate save attempt later, so log and keep going.
		w.logger.Errorf("failed to save call record: callSid=%s: %v", callSid, err)
	}

	if err := w.marker.MarkCalled(ctx, job.ContactID, callSid); err != nil {
		w.logger.Errorf("failed to mark contact called: contactId=%s callSid=%s: %v", job.ContactID, callSid, err)
	}

	w.logger.Infof("dispatched outbound call: contactId=%s callSid=%s", job.ContactID, callSid)
	return nil
}
