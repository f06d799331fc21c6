// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_callrecord

import (
	"context"
	"fmt"
	"time"

	"github.com/voxbridgeai/pkg/commons"
	"github.com/voxbridgeai/pkg/connectors"
)

// Store provides operations to save and retrieve call records from Postgres.
type Store interface {
	// Save stores a new call record keyed by the provider call SID.
	Save(ctx context.Context, cr *CallRecord) error

	// Get retrieves a call record by SID regardless of its current status.
	// Status and transcription callbacks are asynchronous and may arrive after
	// the call has ended; the row must stay readable for its full lifetime.
	Get(ctx context.Context, callSid string) (*CallRecord, error)

	// Transition atomically moves a record into the given status, but only
	// from one of the allowed prior statuses. Concurrent callbacks race; only
	// one wins, the rest see zero rows affected and get an error.
	Transition(ctx context.Context, callSid, to string, from ...string) error

	// MarkStatus unconditionally sets the status. Used for terminal states,
	// which every callback path may legitimately report.
	MarkStatus(ctx context.Context, callSid, status string) error
}

type postgresStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewStore creates a call record store backed by Postgres.
func NewStore(postgres connectors.PostgresConnector, logger commons.Logger) Store {
	return &postgresStore{
		postgres: postgres,
		logger:   logger,
	}
}

func (s *postgresStore) Save(ctx context.Context, cr *CallRecord) error {
	if cr.Status == "" {
		cr.Status = StatusQueued
	}
	db := s.postgres.DB(ctx)
	if err := db.Create(cr).Error; err != nil {
		return fmt.Errorf("failed to save call record %s: %w", cr.CallSid, err)
	}
	s.logger.Infof("saved call record: callSid=%s, direction=%s, to=%s", cr.CallSid, cr.Direction, cr.ToNumber)
	return nil
}

func (s *postgresStore) Get(ctx context.Context, callSid string) (*CallRecord, error) {
	db := s.postgres.DB(ctx)
	var cr CallRecord
	if err := db.Where("call_sid = ?", callSid).First(&cr).Error; err != nil {
		return nil, fmt.Errorf("call record not found: %s: %w", callSid, err)
	}
	return &cr, nil
}

func (s *postgresStore) Transition(ctx context.Context, callSid, to string, from ...string) error {
	db := s.postgres.DB(ctx)
	result := db.Model(&CallRecord{}).
		Where("call_sid = ? AND status IN ?", callSid, from).
		Updates(map[string]interface{}{
			"status":       to,
			"updated_date": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to transition call record %s to %s: %w", callSid, to, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("call record %s not found or not in %v", callSid, from)
	}
	s.logger.Debugf("call record transitioned: callSid=%s status=%s", callSid, to)
	return nil
}

func (s *postgresStore) MarkStatus(ctx context.Context, callSid, status string) error {
	db := s.postgres.DB(ctx)
	result := db.Model(&CallRecord{}).
		Where("call_sid = ?", callSid).
		Updates(map[string]interface{}{
			"status":       status,
			"updated_date": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark call record %s as %s: %w", callSid, status, result.Error)
	}
	s.logger.Debugf("call record marked: callSid=%s status=%s", callSid, status)
	return nil
}
