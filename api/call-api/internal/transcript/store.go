// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_transcript

import (
	"context"
	"fmt"

	internal_session "github.com/voxbridgeai/api/call-api/internal/session"
	"github.com/voxbridgeai/pkg/commons"
	"github.com/voxbridgeai/pkg/connectors"
)

// Store persists and reads back committed transcript turns.
//
// Rows are never updated or deleted after insert: a turn only reaches the
// store once it is final, and late post-call batch turns are additional rows,
// not reconciliations of existing ones.
type Store interface {
	internal_session.TurnStore

	// GetTurns returns a call's turns in sequence order.
	GetTurns(ctx context.Context, callID string) ([]internal_session.TranscriptTurn, error)
}

type postgresStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewStore creates a transcript turn store backed by Postgres.
func NewStore(postgres connectors.PostgresConnector, logger commons.Logger) Store {
	return &postgresStore{
		postgres: postgres,
		logger:   logger,
	}
}

// InsertTurns writes all turns for a call in a single batch create.
func (s *postgresStore) InsertTurns(ctx context.Context, callID string, turns []internal_session.TranscriptTurn) error {
	if len(turns) == 0 {
		return nil
	}
	records := make([]TurnRecord, len(turns))
	for i, t := range turns {
		records[i] = toRecord(callID, t)
	}

	db := s.postgres.DB(ctx)
	if err := db.Create(&records).Error; err != nil {
		return fmt.Errorf("failed to insert %d turns for call %s: %w", len(turns), callID, err)
	}

	s.logger.Infof("persisted transcript turns: callId=%s count=%d", callID, len(records))
	return nil
}

// HasCommittedTurns reports whether any turn row exists for the call.
func (s *postgresStore) HasCommittedTurns(ctx context.Context, callID string) (bool, error) {
	db := s.postgres.DB(ctx)
	var count int64
	if err := db.Model(&TurnRecord{}).Where("call_id = ?", callID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check committed turns for call %s: %w", callID, err)
	}
	return count > 0, nil
}

// GetTurns reads a call's persisted turns in sequence order.
func (s *postgresStore) GetTurns(ctx context.Context, callID string) ([]internal_session.TranscriptTurn, error) {
	db := s.postgres.DB(ctx)
	var records []TurnRecord
	if err := db.Where("call_id = ?", callID).Order("sequence asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to read turns for call %s: %w", callID, err)
	}

	turns := make([]internal_session.TranscriptTurn, len(records))
	for i, r := range records {
		turns[i] = r.toTurn()
	}
	return turns, nil
}
