// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_transcript

import (
	"time"

	internal_session "github.com/voxbridgeai/api/call-api/internal/session"
)

// TurnRecord is the persisted form of one transcript turn.
//
// (call_id, sequence) is unique: the sequence counter is assigned once per
// session in memory, so the constraint is a backstop against double-commit
// races rather than the primary idempotence mechanism.
type TurnRecord struct {
	Id          uint64    `json:"id" gorm:"type:bigint;primaryKey;autoIncrement;<-:create"`
	CallID      string    `json:"callId" gorm:"column:call_id;type:varchar(64);not null;uniqueIndex:idx_turn_call_sequence,priority:1;index"`
	Sequence    int64     `json:"sequence" gorm:"column:sequence;type:bigint;not null;uniqueIndex:idx_turn_call_sequence,priority:2"`
	Speaker     string    `json:"speaker" gorm:"column:speaker;type:varchar(20);not null"`
	Text        string    `json:"text" gorm:"column:text;type:text;not null"`
	Source      string    `json:"source" gorm:"column:source;type:varchar(30);not null"`
	Confidence  *float64  `json:"confidence" gorm:"column:confidence;type:numeric"`
	IsFinal     bool      `json:"isFinal" gorm:"column:is_final;not null;default:false"`
	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;default:NOW();<-:create"`
}

func (TurnRecord) TableName() string {
	return "call_transcript_turns"
}

func toRecord(callID string, t internal_session.TranscriptTurn) TurnRecord {
	return TurnRecord{
		CallID:     callID,
		Sequence:   t.Sequence,
		Speaker:    string(t.Speaker),
		Text:       t.Text,
		Source:     string(t.Source),
		Confidence: t.Confidence,
		IsFinal:    t.IsFinal,
	}
}

func (r TurnRecord) toTurn() internal_session.TranscriptTurn {
	return internal_session.TranscriptTurn{
		Sequence:   r.Sequence,
		Speaker:    internal_session.Speaker(r.Speaker),
		Text:       r.Text,
		Source:     internal_session.Source(r.Source),
		Confidence: r.Confidence,
		IsFinal:    r.IsFinal,
	}
}
