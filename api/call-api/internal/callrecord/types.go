// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_callrecord

import (
	"time"

	"gorm.io/gorm"
)

// Call record status constants.
const (
	StatusQueued    = "queued"    // Outbound: created, provider not yet dialing
	StatusRinging   = "ringing"   // Provider is dialing the callee
	StatusActive    = "active"    // Call answered, media flowing
	StatusCompleted = "completed" // Call ended normally
	StatusFailed    = "failed"    // Call setup or execution failed
)

// Direction constants.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// CallRecord is the durable per-call row bridging the HTTP call-setup request,
// the media-stream connection and the provider's async callbacks.
//
// Telephony status and transcription callbacks arrive at any time, including
// well after the media stream disconnected, so the row is never deleted during
// the call lifecycle; it only moves through statuses.
type CallRecord struct {
	Id          uint64    `json:"id" gorm:"type:bigint;primaryKey;autoIncrement;<-:create"`
	CallSid     string    `json:"callSid" gorm:"column:call_sid;type:varchar(64);not null;uniqueIndex"`
	Status      string    `json:"status" gorm:"column:status;type:varchar(20);not null;default:queued"`
	Direction   string    `json:"direction" gorm:"column:direction;type:varchar(20);not null;default:''"`
	FromNumber  string    `json:"fromNumber" gorm:"column:from_number;type:varchar(50);not null;default:''"`
	ToNumber    string    `json:"toNumber" gorm:"column:to_number;type:varchar(50);not null;default:''"`
	ContactID   string    `json:"contactId" gorm:"column:contact_id;type:varchar(64);not null;default:''"`
	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;default:NOW();<-:create"`
	UpdatedDate time.Time `json:"updatedDate" gorm:"type:timestamp;default:null"`
}

func (CallRecord) TableName() string {
	return "call_records"
}

func (cr *CallRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if cr.CreatedDate.IsZero() {
		cr.CreatedDate = time.Now()
	}
	return nil
}

// IsTerminal returns true once the call can no longer change state.
func (cr *CallRecord) IsTerminal() bool {
	return cr.Status == StatusCompleted || cr.Status == StatusFailed
}
