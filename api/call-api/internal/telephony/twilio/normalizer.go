// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_twilio_telephony

// CallEvent is the closed classification of provider status callbacks.
// Classification happens once here, at the boundary; nothing downstream
// branches on raw provider strings.
type CallEvent int

const (
	CallEventIgnored CallEvent = iota
	CallEventRinging
	CallEventAnswered
	CallEventCompleted
	CallEventFailed
)

// NormalizeCallStatus maps a Twilio CallStatus value onto a CallEvent.
// Statuses that carry no lifecycle meaning for the transcript session
// (queued, initiated) are ignored.
func NormalizeCallStatus(status string) CallEvent {
	switch status {
	case "ringing":
		return CallEventRinging
	case "in-progress", "answered":
		return CallEventAnswered
	case "completed":
		return CallEventCompleted
	case "busy", "failed", "no-answer", "canceled":
		return CallEventFailed
	default:
		return CallEventIgnored
	}
}
