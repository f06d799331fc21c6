// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_speech_openai

import (
	"encoding/json"
	"fmt"
)

// EventKind is the closed classification of provider realtime events. The
// vendor protocol is a string-typed event zoo; it is classified exactly once
// here, and everything downstream switches on this enum.
type EventKind int

const (
	EventIgnored EventKind = iota
	// EventCallerPartial carries an interim transcription of caller speech.
	EventCallerPartial
	// EventCallerFinal carries the finished transcription of a caller utterance.
	EventCallerFinal
	// EventAgentDelta carries an incremental addition to the agent's spoken text.
	EventAgentDelta
	// EventAgentFinal carries the finished text of an agent utterance.
	EventAgentFinal
	// EventAgentAudio carries a base64 chunk of agent speech audio.
	EventAgentAudio
	// EventError carries a provider-reported error.
	EventError
)

// SpeechEvent is one normalized provider event.
type SpeechEvent struct {
	Kind EventKind
	// Text holds the transcript, delta or error message depending on Kind.
	Text string
	// Audio holds the base64 payload for EventAgentAudio.
	Audio string
	// ItemID groups deltas belonging to the same provider response item.
	ItemID string
}

// rawEvent is the superset of fields across the provider event types we read.
type rawEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	ItemID     string `json:"item_id"`
	ResponseID string `json:"response_id"`
	Error      struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Normalize parses one provider frame and classifies it.
func Normalize(payload []byte) (SpeechEvent, error) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return SpeechEvent{}, fmt.Errorf("undecodable provider event: %w", err)
	}

	switch raw.Type {
	case "conversation.item.input_audio_transcription.delta":
		return SpeechEvent{Kind: EventCallerPartial, Text: raw.Delta, ItemID: raw.ItemID}, nil
	case "conversation.item.input_audio_transcription.completed":
		return SpeechEvent{Kind: EventCallerFinal, Text: raw.Transcript, ItemID: raw.ItemID}, nil
	case "response.audio_transcript.delta":
		return SpeechEvent{Kind: EventAgentDelta, Text: raw.Delta, ItemID: raw.ResponseID}, nil
	case "response.audio_transcript.done":
		return SpeechEvent{Kind: EventAgentFinal, Text: raw.Transcript, ItemID: raw.ResponseID}, nil
	case "response.audio.delta":
		return SpeechEvent{Kind: EventAgentAudio, Audio: raw.Delta, ItemID: raw.ResponseID}, nil
	case "error":
		return SpeechEvent{Kind: EventError, Text: raw.Error.Message}, nil
	default:
		// session.created, rate limit notices, VAD markers and the rest carry
		// nothing the transcript needs.
		return SpeechEvent{Kind: EventIgnored}, nil
	}
}
