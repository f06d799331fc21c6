// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_speech_openai

import (
	"testing"

	"github.com/voxbridgeai/pkg/commons"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-speech"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected SpeechEvent
	}{
		{
			"caller partial",
			`{"type":"conversation.item.input_audio_transcription.delta","item_id":"item_1","delta":"hel"}`,
			SpeechEvent{Kind: EventCallerPartial, Text: "hel", ItemID: "item_1"},
		},
		{
			"caller final",
			`{"type":"conversation.item.input_audio_transcription.completed","item_id":"item_1","transcript":"hello there"}`,
			SpeechEvent{Kind: EventCallerFinal, Text: "hello there", ItemID: "item_1"},
		},
		{
			"agent delta",
			`{"type":"response.audio_transcript.delta","response_id":"resp_1","delta":"How can"}`,
			SpeechEvent{Kind: EventAgentDelta, Text: "How can", ItemID: "resp_1"},
		},
		{
			"agent final",
			`{"type":"response.audio_transcript.done","response_id":"resp_1","transcript":"How can I help?"}`,
			SpeechEvent{Kind: EventAgentFinal, Text: "How can I help?", ItemID: "resp_1"},
		},
		{
			"agent audio",
			`{"type":"response.audio.delta","response_id":"resp_1","delta":"UklGRg=="}`,
			SpeechEvent{Kind: EventAgentAudio, Audio: "UklGRg==", ItemID: "resp_1"},
		},
		{
			"error",
			`{"type":"error","error":{"message":"session expired"}}`,
			SpeechEvent{Kind: EventError, Text: "session expired"},
		},
		{
			"ignored",
			`{"type":"session.created"}`,
			SpeechEvent{Kind: EventIgnored},
		},
		{
			"unknown type ignored",
			`{"type":"some.future.event","delta":"x"}`,
			SpeechEvent{Kind: EventIgnored},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Normalize([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Normalize() = %+v, expected %+v", result, tt.expected)
			}
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("not json")); err == nil {
		t.Error("expected error for undecodable payload")
	}
}

func TestOpenaiOptionConnectionString(t *testing.T) {
	logger := newTestLogger(t)

	opt, err := NewOpenaiOption(logger, "sk-test", nil)
	if err != nil {
		t.Fatalf("option build failed: %v", err)
	}
	if got := opt.GetRealtimeConnectionString(); got != "wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview" {
		t.Errorf("unexpected connection string: %s", got)
	}

	opt, err = NewOpenaiOption(logger, "sk-test", map[string]interface{}{
		"agent": map[string]interface{}{"model": "gpt-realtime"},
	})
	if err != nil {
		t.Fatalf("option build failed: %v", err)
	}
	if got := opt.GetRealtimeConnectionString(); got != "wss://api.openai.com/v1/realtime?model=gpt-realtime" {
		t.Errorf("unexpected connection string with model option: %s", got)
	}

	header := opt.GetConnectionHeader()
	if header.Get("Authorization") != "Bearer sk-test" {
		t.Errorf("unexpected auth header: %s", header.Get("Authorization"))
	}
}

func TestOpenaiOptionRequiresKey(t *testing.T) {
	if _, err := NewOpenaiOption(newTestLogger(t), "", nil); err == nil {
		t.Error("expected error for missing api key")
	}
}
