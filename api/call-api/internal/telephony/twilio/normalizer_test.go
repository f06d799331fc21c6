// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_twilio_telephony

import (
	"strings"
	"testing"
)

func TestNormalizeCallStatus(t *testing.T) {
	tests := []struct {
		status   string
		expected CallEvent
	}{
		{"queued", CallEventIgnored},
		{"initiated", CallEventIgnored},
		{"ringing", CallEventRinging},
		{"in-progress", CallEventAnswered},
		{"answered", CallEventAnswered},
		{"completed", CallEventCompleted},
		{"busy", CallEventFailed},
		{"failed", CallEventFailed},
		{"no-answer", CallEventFailed},
		{"canceled", CallEventFailed},
		{"something-new", CallEventIgnored},
		{"", CallEventIgnored},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if result := NormalizeCallStatus(tt.status); result != tt.expected {
				t.Errorf("NormalizeCallStatus(%q) = %v, expected %v", tt.status, result, tt.expected)
			}
		})
	}
}

func TestStreamTwiML(t *testing.T) {
	out, err := StreamTwiML("wss://example.com/v1/call/twilio/stream/CA1")
	if err != nil {
		t.Fatalf("twiml render failed: %v", err)
	}
	doc := string(out)
	if !strings.Contains(doc, "<Connect>") {
		t.Errorf("missing Connect element: %s", doc)
	}
	if !strings.Contains(doc, `url="wss://example.com/v1/call/twilio/stream/CA1"`) {
		t.Errorf("missing stream url attribute: %s", doc)
	}
	if !strings.HasPrefix(doc, "<?xml") {
		t.Errorf("missing xml header: %s", doc)
	}
}
