// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package channel_stream

import (
	"strings"

	internal_session "github.com/voxbridgeai/api/call-api/internal/session"
	internal_speech_openai "github.com/voxbridgeai/api/call-api/internal/speech/openai"
	"github.com/voxbridgeai/pkg/commons"
)

// transcriptAssembler turns the provider's per-delta transcript events into
// the session manager's append calls. The provider sends additive deltas; the
// manager expects each interim event to carry the full text so far, so deltas
// are accumulated here per provider item before being forwarded.
type transcriptAssembler struct {
	logger  commons.Logger
	manager internal_session.Manager
	callID  string

	callerParts map[string]*strings.Builder
	agentParts  map[string]*strings.Builder
}

func newTranscriptAssembler(logger commons.Logger, manager internal_session.Manager, callID string) *transcriptAssembler {
	return &transcriptAssembler{
		logger:      logger,
		manager:     manager,
		callID:      callID,
		callerParts: make(map[string]*strings.Builder),
		agentParts:  make(map[string]*strings.Builder),
	}
}

// Handle forwards one normalized transcript event into the session.
func (a *transcriptAssembler) Handle(ev internal_speech_openai.SpeechEvent) {
	switch ev.Kind {
	case internal_speech_openai.EventCallerPartial:
		text := a.accumulate(a.callerParts, ev.ItemID, ev.Text)
		a.manager.AppendLiveTurn(a.callID, internal_session.SpeakerCaller, text, false, nil)

	case internal_speech_openai.EventCallerFinal:
		delete(a.callerParts, ev.ItemID)
		a.manager.AppendLiveTurn(a.callID, internal_session.SpeakerCaller, ev.Text, true, nil)

	case internal_speech_openai.EventAgentDelta:
		text := a.accumulate(a.agentParts, ev.ItemID, ev.Text)
		a.manager.AppendLiveTurn(a.callID, internal_session.SpeakerAgent, text, false, nil)

	case internal_speech_openai.EventAgentFinal:
		delete(a.agentParts, ev.ItemID)
		a.manager.AppendLiveTurn(a.callID, internal_session.SpeakerAgent, ev.Text, true, nil)

	case internal_speech_openai.EventError:
		a.logger.Errorf("provider error on call %s: %s", a.callID, ev.Text)
	}
}

func (a *transcriptAssembler) accumulate(parts map[string]*strings.Builder, itemID, delta string) string {
	b, ok := parts[itemID]
	if !ok {
		b = &strings.Builder{}
		parts[itemID] = b
	}
	b.WriteString(delta)
	return b.String()
}
