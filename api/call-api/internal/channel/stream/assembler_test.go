// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package channel_stream

import (
	"context"
	"testing"

	internal_session "github.com/voxbridgeai/api/call-api/internal/session"
	internal_speech_openai "github.com/voxbridgeai/api/call-api/internal/speech/openai"
	"github.com/voxbridgeai/pkg/commons"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-stream"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

type nopStore struct{}

func (nopStore) InsertTurns(context.Context, string, []internal_session.TranscriptTurn) error {
	return nil
}
func (nopStore) HasCommittedTurns(context.Context, string) (bool, error) { return false, nil }

func newTestAssembler(t *testing.T) (*transcriptAssembler, internal_session.Manager) {
	t.Helper()
	logger := newTestLogger(t)
	mgr := internal_session.NewManager(logger, nopStore{})
	mgr.OpenSession("CA1")
	return newTranscriptAssembler(logger, mgr, "CA1"), mgr
}

func TestAssemblerAccumulatesCallerDeltas(t *testing.T) {
	asm, mgr := newTestAssembler(t)

	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventCallerPartial, ItemID: "i1", Text: "hel"})
	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventCallerPartial, ItemID: "i1", Text: "lo th"})
	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventCallerFinal, ItemID: "i1", Text: "hello there"})

	snap, _ := mgr.GetSnapshot("CA1")
	if len(snap.Turns) != 1 {
		t.Fatalf("expected deltas to collapse into 1 turn, got %d", len(snap.Turns))
	}
	if snap.Turns[0].Text != "hello there" || !snap.Turns[0].IsFinal {
		t.Errorf("unexpected turn: %+v", snap.Turns[0])
	}
}

func TestAssemblerKeepsSpeakersApart(t *testing.T) {
	asm, mgr := newTestAssembler(t)

	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventCallerPartial, ItemID: "i1", Text: "so"})
	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventAgentDelta, ItemID: "r1", Text: "How "})
	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventAgentDelta, ItemID: "r1", Text: "can I help?"})
	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventAgentFinal, ItemID: "r1", Text: "How can I help?"})

	snap, _ := mgr.GetSnapshot("CA1")
	if len(snap.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(snap.Turns))
	}
	if snap.Turns[0].Speaker != internal_session.SpeakerCaller || snap.Turns[0].IsFinal {
		t.Errorf("caller fragment should stay open: %+v", snap.Turns[0])
	}
	if snap.Turns[1].Speaker != internal_session.SpeakerAgent || snap.Turns[1].Text != "How can I help?" || !snap.Turns[1].IsFinal {
		t.Errorf("unexpected agent turn: %+v", snap.Turns[1])
	}
}

func TestAssemblerNewItemStartsFreshAccumulation(t *testing.T) {
	asm, mgr := newTestAssembler(t)

	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventCallerPartial, ItemID: "i1", Text: "first"})
	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventCallerFinal, ItemID: "i1", Text: "first utterance"})
	asm.Handle(internal_speech_openai.SpeechEvent{Kind: internal_speech_openai.EventCallerPartial, ItemID: "i2", Text: "second"})

	snap, _ := mgr.GetSnapshot("CA1")
	if len(snap.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(snap.Turns))
	}
	if snap.Turns[1].Text != "second" || snap.Turns[1].IsFinal {
		t.Errorf("new item must start a fresh open fragment: %+v", snap.Turns[1])
	}
}
