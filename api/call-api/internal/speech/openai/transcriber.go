// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_speech_openai

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/voxbridgeai/pkg/commons"
)

// DefaultApiHost is the provider's REST endpoint for batch transcription.
const DefaultApiHost = "https://api.openai.com"

// Transcriber produces a text transcript from recorded call audio. It is the
// backup path behind the realtime stream: the whole call recording goes in,
// one transcript comes back.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type whisperTranscriber struct {
	logger commons.Logger
	http   *resty.Client
	model  string
}

// NewTranscriber creates a transcriber against the given API host.
func NewTranscriber(logger commons.Logger, apiHost, apiKey string) Transcriber {
	http := resty.New().
		SetBaseURL(apiHost).
		SetHeader("Authorization", "Bearer "+apiKey)
	return &whisperTranscriber{
		logger: logger,
		http:   http,
		model:  "whisper-1",
	}
}

func (tr *whisperTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	resp, err := tr.http.R().
		SetContext(ctx).
		SetFileReader("file", "call-recording.wav", bytes.NewReader(audio)).
		SetFormData(map[string]string{"model": tr.model}).
		SetResult(&out).
		Post("/v1/audio/transcriptions")
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("transcription returned %s", resp.Status())
	}

	tr.logger.Debugf("transcribed recording: bytes=%d chars=%d", len(audio), len(out.Text))
	return out.Text, nil
}
