// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_speech_openai

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/voxbridgeai/pkg/commons"
	"github.com/voxbridgeai/pkg/utils"
)

type openaiOption struct {
	logger  commons.Logger
	key     string
	mdlOpts utils.Option
}

func NewOpenaiOption(
	logger commons.Logger,
	apiKey string,
	mdlOpts utils.Option) (*openaiOption, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("illegal speech config: api key is required")
	}
	return &openaiOption{
		logger:  logger,
		mdlOpts: mdlOpts,
		key:     apiKey,
	}, nil
}

func (co *openaiOption) GetKey() string {
	return co.key
}

// GetRealtimeConnectionString builds the realtime websocket URL. Model and
// related knobs come from the option bag when set.
func (co *openaiOption) GetRealtimeConnectionString() string {
	baseURL := "wss://api.openai.com/v1/realtime"
	params := url.Values{}

	model := "gpt-4o-realtime-preview"
	if m, err := co.mdlOpts.GetString("agent.model"); err == nil {
		model = m
	}
	params.Add("model", model)

	return fmt.Sprintf("%s?%s", baseURL, params.Encode())
}

// GetConnectionHeader returns the headers the realtime websocket handshake
// requires.
func (co *openaiOption) GetConnectionHeader() http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+co.key)
	header.Set("OpenAI-Beta", "realtime=v1")
	return header
}

// GetEncoding returns the audio encoding negotiated with the provider.
// Twilio media streams carry G.711 mu-law at 8kHz; the realtime API accepts it
// directly, so audio passes through without local transcoding.
func (co *openaiOption) GetEncoding() string {
	return "g711_ulaw"
}
