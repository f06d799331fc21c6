// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package call_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	channel_stream "github.com/voxbridgeai/api/call-api/internal/channel/stream"
	internal_speech_openai "github.com/voxbridgeai/api/call-api/internal/speech/openai"
	"github.com/voxbridgeai/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The provider connects here with no Origin header worth checking.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MediaStream upgrades the provider's media-stream connection, dials the
// speech provider, and hands both legs to a relay for the life of the call.
func (api *CallApi) MediaStream(c *gin.Context) {
	phone, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.logger.Errorf("media stream upgrade failed: %v", err)
		return
	}

	option, err := internal_speech_openai.NewOpenaiOption(api.logger, api.cfg.OpenaiApiKey, utils.Option{
		"agent": map[string]interface{}{"model": api.cfg.OpenaiModel},
	})
	if err != nil {
		api.logger.Errorf("speech option build failed: %v", err)
		phone.Close()
		return
	}

	provider, resp, err := websocket.DefaultDialer.Dial(
		option.GetRealtimeConnectionString(),
		option.GetConnectionHeader(),
	)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		api.logger.Errorf("speech provider dial failed (status=%d): %v", status, err)
		phone.Close()
		return
	}

	streamer := channel_stream.NewStreamer(api.logger, api.manager, phone, provider)
	if err := streamer.Run(c.Request.Context()); err != nil {
		api.logger.Warnf("media stream ended with error: %v", err)
	}
}
