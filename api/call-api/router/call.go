// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package call_routers

import (
	"github.com/gin-gonic/gin"

	callApi "github.com/voxbridgeai/api/call-api/api/call"
	"github.com/voxbridgeai/api/call-api/config"
	internal_callrecord "github.com/voxbridgeai/api/call-api/internal/callrecord"
	internal_session "github.com/voxbridgeai/api/call-api/internal/session"
	internal_speech_openai "github.com/voxbridgeai/api/call-api/internal/speech/openai"
	internal_transcript "github.com/voxbridgeai/api/call-api/internal/transcript"
	internal_twilio_telephony "github.com/voxbridgeai/api/call-api/internal/telephony/twilio"
	"github.com/voxbridgeai/pkg/commons"
)

func CallApiRoute(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	manager internal_session.Manager,
	transcripts internal_transcript.Store,
	records internal_callrecord.Store,
	telephony internal_twilio_telephony.Telephony,
	transcriber internal_speech_openai.Transcriber,
) {
	apiv1 := engine.Group("v1/call")
	api := callApi.NewCallApi(cfg,
		logger,
		manager,
		transcripts,
		records,
		telephony,
		transcriber,
	)
	{
		apiv1.POST("/create-phone-call", api.CreatePhoneCall)

		// provider callbacks
		apiv1.POST("/twilio/voice", api.VoiceWebhook)
		apiv1.POST("/twilio/status", api.StatusCallback)
		apiv1.POST("/twilio/recording", api.RecordingCallback)

		// media stream websocket
		apiv1.GET("/twilio/stream", api.MediaStream)

		apiv1.GET("/:callSid/transcript", api.GetTranscript)
	}
}
