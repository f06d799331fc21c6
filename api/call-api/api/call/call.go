// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package call_api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxbridgeai/api/call-api/config"
	internal_callrecord "github.com/voxbridgeai/api/call-api/internal/callrecord"
	internal_session "github.com/voxbridgeai/api/call-api/internal/session"
	internal_speech_openai "github.com/voxbridgeai/api/call-api/internal/speech/openai"
	internal_transcript "github.com/voxbridgeai/api/call-api/internal/transcript"
	internal_twilio_telephony "github.com/voxbridgeai/api/call-api/internal/telephony/twilio"
	"github.com/voxbridgeai/pkg/commons"
)

// CallApi exposes the call-facing HTTP surface: call placement, provider
// webhooks and transcript retrieval.
type CallApi struct {
	cfg         *config.AppConfig
	logger      commons.Logger
	manager     internal_session.Manager
	transcripts internal_transcript.Store
	records     internal_callrecord.Store
	telephony   internal_twilio_telephony.Telephony
	transcriber internal_speech_openai.Transcriber
}

func NewCallApi(
	cfg *config.AppConfig,
	logger commons.Logger,
	manager internal_session.Manager,
	transcripts internal_transcript.Store,
	records internal_callrecord.Store,
	telephony internal_twilio_telephony.Telephony,
	transcriber internal_speech_openai.Transcriber,
) *CallApi {
	return &CallApi{
		cfg:         cfg,
		logger:      logger,
		manager:     manager,
		transcripts: transcripts,
		records:     records,
		telephony:   telephony,
		transcriber: transcriber,
	}
}

type createPhoneCallRequest struct {
	ToNumber  string `json:"toNumber" binding:"required,e164"`
	ContactID string `json:"contactId"`
}

// CreatePhoneCall places an outbound call and saves its record.
func (api *CallApi) CreatePhoneCall(c *gin.Context) {
	var req createPhoneCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callSid, err := api.telephony.PlaceCall(req.ToNumber, api.voiceURL(), api.statusURL(), api.recordingURL())
	if err != nil {
		api.logger.Errorf("failed to place call to %s: %v", req.ToNumber, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to place call, please try again in sometime"})
		return
	}

	record := &internal_callrecord.CallRecord{
		CallSid:    callSid,
		Direction:  internal_callrecord.DirectionOutbound,
		FromNumber: api.cfg.TwilioFromNumber,
		ToNumber:   req.ToNumber,
		ContactID:  req.ContactID,
	}
	if err := api.records.Save(c.Request.Context(), record); err != nil {
		api.logger.Errorf("failed to save call record %s: %v", callSid, err)
	}

	c.JSON(http.StatusOK, gin.H{"callSid": callSid})
}

// VoiceWebhook answers the provider's voice callback with stream TwiML.
func (api *CallApi) VoiceWebhook(c *gin.Context) {
	doc, err := internal_twilio_telephony.StreamTwiML(api.streamURL())
	if err != nil {
		api.logger.Errorf("failed to render twiml: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml", doc)
}

// StatusCallback ingests provider call-status callbacks. These arrive out of
// order and possibly after the media stream is gone; every branch here is
// tolerant of duplicates.
func (api *CallApi) StatusCallback(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")
	if callSid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CallSid is required"})
		return
	}
	ctx := c.Request.Context()

	switch internal_twilio_telephony.NormalizeCallStatus(status) {
	case internal_twilio_telephony.CallEventRinging:
		if err := api.records.Transition(ctx, callSid, internal_callrecord.StatusRinging,
			internal_callrecord.StatusQueued); err != nil {
			api.logger.Debugf("ringing transition skipped: %v", err)
		}

	case internal_twilio_telephony.CallEventAnswered:
		if err := api.records.Transition(ctx, callSid, internal_callrecord.StatusActive,
			internal_callrecord.StatusQueued, internal_callrecord.StatusRinging); err != nil {
			api.logger.Debugf("active transition skipped: %v", err)
		}
		// The media stream also opens the session; whichever arrives first wins
		// and the other is a no-op.
		api.manager.OpenSession(callSid)

	case internal_twilio_telephony.CallEventCompleted:
		if err := api.records.MarkStatus(ctx, callSid, internal_callrecord.StatusCompleted); err != nil {
			api.logger.Errorf("failed to mark call completed: %v", err)
		}
		api.manager.CloseSession(callSid)
		if _, err := api.manager.CommitSession(ctx, callSid); err != nil {
			// Retryable: the stream teardown and shutdown hook also attempt it.
			api.logger.Errorf("webhook-side commit failed: callId=%s: %v", callSid, err)
		}

	case internal_twilio_telephony.CallEventFailed:
		if err := api.records.MarkStatus(ctx, callSid, internal_callrecord.StatusFailed); err != nil {
			api.logger.Errorf("failed to mark call failed: %v", err)
		}
		api.manager.CloseSession(callSid)
		if _, err := api.manager.CommitSession(ctx, callSid); err != nil {
			api.logger.Errorf("webhook-side commit failed: callId=%s: %v", callSid, err)
		}
	}

	c.Status(http.StatusNoContent)
}

// RecordingCallback fires when the provider finishes recording a call. It
// drives the backup transcript: download the audio, transcribe it, and hand
// the text to the session manager as a batch turn. The callback may arrive
// long after commit, or for a call this process never handled; the session
// manager absorbs both cases.
func (api *CallApi) RecordingCallback(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	status := c.PostForm("RecordingStatus")
	recordingURL := c.PostForm("RecordingUrl")
	if callSid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CallSid is required"})
		return
	}
	if status != "completed" || recordingURL == "" {
		api.logger.Warnf("recording callback without media: callId=%s status=%s", callSid, status)
		c.Status(http.StatusNoContent)
		return
	}

	ctx := c.Request.Context()
	audio, err := api.telephony.DownloadRecording(ctx, recordingURL)
	if err != nil {
		api.logger.Errorf("failed to download recording: callId=%s: %v", callSid, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to fetch recording"})
		return
	}

	text, err := api.transcriber.Transcribe(ctx, audio)
	if err != nil {
		api.logger.Errorf("failed to transcribe recording: callId=%s: %v", callSid, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to transcribe recording"})
		return
	}
	if text == "" {
		c.Status(http.StatusNoContent)
		return
	}

	api.manager.AppendBatchTurn(ctx, callSid, text, nil)
	c.Status(http.StatusNoContent)
}

// GetTranscript returns a call's persisted turns in sequence order, plus the
// live session state when this process still holds it.
func (api *CallApi) GetTranscript(c *gin.Context) {
	callSid := c.Param("callSid")

	turns, err := api.transcripts.GetTurns(c.Request.Context(), callSid)
	if err != nil {
		api.logger.Errorf("failed to read transcript %s: %v", callSid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to read transcript"})
		return
	}

	state := ""
	if snap, ok := api.manager.GetSnapshot(callSid); ok {
		state = string(snap.State)
	}

	c.JSON(http.StatusOK, gin.H{
		"callSid": callSid,
		"state":   state,
		"turns":   turns,
	})
}

func (api *CallApi) voiceURL() string {
	return fmt.Sprintf("https://%s/v1/call/twilio/voice", api.cfg.PublicHost)
}

func (api *CallApi) statusURL() string {
	return fmt.Sprintf("https://%s/v1/call/twilio/status", api.cfg.PublicHost)
}

func (api *CallApi) recordingURL() string {
	return fmt.Sprintf("https://%s/v1/call/twilio/recording", api.cfg.PublicHost)
}

func (api *CallApi) streamURL() string {
	return fmt.Sprintf("wss://%s/v1/call/twilio/stream", api.cfg.PublicHost)
}
