// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_twilio_telephony

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/voxbridgeai/pkg/commons"
)

// Credential carries the Twilio account credentials and default caller number.
type Credential struct {
	AccountSid string
	AuthToken  string
	FromNumber string
}

// Telephony places and controls calls on Twilio. It is the only component
// talking to the provider REST API; webhooks and the media stream come back
// through the HTTP surface.
type Telephony interface {
	// PlaceCall dials toNumber and points the call at the voice webhook, which
	// answers with stream TwiML. Returns the provider call SID; that SID is
	// the session callID every other component keys on.
	PlaceCall(toNumber, voiceURL, statusCallbackURL, recordingCallbackURL string) (string, error)

	// Hangup terminates an in-progress call.
	Hangup(callSid string) error

	// DownloadRecording fetches the audio of a completed call recording, for
	// the backup transcription of the call.
	DownloadRecording(ctx context.Context, recordingURL string) ([]byte, error)
}

type twl struct {
	logger     commons.Logger
	client     *twilio.RestClient
	media      *resty.Client
	credential Credential
}

func NewTwilio(logger commons.Logger, credential Credential) (Telephony, error) {
	if credential.AccountSid == "" || credential.AuthToken == "" {
		return nil, fmt.Errorf("illegal twilio credential: account sid and auth token are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: credential.AccountSid,
		Password: credential.AuthToken,
	})
	// Recording media lives outside the REST SDK's surface; it is fetched
	// with plain authenticated GETs.
	media := resty.New().SetBasicAuth(credential.AccountSid, credential.AuthToken)
	return &twl{
		logger:     logger,
		client:     client,
		media:      media,
		credential: credential,
	}, nil
}

func (tpc *twl) PlaceCall(toNumber, voiceURL, statusCallbackURL, recordingCallbackURL string) (string, error) {
	params := &twilioApi.CreateCallParams{}
	params.SetTo(toNumber)
	params.SetFrom(tpc.credential.FromNumber)
	params.SetUrl(voiceURL)
	params.SetStatusCallback(statusCallbackURL)
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	params.SetRecord(true)
	params.SetRecordingStatusCallback(recordingCallbackURL)
	params.SetRecordingStatusCallbackEvent([]string{"completed"})

	resp, err := tpc.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("failed to place call to %s: %w", toNumber, err)
	}
	if resp.Sid == nil {
		return "", fmt.Errorf("provider returned call without sid for %s", toNumber)
	}

	tpc.logger.Infof("placed outbound call: callSid=%s to=%s", *resp.Sid, toNumber)
	return *resp.Sid, nil
}

func (tpc *twl) DownloadRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	// The callback's RecordingUrl has no extension; the wav rendition is the
	// full-quality one.
	resp, err := tpc.media.R().SetContext(ctx).Get(recordingURL + ".wav")
	if err != nil {
		return nil, fmt.Errorf("failed to download recording: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recording download returned %s", resp.Status())
	}
	return resp.Body(), nil
}

func (tpc *twl) Hangup(callSid string) error {
	params := &twilioApi.UpdateCallParams{}
	params.SetStatus("completed")
	if _, err := tpc.client.Api.UpdateCall(callSid, params); err != nil {
		return fmt.Errorf("failed to hang up call %s: %w", callSid, err)
	}
	tpc.logger.Infof("hung up call: callSid=%s", callSid)
	return nil
}
