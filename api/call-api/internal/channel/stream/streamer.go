// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package channel_stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	internal_session "github.com/voxbridgeai/api/call-api/internal/session"
	internal_speech_openai "github.com/voxbridgeai/api/call-api/internal/speech/openai"
	"github.com/voxbridgeai/pkg/commons"
)

const (
	// outputChannelSize buffers provider audio headed back to the telephony
	// leg so a slow write never blocks the provider reader.
	outputChannelSize = 256

	providerPingInterval = 20 * time.Second
	writeTimeout         = 10 * time.Second
)

// errStreamEnded marks the normal end of a relay: the telephony leg sent its
// stop frame. It unwinds the pump group like any failure would, and Run maps
// it back to a nil result.
var errStreamEnded = errors.New("media stream ended")

// telephonyFrame is the Twilio media-stream wire envelope, both directions.
type telephonyFrame struct {
	Event     string          `json:"event"`
	StreamSid string          `json:"streamSid,omitempty"`
	Start     *telephonyStart `json:"start,omitempty"`
	Media     *telephonyMedia `json:"media,omitempty"`
}

type telephonyStart struct {
	CallSid   string `json:"callSid"`
	StreamSid string `json:"streamSid"`
}

type telephonyMedia struct {
	Payload string `json:"payload"` // base64 G.711 mu-law
}

// Conn is the subset of *websocket.Conn the streamer uses on both legs.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Streamer relays one call's media between the telephony websocket and the
// speech provider websocket, and feeds decoded transcript events into the
// session manager. One streamer per call; it owns both connections for the
// duration of Run.
type Streamer struct {
	logger   commons.Logger
	manager  internal_session.Manager
	provider Conn
	phone    Conn

	// bindMu guards callID and streamSid. The telephony pump writes them once
	// when the start frame arrives; the provider and writer pumps read them
	// from their own goroutines.
	bindMu    sync.Mutex
	callID    string
	streamSid string

	// writeMu serializes frames onto the telephony socket: audio comes from
	// the provider pump while marks/clears may come from control paths.
	writeMu sync.Mutex

	outputCh chan string
}

func (s *Streamer) bind(callID, streamSid string) {
	s.bindMu.Lock()
	s.callID = callID
	s.streamSid = streamSid
	s.bindMu.Unlock()
}

// bound returns the callID and streamSid from the start frame, both empty
// until it has been seen.
func (s *Streamer) bound() (string, string) {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	return s.callID, s.streamSid
}

// NewStreamer wires up a relay for one call. The callID is taken from the
// telephony start frame during Run, not trusted from the URL alone.
func NewStreamer(logger commons.Logger, manager internal_session.Manager, phone Conn, provider Conn) *Streamer {
	return &Streamer{
		logger:   logger,
		manager:  manager,
		phone:    phone,
		provider: provider,
		outputCh: make(chan string, outputChannelSize),
	}
}

// Run pumps both legs until either closes or ctx is cancelled. On return the
// session has been closed and a commit attempted; commit failures are logged
// and leave the session retryable by callID.
func (s *Streamer) Run(ctx context.Context) error {
	defer s.phone.Close()
	defer s.provider.Close()

	g, gctx := errgroup.WithContext(ctx)

	// The read pumps block in ReadMessage, which does not watch the context.
	// Closing both sockets once the group starts unwinding is the only way to
	// get them back; without it a stop frame on one leg would leave the other
	// pump blocked forever.
	g.Go(func() error {
		<-gctx.Done()
		s.phone.Close()
		s.provider.Close()
		return nil
	})

	g.Go(func() error { return s.pumpTelephony(gctx) })
	g.Go(func() error { return s.pumpProvider(gctx) })
	g.Go(func() error { return s.writeTelephony(gctx) })
	g.Go(func() error { return s.keepAlive(gctx) })

	err := g.Wait()

	if callID, _ := s.bound(); callID != "" {
		s.manager.CloseSession(callID)
		// Best effort: the status webhook and shutdown hook also try this, and
		// commit is idempotent across all of them.
		commitCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, cerr := s.manager.CommitSession(commitCtx, callID); cerr != nil {
			s.logger.Errorf("stream-side commit failed: callId=%s: %v", callID, cerr)
		}
	}

	if errors.Is(err, errStreamEnded) {
		return nil
	}
	if err != nil && websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil
	}
	return err
}

// pumpTelephony reads Twilio frames: start opens the session, media forwards
// caller audio to the provider, stop ends the relay.
func (s *Streamer) pumpTelephony(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, payload, err := s.phone.ReadMessage()
		if err != nil {
			return fmt.Errorf("telephony read failed: %w", err)
		}

		var frame telephonyFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			s.logger.Warnf("undecodable telephony frame: %v", err)
			continue
		}

		switch frame.Event {
		case "start":
			if frame.Start == nil {
				continue
			}
			s.bind(frame.Start.CallSid, frame.Start.StreamSid)
			s.manager.OpenSession(frame.Start.CallSid)
			if err := s.configureProvider(); err != nil {
				return err
			}
			s.logger.Infof("media stream started: callId=%s streamSid=%s", frame.Start.CallSid, frame.Start.StreamSid)

		case "media":
			if frame.Media == nil {
				continue
			}
			appendMsg, _ := json.Marshal(map[string]string{
				"type":  "input_audio_buffer.append",
				"audio": frame.Media.Payload,
			})
			if err := s.provider.WriteMessage(websocket.TextMessage, appendMsg); err != nil {
				return fmt.Errorf("provider audio write failed: %w", err)
			}

		case "stop":
			callID, _ := s.bound()
			s.logger.Infof("media stream stopped: callId=%s", callID)
			return errStreamEnded
		}
	}
}

// pumpProvider reads provider events, forwards agent audio back to the phone
// leg and assembles transcript events into the session.
func (s *Streamer) pumpProvider(ctx context.Context) error {
	assembler := newTranscriptAssembler(s.logger, s.manager, "")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, payload, err := s.provider.ReadMessage()
		if err != nil {
			return fmt.Errorf("provider read failed: %w", err)
		}

		ev, err := internal_speech_openai.Normalize(payload)
		if err != nil {
			s.logger.Warnf("dropping provider event: %v", err)
			continue
		}

		// The start frame races the first provider events; bind the assembler
		// to the callID lazily.
		if assembler.callID == "" {
			callID, _ := s.bound()
			if callID == "" {
				continue
			}
			assembler.callID = callID
		}

		if ev.Kind == internal_speech_openai.EventAgentAudio {
			select {
			case s.outputCh <- ev.Audio:
			default:
				// The phone leg consumes at real-time rate; sustained overflow
				// means the call is already dead. Drop rather than stall.
				s.logger.Warnf("output buffer full, dropping audio: callId=%s", assembler.callID)
			}
			continue
		}
		assembler.Handle(ev)
	}
}

// writeTelephony drains outputCh onto the telephony socket, preserving order.
func (s *Streamer) writeTelephony(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case audio := <-s.outputCh:
			_, streamSid := s.bound()
			frame := telephonyFrame{
				Event:     "media",
				StreamSid: streamSid,
				Media:     &telephonyMedia{Payload: audio},
			}
			msg, _ := json.Marshal(frame)
			s.writeMu.Lock()
			err := s.phone.WriteMessage(websocket.TextMessage, msg)
			s.writeMu.Unlock()
			if err != nil {
				return fmt.Errorf("telephony audio write failed: %w", err)
			}
		}
	}
}

func (s *Streamer) keepAlive(ctx context.Context) error {
	ticker := time.NewTicker(providerPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.provider.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return fmt.Errorf("provider ping failed: %w", err)
			}
		}
	}
}

// configureProvider pushes the session settings the relay depends on: mu-law
// passthrough audio and caller transcription enabled.
func (s *Streamer) configureProvider() error {
	update := map[string]interface{}{
		"type": "session.update",
		"session": map[string]interface{}{
			"input_audio_format":  "g711_ulaw",
			"output_audio_format": "g711_ulaw",
			"input_audio_transcription": map[string]interface{}{
				"model": "whisper-1",
			},
			"turn_detection": map[string]interface{}{
				"type": "server_vad",
			},
		},
	}
	msg, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to build session update: %w", err)
	}
	if err := s.provider.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("failed to configure provider session: %w", err)
	}
	return nil
}
