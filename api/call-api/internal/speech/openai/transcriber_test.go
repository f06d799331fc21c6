// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_speech_openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing auth header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart body: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("unexpected model %q", r.FormValue("model"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing audio file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hi there, recorded copy"}`))
	}))
	defer srv.Close()

	tr := NewTranscriber(newTestLogger(t), srv.URL, "sk-test")
	text, err := tr.Transcribe(context.Background(), []byte("RIFFfakewav"))
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if text != "hi there, recorded copy" {
		t.Errorf("unexpected transcript %q", text)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"audio too short"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tr := NewTranscriber(newTestLogger(t), srv.URL, "sk-test")
	if _, err := tr.Transcribe(context.Background(), []byte("x")); err == nil {
		t.Error("expected error on 400")
	} else if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should carry the status, got %v", err)
	}
}
