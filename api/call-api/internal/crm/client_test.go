// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxbridgeai/pkg/commons"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-crm"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func TestDueContacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/contacts/due-calls" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]Contact{
			{ID: "ct_1", Name: "Ada", PhoneNumber: "+15550100"},
			{ID: "ct_2", Name: "Grace", PhoneNumber: "+15550101"},
		})
	}))
	defer srv.Close()

	client := NewClient(newTestLogger(t), srv.URL, "test-key")
	contacts, err := client.DueContacts(context.Background())
	if err != nil {
		t.Fatalf("due contacts failed: %v", err)
	}
	if len(contacts) != 2 || contacts[0].ID != "ct_1" {
		t.Errorf("unexpected contacts: %+v", contacts)
	}
}

func TestDueContactsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(newTestLogger(t), srv.URL, "test-key")
	if _, err := client.DueContacts(context.Background()); err == nil {
		t.Error("expected error on 500")
	}
}

func TestMarkCalled(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/contacts/ct_1/called" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(newTestLogger(t), srv.URL, "test-key")
	if err := client.MarkCalled(context.Background(), "ct_1", "CA1"); err != nil {
		t.Fatalf("mark called failed: %v", err)
	}
	if gotBody["callSid"] != "CA1" {
		t.Errorf("expected callSid in body, got %+v", gotBody)
	}
}
