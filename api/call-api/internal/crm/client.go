// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_crm

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/voxbridgeai/pkg/commons"
)

// Contact is a CRM contact due for an outbound call.
type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

// Client talks to the CRM REST API.
type Client interface {
	// DueContacts lists contacts scheduled for an outbound call.
	DueContacts(ctx context.Context) ([]Contact, error)

	// MarkCalled records on the contact that a call was placed, keyed by the
	// provider call SID so the CRM can link back to the transcript.
	MarkCalled(ctx context.Context, contactID, callSid string) error
}

type restClient struct {
	logger commons.Logger
	http   *resty.Client
}

// NewClient creates a CRM client for the given base URL and API key.
func NewClient(logger commons.Logger, baseURL, apiKey string) Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Accept", "application/json")
	return &restClient{
		logger: logger,
		http:   http,
	}
}

func (c *restClient) DueContacts(ctx context.Context) ([]Contact, error) {
	var contacts []Contact
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&contacts).
		Get("/v1/contacts/due-calls")
	if err != nil {
		return nil, fmt.Errorf("crm due-calls request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("crm due-calls returned %s", resp.Status())
	}

	c.logger.Debugf("crm sync: %d contacts due", len(contacts))
	return contacts, nil
}

func (c *restClient) MarkCalled(ctx context.Context, contactID, callSid string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"callSid": callSid}).
		Post(fmt.Sprintf("/v1/contacts/%s/called", contactID))
	if err != nil {
		return fmt.Errorf("crm mark-called request failed for %s: %w", contactID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("crm mark-called returned %s for %s", resp.Status(), contactID)
	}
	return nil
}
