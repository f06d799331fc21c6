// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_twilio_telephony

import (
	"encoding/xml"
	"fmt"
)

// Stream TwiML shapes. Twilio fetches the voice webhook on answer and expects
// an XML document telling it where to open the media websocket.
type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Connect twimlConnect `xml:"Connect"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

// StreamTwiML renders the <Connect><Stream> document pointing the call's media
// at the given websocket URL.
func StreamTwiML(streamURL string) ([]byte, error) {
	doc := twimlResponse{
		Connect: twimlConnect{
			Stream: twimlStream{URL: streamURL},
		},
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render stream twiml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
