package entities

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/google/uuid"
)

// GatewayCallback is a notification received from an external payment gateway
// about one of our transactions. The payload is kept exactly as received.
type GatewayCallback struct {
	id         uuid.UUID
	provider   string
	eventID    string
	reference  string
	event      string
	successful bool
	payload    json.RawMessage
	receivedAt time.Time
}

// NewGatewayCallback validates and creates a callback record.
// (provider, eventID) identifies the callback; redeliveries carry the same pair.
func NewGatewayCallback(provider, eventID, reference, event string, successful bool, payload json.RawMessage) (*GatewayCallback, error) {
	var errs errors.ValidationErrors
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		errs.Add("provider", "provider is required")
	}
	if strings.TrimSpace(eventID) == "" {
		errs.Add("eventID", "event id is required")
	}
	if strings.TrimSpace(reference) == "" {
		errs.Add("reference", "transaction reference is required")
	}
	if len(payload) > 0 && !json.Valid(payload) {
		errs.Add("payload", "payload must be valid JSON")
	}
	if errs.HasErrors() {
		return nil, errs
	}
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	return &GatewayCallback{
		id:         uuid.New(),
		provider:   provider,
		eventID:    strings.TrimSpace(eventID),
		reference:  strings.TrimSpace(reference),
		event:      event,
		successful: successful,
		payload:    payload,
		receivedAt: time.Now().UTC(),
	}, nil
}

// ReconstructGatewayCallback reconstructs a GatewayCallback from stored data.
func ReconstructGatewayCallback(id uuid.UUID, provider, eventID, reference, event string, successful bool, payload []byte, receivedAt time.Time) *GatewayCallback {
	return &GatewayCallback{
		id:         id,
		provider:   provider,
		eventID:    eventID,
		reference:  reference,
		event:      event,
		successful: successful,
		payload:    payload,
		receivedAt: receivedAt,
	}
}

func (c *GatewayCallback) ID() uuid.UUID { return c.id }
func (c *GatewayCallback) Provider() string { return c.provider }
func (c *GatewayCallback) EventID() string { return c.eventID }
func (c *GatewayCallback) Reference() string { return c.reference }
func (c *GatewayCallback) Event() string { return c.event }
func (c *GatewayCallback) IsSuccessful() bool { return c.successful }
func (c *GatewayCallback) ReceivedAt() time.Time { return c.receivedAt }

// Payload returns the raw payload bytes.
func (c *GatewayCallback) Payload() json.RawMessage {
	return c.payload
}

// DecodedPayload returns the payload as a generic JSON value for embedding in
// transaction metadata. Falls back to the raw string if it does not decode.
func (c *GatewayCallback) DecodedPayload() interface{} {
	var v interface{}
	if err := json.Unmarshal(c.payload, &v); err != nil {
		return string(c.payload)
	}
	return v
}
