package payloadschema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateWhatsAppMessage_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"message_id":"wamid.ABC123",
		"from":"5491100000000@c.us",
		"body":"iPhone 13 128GB 450usd"
	}`)

	message, err := ValidateWhatsAppMessage(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}

	if message.MessageID != "wamid.ABC123" {
		t.Fatalf("expected message_id=wamid.ABC123, got %q", message.MessageID)
	}
	if message.Sender() != "5491100000000@c.us" {
		t.Fatalf("unexpected sender: %q", message.Sender())
	}
}

func TestValidateWhatsAppMessage_ChatIDFallback(t *testing.T) {
	payload := json.RawMessage(`{
		"message_id":"wamid.DEF456",
		"chat_id":"5491100000000@c.us",
		"body":"Samsung S24 800"
	}`)

	message, err := ValidateWhatsAppMessage(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}
	if message.Sender() != "5491100000000@c.us" {
		t.Fatalf("unexpected sender: %q", message.Sender())
	}
}

func TestValidateWhatsAppMessage_MissingMessageIDDerivesExternalID(t *testing.T) {
	payload := json.RawMessage(`{
		"from":"5491100000000@c.us",
		"body":"iPhone 13 450"
	}`)

	message, err := ValidateWhatsAppMessage(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid without message_id, got error: %v", err)
	}

	first := message.ExternalID()
	if first == "" {
		t.Fatal("expected a derived external id")
	}
	if len(first) != 64 {
		t.Fatalf("expected a hex digest, got %q", first)
	}

	replay, err := ValidateWhatsAppMessage(payload)
	if err != nil {
		t.Fatalf("replay validation failed: %v", err)
	}
	if replay.ExternalID() != first {
		t.Fatalf("derived external id is not stable: %q vs %q", replay.ExternalID(), first)
	}
}

func TestExternalIDPrefersGatewayID(t *testing.T) {
	message := WhatsAppMessage{MessageID: "wamid.XYZ", From: "a", Body: "b"}
	if got := message.ExternalID(); got != "wamid.XYZ" {
		t.Fatalf("expected gateway id, got %q", got)
	}
}

func TestValidateWhatsAppMessage_MissingSender(t *testing.T) {
	payload := json.RawMessage(`{
		"message_id":"wamid.GHI789",
		"body":"iPhone 13 450"
	}`)

	if _, err := ValidateWhatsAppMessage(payload); err == nil {
		t.Fatalf("expected validation to fail without from or chat_id")
	}
}

func TestValidateWhatsAppMessage_WhitespaceBody(t *testing.T) {
	payload := json.RawMessage(`{
		"message_id":"wamid.JKL012",
		"from":"5491100000000@c.us",
		"body":"   "
	}`)

	_, err := ValidateWhatsAppMessage(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for whitespace-only body")
	}
	if !strings.Contains(err.Error(), "body must not be empty") {
		t.Fatalf("expected body semantic error, got: %v", err)
	}
}

func TestValidateWhatsAppMessage_UnknownField(t *testing.T) {
	payload := json.RawMessage(`{
		"message_id":"wamid.MNO345",
		"from":"5491100000000@c.us",
		"body":"iPhone 13 450",
		"extra":"nope"
	}`)

	if _, err := ValidateWhatsAppMessage(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown field")
	}
}

func TestValidateWhatsAppMessage_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{"message_id":"a","from":"b","body":"c"} {}`)

	if _, err := ValidateWhatsAppMessage(payload); err == nil {
		t.Fatalf("expected validation to fail for trailing content")
	}
}
