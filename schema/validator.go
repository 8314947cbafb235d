package payloadschema

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed whatsapp_message.schema.json
var whatsappMessageSchemaJSON string

// WhatsAppMessage is a validated inbound webhook payload.
type WhatsAppMessage struct {
	MessageID string `json:"message_id"`
	From      string `json:"from,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	Body      string `json:"body"`
}

// Sender returns the sender identifier, preferring from over chat_id.
func (m *WhatsAppMessage) Sender() string {
	if strings.TrimSpace(m.From) != "" {
		return m.From
	}
	return m.ChatID
}

// ExternalID returns the gateway message id, or a digest of sender and body
// when the gateway did not supply one. The digest is stable across redeliveries
// of the same message.
func (m *WhatsAppMessage) ExternalID() string {
	if id := strings.TrimSpace(m.MessageID); id != "" {
		return id
	}
	sum := sha256.Sum256([]byte(m.Sender() + "\x00" + m.Body))
	return hex.EncodeToString(sum[:])
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateWhatsAppMessage checks a webhook payload against the embedded schema
// and returns the decoded message.
func ValidateWhatsAppMessage(payload json.RawMessage) (*WhatsAppMessage, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var message WhatsAppMessage
	if err := json.Unmarshal(normalized, &message); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&message); err != nil {
		return nil, err
	}

	return &message, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("whatsapp_message.schema.json", strings.NewReader(whatsappMessageSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("whatsapp_message.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(message *WhatsAppMessage) error {
	if message == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(message.Body) == "" {
		return fmt.Errorf("body must not be empty")
	}
	if strings.TrimSpace(message.Sender()) == "" {
		return fmt.Errorf("payload needs from or chat_id")
	}

	return nil
}
