package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	payloadschema "github.com/jaliltomas/preciosbot/schema"
)

const webhookProcessTimeout = 5 * time.Minute

// handleWebhook accepts an inbound WhatsApp message and returns immediately.
// Processing runs detached from the request so slow model calls never block
// the gateway.
func (s *Server) handleWebhook(c echo.Context) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, 1<<20))
	if err != nil {
		return failValidation(c, "unable to read request body")
	}

	message, err := payloadschema.ValidateWhatsAppMessage(body)
	if err != nil {
		return failValidation(c, err.Error())
	}

	go s.runIngest(message)

	return successWithStatus(c, http.StatusAccepted, map[string]any{
		"accepted":   true,
		"message_id": message.ExternalID(),
	})
}

func (s *Server) runIngest(message *payloadschema.WhatsAppMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Str("external_id", message.ExternalID()).
				Msg("webhook processing panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	result, err := s.ingestor.IngestAndProcess(ctx, message.ExternalID(), message.Sender(), message.Body)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("external_id", message.ExternalID()).
			Msg("webhook processing failed")
		return
	}

	s.logger.Info().
		Int64("message_id", result.MessageID).
		Str("status", result.Status).
		Str("reason", result.Reason).
		Int("items", len(result.Outcomes)).
		Msg("webhook message handled")
}
