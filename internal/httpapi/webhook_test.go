package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jaliltomas/preciosbot/internal/pipeline"
)

type ingestCall struct {
	ExternalID string
	Sender     string
	Body       string
}

type fakeIngestor struct {
	calls chan ingestCall
}

func (f *fakeIngestor) IngestAndProcess(_ context.Context, externalID, senderPhone, body string) (pipeline.Result, error) {
	f.calls <- ingestCall{ExternalID: externalID, Sender: senderPhone, Body: body}
	return pipeline.Result{MessageID: 1, Status: pipeline.StatusProcessed}, nil
}

func newWebhookTestServer(ingestor Ingestor) *Server {
	return &Server{
		ingestor: ingestor,
		logger:   zerolog.Nop(),
	}
}

func TestWebhookAcceptsAndProcessesDetached(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{calls: make(chan ingestCall, 1)}
	server := newWebhookTestServer(ingestor)

	payload := `{"message_id":"wamid.ABC","from":"5491100000000@c.us","body":"iphone 13 450"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	if err := server.handleWebhook(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}

	select {
	case call := <-ingestor.calls:
		if call.ExternalID != "wamid.ABC" {
			t.Fatalf("unexpected external id: %q", call.ExternalID)
		}
		if call.Sender != "5491100000000@c.us" {
			t.Fatalf("unexpected sender: %q", call.Sender)
		}
		if call.Body != "iphone 13 450" {
			t.Fatalf("unexpected body: %q", call.Body)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("ingestion was never started")
	}
}

func TestWebhookRejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{calls: make(chan ingestCall, 1)}
	server := newWebhookTestServer(ingestor)

	payload := `{"message_id":"wamid.ABC","body":"iphone 13 450"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	if err := server.handleWebhook(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}

	select {
	case <-ingestor.calls:
		t.Fatalf("invalid payload must not be ingested")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWebhookRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{calls: make(chan ingestCall, 1)}
	server := newWebhookTestServer(ingestor)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	if err := server.handleWebhook(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
