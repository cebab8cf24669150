package handler

import (
	"encoding/json"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/handoff-assistant/errors"
	handoffdto "github.com/johnquangdev/handoff-assistant/internal/adapter/dto/handoff"
	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/handoff-assistant/internal/usecase/handoff"
)

// WebhookHandler receives signed transcripts from the transcription collaborator.
// Signature checks run in middleware.EchoSignature before it.
type WebhookHandler struct {
	svc    handoff.Service
	logger *zap.Logger
	now    func() time.Time
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(svc handoff.Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, logger: logger, now: time.Now}
}

// HandleTranscriptWebhook queues a verified transcript
// @Summary      Transcript webhook
// @Description  Accepts a transcript signed with X-Signature: hex(hmac_sha256(secret, body))
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Success      202  {object}  handoff.WebhookAcceptedResponse
// @Failure      401  {object}  map[string]interface{}
// @Failure      429  {object}  map[string]interface{}
// @Router       /webhooks/transcripts [post]
func (h *WebhookHandler) HandleTranscriptWebhook(c echo.Context) error {
	body, ok := middleware.RawBody(c)
	if !ok {
		raw, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidPayload())
		}
		body = raw
	}

	var req handoffdto.TranscriptWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		appErr := errors.ErrInvalidArgument("validation failed")
		appErr.Raw = err
		return HandleError(h.logger, c, appErr)
	}

	at, err := parseHandoffTime(req.HandoffTime, h.now())
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	t := entities.Transcript{
		PatientID:     req.PatientID,
		Text:          req.Transcript,
		HandoffTime:   at,
		DiagnosisHint: req.DiagnosisHint,
	}
	if err := h.svc.Enqueue(c.Request().Context(), t); err != nil {
		return HandleError(h.logger, c, toAppError(err, req.PatientID))
	}

	return HandleAccepted(h.logger, c, handoffdto.WebhookAcceptedResponse{
		Status:    "queued",
		PatientID: req.PatientID,
	})
}
