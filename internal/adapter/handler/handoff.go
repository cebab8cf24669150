package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/handoff-assistant/errors"
	handoffdto "github.com/johnquangdev/handoff-assistant/internal/adapter/dto/handoff"
	"github.com/johnquangdev/handoff-assistant/internal/adapter/presenter"
	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/usecase/handoff"
)

// Handoff handles handoff analysis HTTP requests
type Handoff struct {
	svc    handoff.Service
	logger *zap.Logger
	now    func() time.Time
}

// NewHandoffHandler creates a new handoff handler
func NewHandoffHandler(svc handoff.Service, logger *zap.Logger) *Handoff {
	return &Handoff{svc: svc, logger: logger, now: time.Now}
}

// ProcessHandoff handles POST /v1/handoffs/process
// @Summary      Analyze and store a handoff transcript
// @Tags         Handoffs
// @Accept       json
// @Produce      json
// @Param        request  body      handoff.ProcessHandoffRequest  true  "Transcript"
// @Success      200      {object}  handoff.ProcessHandoffResponse
// @Failure      400      {object}  map[string]interface{}  "Empty transcript or invalid input"
// @Failure      404      {object}  map[string]interface{}  "Patient not found"
// @Router       /handoffs/process [post]
func (h *Handoff) ProcessHandoff(c echo.Context) error {
	t, err := h.bindTranscript(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	outcome, err := h.svc.Process(c.Request().Context(), t)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, t.PatientID))
	}
	return HandleSuccess(h.logger, c, presenter.ToProcessHandoffResponse(outcome))
}

// QuickRisk handles POST /v1/handoffs/risk
// @Summary      Score a transcript without storing it
// @Tags         Handoffs
// @Accept       json
// @Produce      json
// @Param        request  body      handoff.ProcessHandoffRequest  true  "Transcript"
// @Success      200      {object}  handoff.QuickRiskResponse
// @Router       /handoffs/risk [post]
func (h *Handoff) QuickRisk(c echo.Context) error {
	t, err := h.bindTranscript(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.svc.QuickRisk(c.Request().Context(), t)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, t.PatientID))
	}
	return HandleSuccess(h.logger, c, presenter.ToQuickRiskResponse(result))
}

// GetHandoff handles GET /v1/handoffs/:id
// @Summary      Get a stored handoff
// @Tags         Handoffs
// @Produce      json
// @Param        id   path      int  true  "Handoff ID"
// @Success      200  {object}  handoff.HandoffResponse
// @Failure      404  {object}  map[string]interface{}  "Handoff not found"
// @Router       /handoffs/{id} [get]
func (h *Handoff) GetHandoff(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	stored, err := h.svc.GetHandoff(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id))
	}
	return HandleSuccess(h.logger, c, presenter.ToHandoffResponse(stored))
}

func (h *Handoff) bindTranscript(c echo.Context) (entities.Transcript, error) {
	var req handoffdto.ProcessHandoffRequest
	if err := c.Bind(&req); err != nil {
		return entities.Transcript{}, errors.ErrInvalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		appErr := errors.ErrInvalidArgument("validation failed")
		appErr.Raw = err
		return entities.Transcript{}, appErr
	}

	at, err := parseHandoffTime(req.HandoffTime, h.now())
	if err != nil {
		return entities.Transcript{}, err
	}
	return entities.Transcript{
		PatientID:     req.PatientID,
		Text:          req.Transcript,
		HandoffTime:   at,
		DiagnosisHint: req.DiagnosisHint,
	}, nil
}
