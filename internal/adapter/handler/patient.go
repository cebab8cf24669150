package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/handoff-assistant/errors"
	handoffdto "github.com/johnquangdev/handoff-assistant/internal/adapter/dto/handoff"
	patientdto "github.com/johnquangdev/handoff-assistant/internal/adapter/dto/patient"
	"github.com/johnquangdev/handoff-assistant/internal/adapter/presenter"
	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
	"github.com/johnquangdev/handoff-assistant/internal/usecase/handoff"
)

// Patient handles patient registry and timeline requests
type Patient struct {
	svc    handoff.Service
	logger *zap.Logger
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(svc handoff.Service, logger *zap.Logger) *Patient {
	return &Patient{svc: svc, logger: logger}
}

// CreatePatient handles POST /v1/patients
// @Summary      Register a patient
// @Tags         Patients
// @Accept       json
// @Produce      json
// @Param        request  body      patient.CreatePatientRequest  true  "Patient"
// @Success      201      {object}  patient.PatientResponse
// @Router       /patients [post]
func (h *Patient) CreatePatient(c echo.Context) error {
	var req patientdto.CreatePatientRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		appErr := errors.ErrInvalidArgument("validation failed")
		appErr.Raw = err
		return HandleError(h.logger, c, appErr)
	}

	p := &entities.Patient{
		Name:            req.Name,
		BedNumber:       req.BedNumber,
		Age:             req.Age,
		AdmissionReason: req.AdmissionReason,
		Status:          entities.PatientStatusAdmitted,
	}
	if err := h.svc.RegisterPatient(c.Request().Context(), p); err != nil {
		return HandleError(h.logger, c, toAppError(err, 0))
	}
	return HandleCreated(h.logger, c, presenter.ToPatientResponse(p))
}

// GetPatient handles GET /v1/patients/:id
// @Summary      Get a patient
// @Tags         Patients
// @Produce      json
// @Param        id   path      int  true  "Patient ID"
// @Success      200  {object}  patient.PatientResponse
// @Router       /patients/{id} [get]
func (h *Patient) GetPatient(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id))
	}
	return HandleSuccess(h.logger, c, presenter.ToPatientResponse(p))
}

// ListHandoffs handles GET /v1/patients/:id/handoffs
// @Summary      Handoff timeline for a patient, newest first
// @Tags         Patients
// @Produce      json
// @Param        id     path   int  true   "Patient ID"
// @Param        limit  query  int  false  "Max entries (default 10)"
// @Router       /patients/{id}/handoffs [get]
func (h *Patient) ListHandoffs(c echo.Context) error {
	id, req, err := h.bindTimeline(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	history, err := h.svc.History(c.Request().Context(), id, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id))
	}
	return HandleSuccess(h.logger, c, presenter.ToHandoffSummaryList(history))
}

// RiskTrend handles GET /v1/patients/:id/risk-trend
// @Summary      Risk score series for charting, oldest first
// @Tags         Patients
// @Produce      json
// @Param        id     path   int  true   "Patient ID"
// @Param        limit  query  int  false  "Max points (default 10)"
// @Router       /patients/{id}/risk-trend [get]
func (h *Patient) RiskTrend(c echo.Context) error {
	id, req, err := h.bindTimeline(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	view, err := h.svc.RiskTrend(c.Request().Context(), id, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id))
	}
	return HandleSuccess(h.logger, c, presenter.ToRiskTrendResponse(view))
}

// ActiveRisks handles GET /v1/patients/:id/active-risks
// @Summary      Currently open risks for a patient
// @Tags         Patients
// @Produce      json
// @Param        id  path  int  true  "Patient ID"
// @Router       /patients/{id}/active-risks [get]
func (h *Patient) ActiveRisks(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	risks, err := h.svc.ActiveRisks(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id))
	}
	return HandleSuccess(h.logger, c, presenter.ToActiveRiskList(risks))
}

func (h *Patient) bindTimeline(c echo.Context) (int64, handoffdto.ListHandoffsRequest, error) {
	var req handoffdto.ListHandoffsRequest
	id, err := parseIDParam(c, "id")
	if err != nil {
		return 0, req, err
	}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return 0, req, errors.ErrInvalidArgument("invalid query parameters")
	}
	if err := c.Validate(&req); err != nil {
		appErr := errors.ErrInvalidArgument("validation failed")
		appErr.Raw = err
		return 0, req, appErr
	}
	return id, req, nil
}
