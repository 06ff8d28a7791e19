package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/labworks/intake-backend/internal/intake"
	pkgerrors "github.com/labworks/intake-backend/internal/pkg/errors"
	"github.com/labworks/intake-backend/internal/pkg/logger"
	"github.com/labworks/intake-backend/internal/services"
)

type IntakeHandler struct {
	log           *logger.Logger
	intakeService services.IntakeService
}

func NewIntakeHandler(log *logger.Logger, intakeService services.IntakeService) *IntakeHandler {
	return &IntakeHandler{
		log:           log.With("handler", "IntakeHandler"),
		intakeService: intakeService,
	}
}

type registerSampleRequest struct {
	ClientName      string            `json:"clientName"`
	ProjectTitle    string            `json:"projectTitle"`
	ReceivedDate    string            `json:"receivedDate"`
	SampleCode      string            `json:"sampleCode"`
	ReceivedBy      string            `json:"receivedBy"`
	DeliveredBy     string            `json:"deliveredBy"`
	ContactNumber   string            `json:"contactNumber"`
	TransmittalMode string            `json:"transmittalMode"`
	Tests           []testRequest     `json:"tests"`
	Sets            []intake.SetInput `json:"sets"`
}

type testRequest struct {
	MaterialTest string `json:"materialTest"`
}

// POST /api/samples
// Register a receipt: persist the sample and its sets, route every set into
// its ledger, and return the outcome manifest alongside the created sample.
func (h *IntakeHandler) RegisterSample(c *gin.Context) {
	var req registerSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}

	input := services.IntakeInput{
		ClientName:      req.ClientName,
		ProjectTitle:    req.ProjectTitle,
		SampleCode:      req.SampleCode,
		ReceivedBy:      req.ReceivedBy,
		DeliveredBy:     req.DeliveredBy,
		ContactNumber:   req.ContactNumber,
		TransmittalMode: req.TransmittalMode,
		Sets:            req.Sets,
	}
	for _, t := range req.Tests {
		input.Tests = append(input.Tests, services.TestInput{MaterialTest: t.MaterialTest})
	}
	if req.ReceivedDate != "" {
		received, err := parseReceiptDate(req.ReceivedDate)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_received_date", err)
			return
		}
		input.ReceivedDate = received
	}

	result, err := h.intakeService.RegisterSample(c.Request.Context(), nil, input)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "validation_failed", err)
			return
		}
		h.log.Error("RegisterSample failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "intake_failed", err)
		return
	}
	RespondCreated(c, result)
}

// GET /api/samples/:id
func (h *IntakeHandler) GetSample(c *gin.Context) {
	sampleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_sample_id", err)
		return
	}
	detail, err := h.intakeService.GetSample(c.Request.Context(), nil, sampleID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "sample_not_found", err)
			return
		}
		h.log.Error("GetSample failed", "sample_id", sampleID, "error", err)
		RespondError(c, http.StatusInternalServerError, "sample_lookup_failed", err)
		return
	}
	RespondOK(c, detail)
}

// POST /api/samples/:id/logs/rebuild
// Retry ledger routing for a sample whose intake reported failed sets.
func (h *IntakeHandler) RebuildLogs(c *gin.Context) {
	sampleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_sample_id", err)
		return
	}
	outcomes, err := h.intakeService.RebuildLogs(c.Request.Context(), nil, sampleID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "sample_not_found", err)
			return
		}
		h.log.Error("RebuildLogs failed", "sample_id", sampleID, "error", err)
		RespondError(c, http.StatusInternalServerError, "rebuild_failed", err)
		return
	}
	RespondOK(c, gin.H{"outcomes": outcomes})
}

var receiptDateLayouts = []string{"2006-01-02", time.RFC3339}

func parseReceiptDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range receiptDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
