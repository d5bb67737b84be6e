package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/jury-scheduler-api/internal/dto"
	"github.com/noah-isme/jury-scheduler-api/internal/middleware"
	appErrors "github.com/noah-isme/jury-scheduler-api/pkg/errors"
	"github.com/noah-isme/jury-scheduler-api/pkg/response"
)

type juryScheduler interface {
	Schedule(ctx context.Context, req dto.ScheduleJuriesRequest) (*dto.ScheduleJuriesResponse, error)
	LastSummary(ctx context.Context, departmentID string) (*dto.ScheduleJuriesResponse, error)
}

type juryRunner interface {
	Enqueue(ctx context.Context, req dto.ScheduleJuriesRequest) (*dto.JuryRunResponse, error)
	Get(ctx context.Context, id string) (*dto.JuryRunResponse, error)
}

// JurySchedulerHandler exposes the jury scheduling endpoints.
type JurySchedulerHandler struct {
	scheduler juryScheduler
	runs      juryRunner
	logger    *zap.Logger
}

// NewJurySchedulerHandler constructs the handler. runs may be nil when asynchronous runs are disabled.
func NewJurySchedulerHandler(scheduler juryScheduler, runs juryRunner, logger *zap.Logger) *JurySchedulerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JurySchedulerHandler{scheduler: scheduler, runs: runs, logger: logger}
}

// Schedule godoc
// @Summary Schedule juries for every pending project of a department
// @Description Runs the allocator synchronously. Partial persistence failures return 500 with the summary in data.
// @Tags Juries
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleJuriesRequest true "Scheduling request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /juries/schedule [post]
func (h *JurySchedulerHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleJuriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scheduling payload"))
		return
	}
	h.logRequest(c, "jury scheduling requested", req)

	result, err := h.scheduler.Schedule(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"noWork": result.NoWork, "dryRun": result.DryRun})
}

// Enqueue godoc
// @Summary Queue an asynchronous jury scheduling run
// @Tags Juries
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleJuriesRequest true "Scheduling request"
// @Success 202 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /juries/schedule/jobs [post]
func (h *JurySchedulerHandler) Enqueue(c *gin.Context) {
	if h.runs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "asynchronous jury runs are disabled"))
		return
	}
	var req dto.ScheduleJuriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scheduling payload"))
		return
	}
	h.logRequest(c, "jury run requested", req)

	run, err := h.runs.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}

// Job godoc
// @Summary Get the state of an asynchronous jury scheduling run
// @Tags Juries
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /juries/schedule/jobs/{id} [get]
func (h *JurySchedulerHandler) Job(c *gin.Context) {
	if h.runs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "asynchronous jury runs are disabled"))
		return
	}
	run, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run)
}

// Last godoc
// @Summary Get the last recorded scheduling summary of a department
// @Tags Juries
// @Produce json
// @Param departmentId query string true "Department ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /juries/schedule/last [get]
func (h *JurySchedulerHandler) Last(c *gin.Context) {
	result, err := h.scheduler.LastSummary(c.Request.Context(), c.Query("departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func (h *JurySchedulerHandler) logRequest(c *gin.Context, msg string, req dto.ScheduleJuriesRequest) {
	fields := []zap.Field{
		zap.String("department_id", req.DepartmentID),
		zap.String("start_date", req.StartDate),
		zap.Bool("dry_run", req.DryRun),
	}
	if user, ok := middleware.CurrentUser(c); ok {
		fields = append(fields, zap.String("user_id", user.UserID))
	}
	h.logger.Info(msg, fields...)
}
