// internal/handlers/shift.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
)

type ShiftHandler struct {
	shiftService *services.ShiftService
}

func NewShiftHandler(shiftService *services.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

// GET /shifts
func (h *ShiftHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c, services.ShiftSortFields)

	shifts, total, err := h.shiftService.ListShifts(params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(shifts, total, params))
}

// POST /shifts
func (h *ShiftHandler) Create(c *gin.Context) {
	var req services.CreateShiftRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	shift, err := h.shiftService.CreateShift(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyShiftOpened),
		"shift":   shift,
	})
}

// GET /shifts/current
func (h *ShiftHandler) Current(c *gin.Context) {
	snapshot, err := h.shiftService.CurrentSnapshot()
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, snapshot)
}

// GET /shifts/:id/stats
func (h *ShiftHandler) Stats(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	snapshot, err := h.shiftService.ShiftStats(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, snapshot)
}

// POST /shifts/:id/close
func (h *ShiftHandler) Close(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.shiftService.CloseShift(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyShiftClosed),
		"shift":   result.Shift,
		"summary": result.Summary,
	})
}

// GET /shifts/:id/summary
func (h *ShiftHandler) Summary(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.shiftService.Summary(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, summary)
}

// POST /shifts/:id/summary
func (h *ShiftHandler) GenerateSummary(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.shiftService.GenerateSummary(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	if summary == nil {
		utils.NotFoundResponse(c, "shift_summary")
		return
	}
	utils.SuccessResponse(c, summary)
}

// GET /shifts/:id/report-url
func (h *ShiftHandler) ReportURL(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	url, err := h.shiftService.ReportURL(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"url": url,
	})
}

// GET /shifts/day/:date
func (h *ShiftHandler) Day(c *gin.Context) {
	day, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "date"), nil)
		return
	}

	aggregate, err := h.shiftService.DayAggregate(day)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, aggregate)
}
