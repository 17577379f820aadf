package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"event_staffing_backend/internal/services"
	"event_staffing_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves time entry exports.
type ReportHandler struct {
	reports services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reports: rs}
}

// ExportEntries returns completed entries as JSON (default) or CSV.
func (h *ReportHandler) ExportEntries(c *gin.Context) {
	filter, err := parseEntryFilter(c)
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" {
		utils.RespondValidationFailed(c, fmt.Sprintf("unsupported format %q", format))
		return
	}

	export, err := h.reports.ExportEntries(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "ExportEntries: Error from reportService.ExportEntries")
		return
	}

	if format == "json" {
		c.JSON(http.StatusOK, export)
		return
	}
	var buf bytes.Buffer
	if err := services.WriteEntriesCSV(&buf, export); err != nil {
		respondServiceError(c, err, "ExportEntries: Failed to render CSV")
		return
	}
	filename := fmt.Sprintf("time-entries-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
