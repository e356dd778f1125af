package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"restropos_backend/internal/services"
	"restropos_backend/pkg/utils"
)

// ReportHandler exposes the sales and receivables aging reports.
type ReportHandler struct {
	reportService *services.ReportService
	agingService  *services.AgingReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *services.ReportService, agingService *services.AgingReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, agingService: agingService}
}

// GetSalesReport summarizes completed sales and collections for a date range.
// Dates are YYYY-MM-DD; end is inclusive (the report covers end day fully).
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")
	if startStr == "" || endStr == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "start_date and end_date are required.", ""))
		return
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "start_date must be YYYY-MM-DD.", err.Error()))
		return
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "end_date must be YYYY-MM-DD.", err.Error()))
		return
	}

	report, err := h.reportService.SalesReport(start, end.AddDate(0, 0, 1))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetAgingReport returns receivables aging for all customers with an
// outstanding balance.
func (h *ReportHandler) GetAgingReport(c *gin.Context) {
	report, err := h.agingService.AgingReport(time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"aging_report": report})
}
