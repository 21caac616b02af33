package handlers

import (
	"net/http"

	"github.com/andresuchdata/stockwatch/internal/export"
	"github.com/andresuchdata/stockwatch/internal/service"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	service *service.ExportService
}

func NewExportHandler(service *service.ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// ExportReorderList streams the reorder list as csv or xlsx.
func (h *ExportHandler) ExportReorderList(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid format", "details": err.Error()})
		return
	}

	result, err := h.service.ExportReorderList(c.Request.Context(), filter, format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export reorder list", "details": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.FileName)
	c.Header("X-Export-Id", result.Record.ID)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

func (h *ExportHandler) ListExports(c *gin.Context) {
	records, err := h.service.ListExports(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list exports", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exports": records})
}
