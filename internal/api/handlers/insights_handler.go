package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/andresuchdata/stockwatch/internal/service"
	"github.com/gin-gonic/gin"
)

type InsightsHandler struct {
	service *service.InsightsService
}

func NewInsightsHandler(service *service.InsightsService) *InsightsHandler {
	return &InsightsHandler{service: service}
}

type insightsRequest struct {
	Question string `json:"question"`
}

// Ask answers a question about the filtered snapshot. An empty body asks for a general analysis.
func (h *InsightsHandler) Ask(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	var req insightsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	insight, err := h.service.Ask(c.Request.Context(), filter, req.Question)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate insights", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, insight)
}

// AskSQL answers a question by running model generated SQL against the warehouse.
func (h *InsightsHandler) AskSQL(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	var req insightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	insight, err := h.service.AskSQL(c.Request.Context(), filter, req.Question)
	if errors.Is(err, service.ErrEmptyQuestion) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer question", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, insight)
}
