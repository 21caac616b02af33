package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/andresuchdata/stockwatch/internal/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func badFilter(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
}

func (h *InventoryHandler) GetItems(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	page, err := h.service.GetItems(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch items", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *InventoryHandler) GetItemForecast(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	horizon, err := queryHorizon(c, h.service.MaxHorizonDays())
	if err != nil {
		badFilter(c, err)
		return
	}

	items, err := h.service.GetItemForecast(
		c.Request.Context(),
		c.Param("sku_id"),
		c.Query("location"),
		filter,
		horizon,
	)
	if errors.Is(err, service.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found", "details": c.Param("sku_id")})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to forecast item", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku_id": c.Param("sku_id"), "items": items})
}

func (h *InventoryHandler) GetSummary(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	overview, err := h.service.GetOverview(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch summary", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, overview)
}

func (h *InventoryHandler) GetDashboard(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	data, err := h.service.GetDashboard(c.Request.Context(), filter, queryInt(c, "days", 30))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch dashboard", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *InventoryHandler) GetLocationBreakdown(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	data, err := h.service.GetLocationBreakdown(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location breakdown", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": data})
}

func (h *InventoryHandler) GetCategoryBreakdown(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	data, err := h.service.GetCategoryBreakdown(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch category breakdown", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": data})
}

func (h *InventoryHandler) GetABCBreakdown(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	data, err := h.service.GetABCBreakdown(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch abc analysis", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"abc_analysis": data})
}

func (h *InventoryHandler) GetHeatmap(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	data, err := h.service.GetHeatmap(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch heatmap", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cells": data})
}

func (h *InventoryHandler) GetReorderList(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	list, err := h.service.GetReorderList(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reorder list", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *InventoryHandler) GetForecasts(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	horizon, err := queryHorizon(c, h.service.MaxHorizonDays())
	if err != nil {
		badFilter(c, err)
		return
	}

	data, err := h.service.GetForecasts(c.Request.Context(), filter, horizon)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecasts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *InventoryHandler) GetAlerts(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}
	publish, _ := strconv.ParseBool(c.DefaultQuery("publish", "false"))

	data, err := h.service.GetAlerts(c.Request.Context(), filter, publish)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alerts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *InventoryHandler) GetAnomalies(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	data, err := h.service.GetAnomalies(c.Request.Context(), filter, queryInt(c, "days", 30), queryInt(c, "limit", 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch anomalies", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"anomalies": data})
}

func (h *InventoryHandler) GetFilterOptions(c *gin.Context) {
	opts, err := h.service.GetFilterOptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch filter options", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, opts)
}

func (h *InventoryHandler) GetAvailableDates(c *gin.Context) {
	dates, err := h.service.GetAvailableDates(c.Request.Context(), queryInt(c, "limit", 30))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch available dates", "details": err.Error()})
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format("2006-01-02"))
	}
	c.JSON(http.StatusOK, gin.H{"dates": formatted})
}

func (h *InventoryHandler) GetTrends(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badFilter(c, err)
		return
	}

	data, err := h.service.GetTrends(c.Request.Context(), filter, queryInt(c, "days", 30))
	if errors.Is(err, service.ErrInvalidTrendWindow) {
		badFilter(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch trends", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, data)
}

// InvalidateCache drops cached overviews, typically called after a pipeline load.
func (h *InventoryHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate cache", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
