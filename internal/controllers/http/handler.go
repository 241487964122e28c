package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"order-dashboard/internal/domain"
	"order-dashboard/internal/services"
)

const defaultHistoryLimit = 50

type Handler struct {
	service *services.DashboardService
}

func NewHandler(s *services.DashboardService) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)

	orders := r.Group("/orders")
	orders.GET("", h.GetPage)
	orders.GET("/stats", h.GetStats)
	orders.POST("/refresh", h.Refresh)
	orders.PUT("/sort", h.SetSort)
	orders.POST("/:id/status", h.SetStatus)
	orders.POST("/:id/advance", h.Advance)
	orders.GET("/:id/history", h.GetHistory)
	orders.GET("/:id/probe", h.GetProbe)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "pushConnected": h.service.Connected()})
}

func (h *Handler) GetPage(c *gin.Context) {
	page := 0
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return
		}
		page = n
	}

	c.JSON(http.StatusOK, toPageResponse(h.service.Page(page), h.service.Now()))
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Stats())
}

func (h *Handler) Refresh(c *gin.Context) {
	if err := h.service.LoadAll(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(h.service.Page(0), h.service.Now()))
}

func (h *Handler) SetSort(c *gin.Context) {
	var req SetSortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetSort(domain.SortCriterion(req.Sort)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(h.service.Page(0), h.service.Now()))
}

func (h *Handler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	id := orderID(c)
	if err := h.service.AdvanceStatus(c.Request.Context(), id, status); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, AdvanceResponse{ID: id, Status: status})
}

func (h *Handler) Advance(c *gin.Context) {
	id := orderID(c)
	next, err := h.service.Advance(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, AdvanceResponse{ID: id, Status: next})
}

func (h *Handler) GetHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := h.service.History(c.Request.Context(), orderID(c), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) GetProbe(c *gin.Context) {
	id := orderID(c)
	status, ok, err := h.service.Probe(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no status probe recorded"})
		return
	}
	c.JSON(http.StatusOK, ProbeResponse{ID: id, Status: status})
}

func orderID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

func (h *Handler) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrMissingOrderID),
		errors.Is(err, services.ErrUnknownSort),
		errors.Is(err, domain.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrJournalDisabled),
		errors.Is(err, services.ErrProbeDisabled):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSyntheticOrderID),
		errors.Is(err, domain.ErrNoNextStatus):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
