package api

import (
	"net/http"
	"strconv"

	"github.com/ardiwinata/futsal-booking/internal/service/tracking"
	"github.com/gin-gonic/gin"
)

type TrackingHandler struct {
	service tracking.TrackingUseCase
}

func NewTrackingHandler(service tracking.TrackingUseCase) *TrackingHandler {
	return &TrackingHandler{service: service}
}

func (h *TrackingHandler) Register(router *gin.RouterGroup) {
	router.GET("/bookings/:id/history", h.bookingHistory)
	router.GET("/bookings/:id/timeline", h.timeline)
	router.GET("/payments/:id/logs", h.paymentLogs)
}

func (h *TrackingHandler) bookingHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	records, err := h.service.BookingHistory(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *TrackingHandler) timeline(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	events, err := h.service.Timeline(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *TrackingHandler) paymentLogs(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	logs, err := h.service.PaymentLogs(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}
