package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/service/payment"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service payment.PaymentUseCase
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type paymentResponse struct {
	ID              int64  `json:"id"`
	BookingID       int64  `json:"booking_id"`
	Method          string `json:"method"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
	ReferenceNumber string `json:"reference_number"`
	ProcessedBy     string `json:"processed_by"`
	CreatedAt       string `json:"created_at"`
}

func NewPaymentHandler(service payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.record)
	router.GET("/:id", h.get)
	router.PUT("/:id/confirm", h.confirm)
	router.PUT("/:id/fail", h.fail)
	router.PUT("/:id/refund", h.refund)
}

func (h *PaymentHandler) record(c *gin.Context) {
	var req payment.RecordPaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.RecordPayment(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPaymentResponse(p))
}

func (h *PaymentHandler) confirm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	var req payment.ConfirmPaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.ConfirmPayment(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(p))
}

func (h *PaymentHandler) fail(c *gin.Context) {
	h.oneWay(c, h.service.FailPayment)
}

func (h *PaymentHandler) refund(c *gin.Context) {
	h.oneWay(c, h.service.RefundPayment)
}

func (h *PaymentHandler) oneWay(c *gin.Context, op func(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Payment, error)) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := op(c.Request.Context(), actorFrom(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(p))
}

func (h *PaymentHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	p, err := h.service.GetPayment(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(p))
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:              p.ID,
		BookingID:       p.BookingID,
		Method:          string(p.Method),
		Amount:          p.Amount,
		Status:          string(p.Status),
		ReferenceNumber: p.ReferenceNumber,
		ProcessedBy:     p.ProcessedBy,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}
