package handler

import (
	"net/http"

	"ticket-reservation/internal/model"
	"ticket-reservation/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ReservationHandler struct {
	reservationService service.ReservationService
	removalService     service.RemovalService
}

func NewReservationHandler(reservationService service.ReservationService, removalService service.RemovalService) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		removalService:     removalService,
	}
}

func (h *ReservationHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1/event/:eventName")
	{
		router.POST("reservations", h.CreateReservation)
		router.GET("reservations/:id", h.GetReservation)
		router.PUT("reservations/:id", h.UpdateReservation)
		router.PUT("reservations/:id/confirm", h.ConfirmReservation)
		router.PUT("reservations/:id/in-payment", h.TransitionToInPayment)
		router.PUT("reservations/:id/cancel", h.CancelReservation)
		router.PUT("reservations/:id/notify", h.NotifyReservation)
		router.POST("reservations/:id/remove-tickets", h.RemoveTickets)
		router.DELETE("reservations/:id", h.RemoveReservation)
		router.POST("reservations/:id/refund", h.Refund)
		router.GET("reservations/:id/payment-info", h.GetPaymentInfo)
	}
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var mod model.ReservationModification
	if err := BindJson(c, &mod); err != nil {
		return
	}

	res := h.reservationService.Create(c, c.Param("eventName"), mod)
	writeResult(c, res, http.StatusCreated)
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	res := h.reservationService.Load(c, c.Param("eventName"), c.Param("id"))
	writeResult(c, res, http.StatusOK)
}

func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	var mod model.ReservationModification
	if err := BindJson(c, &mod); err != nil {
		return
	}

	res := h.reservationService.Update(c, c.Param("eventName"), c.Param("id"), mod)
	writeResult(c, res, http.StatusOK)
}

func (h *ReservationHandler) ConfirmReservation(c *gin.Context) {
	res := h.reservationService.Confirm(c, c.Param("eventName"), c.Param("id"))
	writeResult(c, res, http.StatusOK)
}

type inPaymentRequest struct {
	Customer      model.CustomerData  `json:"customer_data"`
	PaymentMethod model.PaymentMethod `json:"payment_method" binding:"required"`
}

func (h *ReservationHandler) TransitionToInPayment(c *gin.Context) {
	var req inPaymentRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	res := h.reservationService.TransitionToInPayment(c, c.Param("id"), req.Customer, req.PaymentMethod)
	writeResult(c, res, http.StatusOK)
}

func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	res := h.reservationService.Cancel(c, c.Param("eventName"), c.Param("id"))
	writeResult(c, res, http.StatusOK)
}

func (h *ReservationHandler) NotifyReservation(c *gin.Context) {
	var req model.NotificationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	res := h.reservationService.Notify(c, c.Param("eventName"), c.Param("id"), req)
	writeResult(c, res, http.StatusOK)
}

type removeTicketsRequest struct {
	TicketIDs []int `json:"ticket_ids" binding:"required"`
	RefundIDs []int `json:"refund_ids"`
}

func (h *ReservationHandler) RemoveTickets(c *gin.Context) {
	var req removeTicketsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	res := h.removalService.RemoveTickets(c, c.Param("eventName"), c.Param("id"), req.TicketIDs, req.RefundIDs)
	writeResult(c, res, http.StatusOK)
}

type reservationUri struct {
	EventName string `uri:"eventName" binding:"required"`
	ID        string `uri:"id" binding:"required"`
}

type removeReservationQuery struct {
	Refund bool `form:"refund"`
}

func (h *ReservationHandler) RemoveReservation(c *gin.Context) {
	var uri reservationUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var query removeReservationQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	res := h.removalService.RemoveReservation(c, uri.EventName, uri.ID, query.Refund)
	writeResult(c, res, http.StatusOK)
}

type refundQuery struct {
	Amount string `form:"amount"`
}

func (h *ReservationHandler) Refund(c *gin.Context) {
	var uri reservationUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var query refundQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	var amount *decimal.Decimal
	if query.Amount != "" {
		parsed, err := decimal.NewFromString(query.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid refund amount",
			})
			return
		}
		amount = &parsed
	}

	res := h.removalService.Refund(c, uri.EventName, uri.ID, amount)
	writeResult(c, res, http.StatusOK)
}

func (h *ReservationHandler) GetPaymentInfo(c *gin.Context) {
	res := h.removalService.GetPaymentInfo(c, c.Param("id"))
	writeResult(c, res, http.StatusOK)
}
