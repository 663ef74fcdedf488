package handler

import (
	"net/http"

	"ticket-reservation/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("event/:eventName", h.GetEvent)
		router.GET("event/:eventName/availability", h.GetAvailability)
	}
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	res := h.service.GetEvent(c, c.Param("eventName"))
	writeResult(c, res, http.StatusOK)
}

func (h *EventHandler) GetAvailability(c *gin.Context) {
	res := h.service.GetAvailability(c, c.Param("eventName"))
	writeResult(c, res, http.StatusOK)
}
