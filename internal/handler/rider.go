package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locomotion/internal/service"
)

// RiderHandler handles HTTP requests for riders.
type RiderHandler struct {
	riderService *service.RiderService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riderService *service.RiderService) *RiderHandler {
	return &RiderHandler{riderService: riderService}
}

// RegisterRiderRequest is the HTTP request body for registering a rider.
type RegisterRiderRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// RiderResponse is the HTTP representation of a rider.
type RiderResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Register handles POST /v1/riders
func (h *RiderHandler) Register(c *gin.Context) {
	var req RegisterRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rider, err := h.riderService.Register(c.Request.Context(), service.RegisterRiderRequest{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, RiderResponse{
		ID:    rider.ID,
		Name:  rider.Name,
		Phone: rider.Phone,
	})
}

// GetRider handles GET /v1/riders/:id
func (h *RiderHandler) GetRider(c *gin.Context) {
	rider, err := h.riderService.GetRider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RiderResponse{
		ID:    rider.ID,
		Name:  rider.Name,
		Phone: rider.Phone,
	})
}
