package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locomotion/internal/service"
)

// FareHandler handles HTTP requests for fare quotes.
type FareHandler struct {
	fareService *service.FareService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(fareService *service.FareService) *FareHandler {
	return &FareHandler{fareService: fareService}
}

// QuoteRequest is the HTTP request body for a fare quote.
type QuoteRequest struct {
	PickupLat    float64 `json:"pickup_lat"`
	PickupLng    float64 `json:"pickup_lng"`
	DropoffLat   float64 `json:"dropoff_lat"`
	DropoffLng   float64 `json:"dropoff_lng"`
	VehicleClass string  `json:"vehicle_class,omitempty"`
}

// QuoteResponse is the HTTP response for a fare quote.
type QuoteResponse struct {
	DistanceKm    float64 `json:"distance_km"`
	DurationMin   float64 `json:"duration_min"`
	RideFare      float64 `json:"ride_fare"`
	ServiceCharge float64 `json:"service_charge"`
	EstimatedFare float64 `json:"estimated_fare"`
}

// Quote handles POST /v1/fares/quote
func (h *FareHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	breakdown, err := h.fareService.Quote(c.Request.Context(), service.QuoteRequest{
		PickupLat:    req.PickupLat,
		PickupLng:    req.PickupLng,
		DropoffLat:   req.DropoffLat,
		DropoffLng:   req.DropoffLng,
		VehicleClass: req.VehicleClass,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	rounded := breakdown.Rounded()
	respondJSON(c, http.StatusOK, QuoteResponse{
		DistanceKm:    rounded.DistanceKm,
		DurationMin:   rounded.DurationMin,
		RideFare:      rounded.RideFare,
		ServiceCharge: rounded.ServiceCharge,
		EstimatedFare: rounded.EstimatedFare,
	})
}
