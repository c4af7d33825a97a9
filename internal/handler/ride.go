package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
	"locomotion/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
	driverRepo  repository.DriverRepository
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, driverRepo repository.DriverRepository) *RideHandler {
	return &RideHandler{
		rideService: rideService,
		driverRepo:  driverRepo,
	}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	RiderID  string `json:"rider_id"`
	DriverID string `json:"driver_id"`

	SourceLocation      string  `json:"source_location"`
	SourceLat           float64 `json:"source_lat"`
	SourceLng           float64 `json:"source_lng"`
	DestinationLocation string  `json:"destination_location"`
	DestinationLat      float64 `json:"destination_lat"`
	DestinationLng      float64 `json:"destination_lng"`

	VehicleDetails string `json:"vehicle_details,omitempty"`

	DistanceKm    float64 `json:"distance_km"`
	EstimatedFare float64 `json:"estimated_fare"`
	ServiceCharge float64 `json:"service_charge"`

	// Phone is required when the rider has no number on file yet.
	Phone string `json:"phone,omitempty"`
}

// ActionRequest is the HTTP request body for a driver action on a ride.
type ActionRequest struct {
	DriverID string `json:"driver_id"`
	Action   string `json:"action"`
	OTP      string `json:"otp,omitempty"`
}

// RateRequest is the HTTP request body for rating a completed ride.
type RateRequest struct {
	RiderID  string `json:"rider_id"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

// RideResponse is the HTTP representation of a ride request. OTP and
// driver phone are filled only for the rider's own view.
type RideResponse struct {
	ID       string `json:"id"`
	RiderID  string `json:"rider_id"`
	DriverID string `json:"driver_id"`

	SourceLocation      string  `json:"source_location,omitempty"`
	SourceLat           float64 `json:"source_lat"`
	SourceLng           float64 `json:"source_lng"`
	DestinationLocation string  `json:"destination_location,omitempty"`
	DestinationLat      float64 `json:"destination_lat"`
	DestinationLng      float64 `json:"destination_lng"`

	VehicleDetails string `json:"vehicle_details,omitempty"`

	DistanceKm    float64 `json:"distance_km"`
	EstimatedFare float64 `json:"estimated_fare"`
	ServiceCharge float64 `json:"service_charge"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	IsPaid        bool   `json:"is_paid"`

	RideOTP     string `json:"ride_otp,omitempty"`
	DriverPhone string `json:"driver_phone,omitempty"`

	Rating   int    `json:"rating,omitempty"`
	Feedback string `json:"feedback,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// driverContactVisible reports whether the rider may see the driver's
// phone number: only while a trip is actually on.
func driverContactVisible(status domain.RideStatus) bool {
	return status != domain.RideStatusPending && !status.IsTerminal()
}

// toRideResponse builds the redacted ride view shared by every caller.
func toRideResponse(ride *domain.RideRequest) RideResponse {
	return RideResponse{
		ID:                  ride.ID,
		RiderID:             ride.RiderID,
		DriverID:            ride.DriverID,
		SourceLocation:      ride.SourceLocation,
		SourceLat:           ride.SourceLat,
		SourceLng:           ride.SourceLng,
		DestinationLocation: ride.DestinationLocation,
		DestinationLat:      ride.DestinationLat,
		DestinationLng:      ride.DestinationLng,
		VehicleDetails:      ride.VehicleDetails,
		DistanceKm:          ride.DistanceKm,
		EstimatedFare:       ride.EstimatedFare,
		ServiceCharge:       ride.ServiceCharge,
		Status:              string(ride.Status),
		PaymentStatus:       string(ride.PaymentStatus),
		IsPaid:              ride.IsPaid,
		Rating:              ride.Rating,
		Feedback:            ride.Feedback,
		CreatedAt:           ride.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:           ride.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// toRiderRideResponse adds the fields only the booking rider may see,
// starting with the trip-start OTP.
func toRiderRideResponse(ride *domain.RideRequest) RideResponse {
	resp := toRideResponse(ride)
	resp.RideOTP = ride.RideOTP
	return resp
}

// toRiderRideDetail is the single-ride rider view: it additionally
// resolves the driver's phone while the ride is on. List views stick to
// toRiderRideResponse so they never fan out into per-ride driver reads.
func (h *RideHandler) toRiderRideDetail(c *gin.Context, ride *domain.RideRequest) RideResponse {
	resp := toRiderRideResponse(ride)

	if driverContactVisible(ride.Status) {
		if driver, err := h.driverRepo.GetByID(c.Request.Context(), ride.DriverID); err == nil {
			resp.DriverPhone = driver.Phone
		}
	}

	return resp
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		RiderID:             req.RiderID,
		DriverID:            req.DriverID,
		SourceLocation:      req.SourceLocation,
		SourceLat:           req.SourceLat,
		SourceLng:           req.SourceLng,
		DestinationLocation: req.DestinationLocation,
		DestinationLat:      req.DestinationLat,
		DestinationLng:      req.DestinationLng,
		VehicleDetails:      req.VehicleDetails,
		DistanceKm:          req.DistanceKm,
		EstimatedFare:       req.EstimatedFare,
		ServiceCharge:       req.ServiceCharge,
		RiderPhone:          req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, h.toRiderRideDetail(c, ride))
}

// GetRide handles GET /v1/rides/:id
// The rider_id query parameter unlocks the rider's own view.
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if riderID := c.Query("rider_id"); riderID != "" && riderID == ride.RiderID {
		respondJSON(c, http.StatusOK, h.toRiderRideDetail(c, ride))
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// PerformAction handles POST /v1/rides/:id/action
func (h *RideHandler) PerformAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.PerformAction(c.Request.Context(), service.ActionRequest{
		RideID:   c.Param("id"),
		DriverID: req.DriverID,
		Action:   domain.RideAction(req.Action),
		OTP:      req.OTP,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// RateRide handles POST /v1/rides/:id/rating
func (h *RideHandler) RateRide(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.RateRide(c.Request.Context(), service.RateRequest{
		RideID:   c.Param("id"),
		RiderID:  req.RiderID,
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.toRiderRideDetail(c, ride))
}

// ListRiderRides handles GET /v1/riders/:id/rides
func (h *RideHandler) ListRiderRides(c *gin.Context) {
	rides, err := h.rideService.ListByRider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]RideResponse, len(rides))
	for i, ride := range rides {
		resp[i] = toRiderRideResponse(ride)
	}
	respondJSON(c, http.StatusOK, resp)
}

// ListDriverRides handles GET /v1/drivers/:id/rides
func (h *RideHandler) ListDriverRides(c *gin.Context) {
	rides, err := h.rideService.ListByDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]RideResponse, len(rides))
	for i, ride := range rides {
		resp[i] = toRideResponse(ride)
	}
	respondJSON(c, http.StatusOK, resp)
}
