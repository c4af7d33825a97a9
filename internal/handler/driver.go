package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locomotion/internal/domain"
	"locomotion/internal/service"
)

// DriverHandler handles HTTP requests for drivers and their wallets.
type DriverHandler struct {
	driverService *service.DriverService
	walletService *service.WalletService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, walletService *service.WalletService) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		walletService: walletService,
	}
}

// ProvisionDriverRequest is the HTTP request body for onboarding a driver.
type ProvisionDriverRequest struct {
	UserID          string `json:"user_id,omitempty"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	ExperienceYears int    `json:"experience_years"`
	VehicleDetails  string `json:"vehicle_details"`
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ExperienceYears int     `json:"experience_years"`
	VehicleDetails  string  `json:"vehicle_details"`
	IsAvailable     bool    `json:"is_available"`
	AverageRating   float64 `json:"average_rating"`
	TotalRatings    int     `json:"total_ratings"`
}

// AvailabilityRequest is the HTTP request body for flipping availability.
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// WalletResponse is the HTTP representation of a driver's wallet.
type WalletResponse struct {
	DriverID string                `json:"driver_id"`
	Balance  float64               `json:"balance"`
	Entries  []WalletEntryResponse `json:"entries,omitempty"`
}

// WalletEntryResponse is one wallet movement.
type WalletEntryResponse struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:              d.ID,
		Name:            d.Name,
		ExperienceYears: d.ExperienceYears,
		VehicleDetails:  d.VehicleDetails,
		IsAvailable:     d.IsAvailable,
		AverageRating:   d.AverageRating,
		TotalRatings:    d.TotalRatings,
	}
}

// Provision handles POST /v1/drivers
func (h *DriverHandler) Provision(c *gin.Context) {
	var req ProvisionDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.Provision(c.Request.Context(), service.ProvisionRequest{
		UserID:          req.UserID,
		Name:            req.Name,
		Phone:           req.Phone,
		ExperienceYears: req.ExperienceYears,
		VehicleDetails:  req.VehicleDetails,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// ListVisible handles GET /v1/drivers
func (h *DriverHandler) ListVisible(c *gin.Context) {
	drivers, err := h.driverService.ListVisible(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]DriverResponse, len(drivers))
	for i, d := range drivers {
		resp[i] = toDriverResponse(d)
	}
	respondJSON(c, http.StatusOK, resp)
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// SetAvailability handles PUT /v1/drivers/:id/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.driverService.SetAvailability(c.Request.Context(), c.Param("id"), req.Available); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"driver_id": c.Param("id"), "available": req.Available})
}

// GetWallet handles GET /v1/drivers/:id/wallet
func (h *DriverHandler) GetWallet(c *gin.Context) {
	driverID := c.Param("id")

	account, err := h.walletService.Balance(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.walletService.Entries(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := WalletResponse{
		DriverID: account.DriverID,
		Balance:  account.Balance,
		Entries:  make([]WalletEntryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Entries[i] = WalletEntryResponse{
			ID:        e.ID,
			Kind:      string(e.Kind),
			Reference: e.Reference,
			Amount:    e.Amount,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	respondJSON(c, http.StatusOK, resp)
}
