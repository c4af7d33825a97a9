package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locomotion/internal/service"
)

// JobHandler exposes the batch jobs for operator-triggered runs. The
// scheduler drives the same services on a cadence; a manual run through
// these endpoints is equivalent and just as safe to repeat.
type JobHandler struct {
	settlementService *service.SettlementService
	reaperService     *service.ReaperService
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(settlementService *service.SettlementService, reaperService *service.ReaperService) *JobHandler {
	return &JobHandler{
		settlementService: settlementService,
		reaperService:     reaperService,
	}
}

// SettlementResponse reports what one settlement run processed.
type SettlementResponse struct {
	DriversSettled int     `json:"drivers_settled"`
	RidesSettled   int     `json:"rides_settled"`
	TotalAmount    float64 `json:"total_amount"`
}

// ReaperResponse reports what one reaper run cancelled.
type ReaperResponse struct {
	RidesCancelled int64 `json:"rides_cancelled"`
}

// RunSettlement handles POST /v1/jobs/settlement
func (h *JobHandler) RunSettlement(c *gin.Context) {
	result, err := h.settlementService.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, SettlementResponse{
		DriversSettled: result.DriversSettled,
		RidesSettled:   result.RidesSettled,
		TotalAmount:    result.TotalAmount,
	})
}

// RunReaper handles POST /v1/jobs/reaper
func (h *JobHandler) RunReaper(c *gin.Context) {
	cancelled, err := h.reaperService.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ReaperResponse{RidesCancelled: cancelled})
}
