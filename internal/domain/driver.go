package domain

import "time"

// Driver represents a driver profile in the system.
// A profile is provisioned when an application is approved, together
// with the driver's wallet account.
type Driver struct {
	ID              string
	UserID          string
	Name            string
	Phone           string
	ExperienceYears int
	VehicleDetails  string

	// IsActive gates all ride actions and listing visibility; set by
	// the onboarding collaborator, not by this core.
	IsActive bool

	// IsAvailable is the driver's own availability toggle.
	IsAvailable bool

	// AverageRating is the mean of all rated, completed rides, rounded
	// to 1 decimal. TotalRatings is the number of contributing rides.
	AverageRating float64
	TotalRatings  int

	CreatedAt time.Time
}
