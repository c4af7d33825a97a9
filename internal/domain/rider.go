package domain

import "time"

// Rider represents an authenticated rider identity as supplied by the
// identity collaborator. The core only persists what ride booking
// needs: a non-empty phone number is required at ride-creation time.
type Rider struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}
