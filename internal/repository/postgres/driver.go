package postgres

import (
	"context"
	"database/sql"
	"errors"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `
	id, user_id, name, phone, experience_years, vehicle_details,
	is_active, is_available, average_rating, total_ratings, created_at
`

// Create persists a new driver profile.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (` + driverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.UserID,
		driver.Name,
		driver.Phone,
		driver.ExperienceYears,
		driver.VehicleDetails,
		driver.IsActive,
		driver.IsAvailable,
		driver.AverageRating,
		driver.TotalRatings,
		driver.CreatedAt,
	)

	return err
}

func scanDriver(scan func(dest ...any) error) (*domain.Driver, error) {
	var driver domain.Driver
	err := scan(
		&driver.ID,
		&driver.UserID,
		&driver.Name,
		&driver.Phone,
		&driver.ExperienceYears,
		&driver.VehicleDetails,
		&driver.IsActive,
		&driver.IsAvailable,
		&driver.AverageRating,
		&driver.TotalRatings,
		&driver.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

	row := r.q.QueryRowContext(ctx, query, id)
	driver, err := scanDriver(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return driver, nil
}

// ListVisible retrieves active drivers whose wallet balance is above
// the floor. Balance is a visibility gate only.
func (r *DriverRepository) ListVisible(ctx context.Context, balanceFloor float64) ([]*domain.Driver, error) {
	query := `
		SELECT d.id, d.user_id, d.name, d.phone, d.experience_years, d.vehicle_details,
			d.is_active, d.is_available, d.average_rating, d.total_ratings, d.created_at
		FROM drivers d
		JOIN wallet_accounts w ON w.driver_id = d.id
		WHERE d.is_active = TRUE AND w.balance > $1
		ORDER BY d.average_rating DESC, d.created_at
	`

	rows, err := r.q.QueryContext(ctx, query, balanceFloor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows.Scan)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// SetAvailability updates the driver's availability toggle.
func (r *DriverRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	query := `UPDATE drivers SET is_available = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, available, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateRatingStats stores the recomputed rating aggregate.
func (r *DriverRepository) UpdateRatingStats(ctx context.Context, id string, avg float64, count int) error {
	query := `UPDATE drivers SET average_rating = $1, total_ratings = $2 WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, avg, count, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
