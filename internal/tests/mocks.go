package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"locomotion/internal/domain"
	"locomotion/internal/redis"
	"locomotion/internal/repository"
)

// errTestInjected is the error injected through the mocks' error fields.
var errTestInjected = errors.New("injected failure")

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Status
// writes follow the same compare-and-set contract as the SQL version,
// serialized by the mutex, so concurrency tests observe real winner
// semantics.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.RideRequest

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32
	MarkSettledCallCount  int32

	// Error injection
	CreateError       error
	UpdateStatusError error
	SetRatingError    error
	MarkSettledError  error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.RideRequest),
	}
}

// AddRide seeds a ride into the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.RideRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ride
	m.rides[ride.ID] = &cp
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.RideRequest) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ride
	m.rides[ride.ID] = &cp
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ride
	return &cp, nil
}

func (m *MockRideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.RideRequest
	for _, r := range m.rides {
		if r.RiderID == riderID {
			cp := *r
			result = append(result, &cp)
		}
	}
	sortRidesNewestFirst(result)
	return result, nil
}

func (m *MockRideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.RideRequest
	for _, r := range m.rides {
		if r.DriverID == driverID {
			cp := *r
			result = append(result, &cp)
		}
	}
	sortRidesNewestFirst(result)
	return result, nil
}

func (m *MockRideRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RideStatus) (bool, error) {
	return m.UpdateStatusIn(ctx, id, []domain.RideStatus{from}, to)
}

func (m *MockRideRepository) UpdateStatusIn(ctx context.Context, id string, from []domain.RideStatus, to domain.RideStatus) (bool, error) {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return false, m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, f := range from {
		if ride.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	ride.Status = to
	ride.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockRideRepository) SetRating(ctx context.Context, id string, rating int, feedback string) (bool, error) {
	if m.SetRatingError != nil {
		return false, m.SetRatingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return false, nil
	}
	if ride.Status != domain.RideStatusCompleted || ride.Rating != 0 {
		return false, nil
	}
	ride.Rating = rating
	ride.Feedback = feedback
	return true, nil
}

func (m *MockRideRepository) RatingStats(ctx context.Context, driverID string) (float64, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum, count int
	for _, r := range m.rides {
		if r.DriverID == driverID && r.Status == domain.RideStatusCompleted && r.Rating != 0 {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (m *MockRideRepository) SetGatewayOrder(ctx context.Context, id, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return false, nil
	}
	if ride.GatewayOrderID != "" {
		return false, nil
	}
	ride.GatewayOrderID = orderID
	ride.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockRideRepository) SetPaymentVerified(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	ride.PaymentStatus = domain.PaymentStatusCompleted
	ride.IsPaid = true
	return nil
}

func (m *MockRideRepository) DriversWithSettleable(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var drivers []string
	for _, r := range m.rides {
		if r.Settleable() && !seen[r.DriverID] {
			seen[r.DriverID] = true
			drivers = append(drivers, r.DriverID)
		}
	}
	sort.Strings(drivers)
	return drivers, nil
}

func (m *MockRideRepository) ListSettleable(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.RideRequest
	for _, r := range m.rides {
		if r.DriverID == driverID && r.Settleable() {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockRideRepository) MarkSettled(ctx context.Context, ids []string) (int64, error) {
	atomic.AddInt32(&m.MarkSettledCallCount, 1)
	if m.MarkSettledError != nil {
		return 0, m.MarkSettledError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		ride, ok := m.rides[id]
		if !ok || ride.PayoutStatus != domain.PayoutStatusPending {
			continue
		}
		ride.PayoutStatus = domain.PayoutStatusSettled
		n++
	}
	return n, nil
}

func (m *MockRideRepository) CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rides {
		if r.Status == domain.RideStatusPending && !r.CreatedAt.After(cutoff) {
			r.Status = domain.RideStatusCancelled
			r.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.RideRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

func sortRidesNewestFirst(rides []*domain.RideRequest) {
	sort.Slice(rides, func(i, j int) bool {
		return rides[i].CreatedAt.After(rides[j].CreatedAt)
	})
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
// Balances feeds the visibility filter; drivers with no entry are
// treated as balance zero.
type MockDriverRepository struct {
	mu       sync.RWMutex
	drivers  map[string]*domain.Driver
	Balances map[string]float64

	CreateCallCount            int32
	GetByIDCallCount           int32
	UpdateRatingStatsCallCount int32

	CreateError            error
	UpdateRatingStatsError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers:  make(map[string]*domain.Driver),
		Balances: make(map[string]float64),
	}
}

// AddDriver seeds a driver into the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *driver
	m.drivers[driver.ID] = &cp
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *driver
	m.drivers[driver.ID] = &cp
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *driver
	return &cp, nil
}

func (m *MockDriverRepository) ListVisible(ctx context.Context, balanceFloor float64) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Driver
	for _, d := range m.drivers {
		if !d.IsActive {
			continue
		}
		if m.Balances[d.ID] <= balanceFloor {
			continue
		}
		cp := *d
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AverageRating > result[j].AverageRating
	})
	return result, nil
}

func (m *MockDriverRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.IsAvailable = available
	return nil
}

func (m *MockDriverRepository) UpdateRatingStats(ctx context.Context, id string, avg float64, count int) error {
	atomic.AddInt32(&m.UpdateRatingStatsCallCount, 1)
	if m.UpdateRatingStatsError != nil {
		return m.UpdateRatingStatsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.AverageRating = avg
	driver.TotalRatings = count
	return nil
}

// GetDriver returns the stored driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK WALLET REPOSITORY
// ──────────────────────────────────────────────

// MockWalletRepository is a mock implementation of WalletRepository.
// ApplyEntry keeps the SQL contract: one application per (kind,
// reference) pair, replays return false.
type MockWalletRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.WalletAccount
	entries  []*domain.WalletEntry
	applied  map[string]bool

	ApplyEntryCallCount int32

	ApplyEntryError error
}

// NewMockWalletRepository creates a new mock wallet repository.
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		accounts: make(map[string]*domain.WalletAccount),
		applied:  make(map[string]bool),
	}
}

// AddAccount seeds a wallet account into the mock repository.
func (m *MockWalletRepository) AddAccount(account *domain.WalletAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.DriverID] = &cp
}

func (m *MockWalletRepository) Create(ctx context.Context, account *domain.WalletAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.DriverID] = &cp
	return nil
}

func (m *MockWalletRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.WalletAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (m *MockWalletRepository) ApplyEntry(ctx context.Context, entry *domain.WalletEntry) (bool, error) {
	atomic.AddInt32(&m.ApplyEntryCallCount, 1)
	if m.ApplyEntryError != nil {
		return false, m.ApplyEntryError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s:%s", entry.Kind, entry.Reference)
	if m.applied[key] {
		return false, nil
	}
	account, ok := m.accounts[entry.DriverID]
	if !ok {
		return false, repository.ErrNotFound
	}

	m.applied[key] = true
	cp := *entry
	m.entries = append(m.entries, &cp)
	account.Balance += entry.Amount
	account.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockWalletRepository) ListEntries(ctx context.Context, driverID string) ([]*domain.WalletEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.WalletEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].DriverID == driverID {
			cp := *m.entries[i]
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Balance returns the current balance for test assertions.
func (m *MockWalletRepository) Balance(driverID string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[driverID]
	if !ok {
		return 0
	}
	return account.Balance
}

// EntryCount returns the number of recorded movements for a driver.
func (m *MockWalletRepository) EntryCount(driverID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.entries {
		if e.DriverID == driverID {
			n++
		}
	}
	return n
}

// ──────────────────────────────────────────────
// MOCK RIDER REPOSITORY
// ──────────────────────────────────────────────

// MockRiderRepository is a mock implementation of RiderRepository.
type MockRiderRepository struct {
	mu     sync.RWMutex
	riders map[string]*domain.Rider

	SetPhoneCallCount int32

	SetPhoneError error
}

// NewMockRiderRepository creates a new mock rider repository.
func NewMockRiderRepository() *MockRiderRepository {
	return &MockRiderRepository{
		riders: make(map[string]*domain.Rider),
	}
}

// AddRider seeds a rider into the mock repository.
func (m *MockRiderRepository) AddRider(rider *domain.Rider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rider
	m.riders[rider.ID] = &cp
}

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rider
	m.riders[rider.ID] = &cp
	return nil
}

func (m *MockRiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rider, ok := m.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rider
	return &cp, nil
}

func (m *MockRiderRepository) SetPhone(ctx context.Context, id, phone string) error {
	atomic.AddInt32(&m.SetPhoneCallCount, 1)
	if m.SetPhoneError != nil {
		return m.SetPhoneError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rider, ok := m.riders[id]
	if !ok {
		return repository.ErrNotFound
	}
	rider.Phone = phone
	return nil
}

// GetRider returns the stored rider for test assertions.
func (m *MockRiderRepository) GetRider(id string) *domain.Rider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.riders[id]
}

// ──────────────────────────────────────────────
// MOCK PAYMENT ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentOrderRepository is a mock implementation of
// PaymentOrderRepository. MarkVerified keeps the SQL contract: the
// first call flips the order, replays return false.
type MockPaymentOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.PaymentOrder

	MarkVerifiedCallCount int32

	MarkVerifiedError error
}

// NewMockPaymentOrderRepository creates a new mock payment order repository.
func NewMockPaymentOrderRepository() *MockPaymentOrderRepository {
	return &MockPaymentOrderRepository{
		orders: make(map[string]*domain.PaymentOrder),
	}
}

// AddOrder seeds an order into the mock repository.
func (m *MockPaymentOrderRepository) AddOrder(order *domain.PaymentOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.orders[order.ID] = &cp
}

func (m *MockPaymentOrderRepository) Create(ctx context.Context, order *domain.PaymentOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MockPaymentOrderRepository) GetByID(ctx context.Context, id string) (*domain.PaymentOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *MockPaymentOrderRepository) MarkVerified(ctx context.Context, id, gatewayPaymentID string) (bool, error) {
	atomic.AddInt32(&m.MarkVerifiedCallCount, 1)
	if m.MarkVerifiedError != nil {
		return false, m.MarkVerifiedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	if order.Verified {
		return false, nil
	}
	order.Verified = true
	order.GatewayPaymentID = gatewayPaymentID
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION MANAGER
// ──────────────────────────────────────────────

// MockTxManager is a mock implementation of repository.Atomic. Blocks
// run against the shared mocks under a single mutex, which mirrors the
// serialization the database provides through row locks. Rollback is
// not simulated; error-path tests assert on observable state instead.
type MockTxManager struct {
	mu    sync.Mutex
	repos repository.Repos

	InTxCallCount int32

	// BeginError aborts the block before it runs.
	BeginError error
}

// NewMockTxManager creates a mock transaction manager over the given mocks.
func NewMockTxManager(
	rides *MockRideRepository,
	drivers *MockDriverRepository,
	wallets *MockWalletRepository,
	riders *MockRiderRepository,
	orders *MockPaymentOrderRepository,
) *MockTxManager {
	return &MockTxManager{
		repos: repository.Repos{
			Rides:   rides,
			Drivers: drivers,
			Wallets: wallets,
			Riders:  riders,
			Orders:  orders,
		},
	}
}

func (m *MockTxManager) InTx(ctx context.Context, fn func(r repository.Repos) error) error {
	atomic.AddInt32(&m.InTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.repos)
}

var _ repository.Atomic = (*MockTxManager)(nil)

// ──────────────────────────────────────────────
// MOCK ROUTE ESTIMATOR
// ──────────────────────────────────────────────

// MockRouteEstimator is a mock implementation of service.RouteEstimator.
type MockRouteEstimator struct {
	DistanceKm  float64
	DurationMin float64

	EstimateCallCount int32

	EstimateError error
}

func (m *MockRouteEstimator) Estimate(ctx context.Context, srcLat, srcLng, dstLat, dstLng float64) (float64, float64, error) {
	atomic.AddInt32(&m.EstimateCallCount, 1)
	if m.EstimateError != nil {
		return 0, 0, m.EstimateError
	}
	return m.DistanceKm, m.DurationMin, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockPaymentGateway is a mock implementation of service.PaymentGateway.
type MockPaymentGateway struct {
	mu       sync.Mutex
	orderSeq int

	// Receipts records the receipt of every created order.
	Receipts []string

	CreateOrderError error
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, amount float64, receipt string) (string, error) {
	if m.CreateOrderError != nil {
		return "", m.CreateOrderError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderSeq++
	m.Receipts = append(m.Receipts, receipt)
	return fmt.Sprintf("order_test_%d", m.orderSeq), nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of the job lock.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireJobLock(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[job] {
		return false, nil
	}
	m.locks[job] = true
	return true, nil
}

func (m *MockLockStore) ReleaseJobLock(ctx context.Context, job string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, job)
	return nil
}

var _ redis.LockStoreInterface = (*MockLockStore)(nil)

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory implementation of the listing cache.
type MockCacheStore struct {
	mu      sync.Mutex
	listing []redis.CachedDriver
	set     bool

	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{}
}

func (m *MockCacheStore) GetVisibleDrivers(ctx context.Context) ([]redis.CachedDriver, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, nil
	}
	return append([]redis.CachedDriver(nil), m.listing...), nil
}

func (m *MockCacheStore) SetVisibleDrivers(ctx context.Context, drivers []redis.CachedDriver) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listing = append([]redis.CachedDriver(nil), drivers...)
	m.set = true
	return nil
}

func (m *MockCacheStore) InvalidateVisibleDrivers(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listing = nil
	m.set = false
	return nil
}

var _ redis.CacheStoreInterface = (*MockCacheStore)(nil)
