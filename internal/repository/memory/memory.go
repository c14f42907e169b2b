// Package memory holds in-process repository implementations backed by maps.
// They serve the STORAGE_BACKEND=memory mode and the service test suites.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"delivery-service/internal/model"
)

// StatusRepository keeps per-parcel event slices in insertion order.
type StatusRepository struct {
	mu     sync.RWMutex
	events map[string][]model.StatusEvent
}

func NewStatusRepository() *StatusRepository {
	return &StatusRepository{events: make(map[string][]model.StatusEvent)}
}

func (r *StatusRepository) AppendEvent(ctx context.Context, event *model.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	r.events[event.ParcelID] = append(r.events[event.ParcelID], *event)
	return nil
}

func (r *StatusRepository) GetHistory(ctx context.Context, parcelID string) ([]model.StatusEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.events[parcelID]
	if len(stored) == 0 {
		return nil, nil
	}
	events := make([]model.StatusEvent, len(stored))
	copy(events, stored)
	return events, nil
}

// OTPRepository keeps at most one record per phone number.
type OTPRepository struct {
	mu      sync.RWMutex
	byPhone map[string]model.OTPRecord
}

func NewOTPRepository() *OTPRepository {
	return &OTPRepository{byPhone: make(map[string]model.OTPRecord)}
}

func (r *OTPRepository) GetByPhone(ctx context.Context, phoneNumber string) (*model.OTPRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.byPhone[phoneNumber]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (r *OTPRepository) Insert(ctx context.Context, record *model.OTPRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byPhone[record.PhoneNumber] = *record
	return nil
}

// Refresh overwrites everything except the original otpId.
func (r *OTPRepository) Refresh(ctx context.Context, record *model.OTPRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byPhone[record.PhoneNumber]
	if ok {
		record.OTPID = existing.OTPID
	}
	r.byPhone[record.PhoneNumber] = *record
	return nil
}

func (r *OTPRepository) UpdateStatus(ctx context.Context, phoneNumber, otpID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.byPhone[phoneNumber]
	if !ok {
		return fmt.Errorf("otp record not found for update")
	}
	record.Status = status
	r.byPhone[phoneNumber] = record
	return nil
}

// ParcelRepository stores parcels keyed by id, preserving creation order
// for List.
type ParcelRepository struct {
	mu      sync.RWMutex
	parcels map[string]model.Parcel
	order   []string
}

func NewParcelRepository() *ParcelRepository {
	return &ParcelRepository{parcels: make(map[string]model.Parcel)}
}

func (r *ParcelRepository) Create(ctx context.Context, parcel *model.Parcel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.parcels[parcel.ParcelID]; !exists {
		r.order = append(r.order, parcel.ParcelID)
	}
	r.parcels[parcel.ParcelID] = *parcel
	return nil
}

func (r *ParcelRepository) Get(ctx context.Context, parcelID string) (*model.Parcel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parcel, ok := r.parcels[parcelID]
	if !ok {
		return nil, nil
	}
	copied := parcel
	return &copied, nil
}

func (r *ParcelRepository) AssignCourier(ctx context.Context, parcelID, courierID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	parcel, ok := r.parcels[parcelID]
	if !ok {
		return fmt.Errorf("parcel not found for assignment")
	}
	parcel.CourierID = courierID
	r.parcels[parcelID] = parcel
	return nil
}

func (r *ParcelRepository) List(ctx context.Context) ([]model.Parcel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parcels := make([]model.Parcel, 0, len(r.order))
	for _, id := range r.order {
		parcels = append(parcels, r.parcels[id])
	}
	return parcels, nil
}

// BoxRepository stores delivery boxes keyed by id.
type BoxRepository struct {
	mu    sync.RWMutex
	boxes map[string]model.DeliveryBox
}

func NewBoxRepository() *BoxRepository {
	return &BoxRepository{boxes: make(map[string]model.DeliveryBox)}
}

func (r *BoxRepository) Create(ctx context.Context, box *model.DeliveryBox) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.boxes[box.BoxID] = *box
	return nil
}

func (r *BoxRepository) Get(ctx context.Context, boxID string) (*model.DeliveryBox, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	box, ok := r.boxes[boxID]
	if !ok {
		return nil, nil
	}
	copied := box
	return &copied, nil
}

// UserRepository stores users keyed by email, preserving insertion order
// for List.
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]model.User
	order   []string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byEmail: make(map[string]model.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; !exists {
		r.order = append(r.order, user.Email)
	}
	r.byEmail[user.Email] = *user
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	copied := user
	return &copied, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.order))
	for _, email := range r.order {
		users = append(users, r.byEmail[email])
	}
	return users, nil
}

// OTPCache is a TTL-aware map cache mirroring the Redis code cache.
type OTPCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	code      string
	expiresAt time.Time
}

func NewOTPCache() *OTPCache {
	return &OTPCache{entries: make(map[string]cacheEntry)}
}

func (c *OTPCache) SetCode(ctx context.Context, phoneNumber, code string, ttlSeconds int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[phoneNumber] = cacheEntry{
		code:      code,
		expiresAt: time.Now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	return nil
}

func (c *OTPCache) GetCode(ctx context.Context, phoneNumber string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[phoneNumber]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", nil
	}
	return entry.code, nil
}

func (c *OTPCache) DeleteCode(ctx context.Context, phoneNumber string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, phoneNumber)
	return nil
}

// AuditRecorder appends entries to a bounded in-memory ring.
type AuditRecorder struct {
	mu      sync.RWMutex
	entries []model.OTPAuditEntry
	maxSize int
}

func NewAuditRecorder() *AuditRecorder {
	return &AuditRecorder{maxSize: 1000}
}

func (a *AuditRecorder) Record(ctx context.Context, entry *model.OTPAuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = append(a.entries, *entry)
	if len(a.entries) > a.maxSize {
		a.entries = a.entries[len(a.entries)-a.maxSize:]
	}
	return nil
}

// Recent returns the newest entries first.
func (a *AuditRecorder) Recent(ctx context.Context, limit int) ([]model.OTPAuditEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 || limit > len(a.entries) {
		limit = len(a.entries)
	}
	out := make([]model.OTPAuditEntry, 0, limit)
	for i := len(a.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.entries[i])
	}
	return out, nil
}
