package model

import "context"

// -------------------- DELIVERY STATUS --------------------

// DeliveryStage labels a status event. Stages are free labels on an event
// log; any stage may follow any stage.
type DeliveryStage string

const (
	StageDispatched     DeliveryStage = "DISPATCHED"
	StageInTransit      DeliveryStage = "IN_TRANSIT"
	StageOutForDelivery DeliveryStage = "OUT_FOR_DELIVERY"
	StageDelivered      DeliveryStage = "DELIVERED"
	StageFailedDelivery DeliveryStage = "FAILED_DELIVERY"
	StageReturned       DeliveryStage = "RETURNED"
)

// Valid reports whether the stage is one of the closed enumeration.
func (s DeliveryStage) Valid() bool {
	switch s {
	case StageDispatched, StageInTransit, StageOutForDelivery,
		StageDelivered, StageFailedDelivery, StageReturned:
		return true
	}
	return false
}

// StatusEvent is one entry in a parcel's append-only status history.
// Timestamps are epoch milliseconds.
type StatusEvent struct {
	EventID           string        `json:"eventId"`
	ParcelID          string        `json:"parcelId"`
	Stage             DeliveryStage `json:"stage"`
	Location          string        `json:"location"`
	ServiceProviderID string        `json:"serviceProviderId,omitempty"`
	Timestamp         int64         `json:"timestamp"`
	AdditionalDetails string        `json:"additionalDetails,omitempty"`
}

// StatusHistory is the full ordered event sequence for a parcel. Events is
// never reordered; CurrentStage is the stage of the last appended event.
type StatusHistory struct {
	ParcelID     string        `json:"parcelId"`
	CurrentStage DeliveryStage `json:"currentStage"`
	Events       []StatusEvent `json:"events"`
}

// -------------------- OTP --------------------

const (
	OTPStatusPending  = "PENDING"
	OTPStatusVerified = "VERIFIED"
)

// OTPRecord is the single active code for a phone number. A refresh
// overwrites code and timestamps in place, keeping the same OTPID.
type OTPRecord struct {
	OTPID             string `json:"otpId"`
	PhoneNumber       string `json:"phoneNumber"`
	ServiceProviderID string `json:"serviceProviderId"`
	Code              string `json:"otp"`
	CreatedAt         int64  `json:"createdAt"`
	ExpiresAt         int64  `json:"expiresAt"`
	Status            string `json:"status"`
}

// -------------------- PARCEL --------------------

type ParcelSize string

const (
	SizeSmall  ParcelSize = "SMALL"
	SizeMedium ParcelSize = "MEDIUM"
	SizeLarge  ParcelSize = "LARGE"
)

func (s ParcelSize) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

type Parcel struct {
	ParcelID      string     `json:"parcelId"`
	Size          ParcelSize `json:"size"`
	Destination   string     `json:"destination"`
	IsFragile     bool       `json:"isFragile"`
	CreatedAt     int64      `json:"createdAt"`
	Status        string     `json:"status"`
	UserID        string     `json:"userId"`
	DeliveryBoxID string     `json:"deliveryBoxId"`
	CourierID     string     `json:"courierId,omitempty"`
}

// -------------------- DELIVERY BOX --------------------

type BoxType string

const (
	BoxSmall  BoxType = "SMALL"
	BoxMedium BoxType = "MEDIUM"
	BoxLarge  BoxType = "LARGE"
)

func (t BoxType) Valid() bool {
	switch t {
	case BoxSmall, BoxMedium, BoxLarge:
		return true
	}
	return false
}

type DeliveryBox struct {
	BoxID     string  `json:"boxId"`
	Type      BoxType `json:"type"`
	Address   string  `json:"address"`
	IsSecured bool    `json:"isSecured"`
	CreatedAt int64   `json:"createdAt"`
	Status    string  `json:"status"`
}

// -------------------- USER --------------------

type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleCourier  Role = "Courier"
	RoleCustomer Role = "Customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCourier, RoleCustomer:
		return true
	}
	return false
}

type User struct {
	UserID        string `json:"userId"`
	Bucket        int    `json:"-"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	PasswordHash  string `json:"-"`
	PasswordSalt  string `json:"-"`
	PepperVersion int    `json:"-"`
	CreatedAt     int64  `json:"createdAt"`
}

// -------------------- OTP AUDIT --------------------

const (
	OTPAuditCreated        = "CREATED"
	OTPAuditUpdated        = "UPDATED"
	OTPAuditVerifySuccess  = "SUCCESS"
	OTPAuditVerifyFailed   = "FAILED"
	OTPAuditGenerateFailed = "GENERATION_FAILED"
)

// OTPAuditEntry records one generation or verification attempt.
type OTPAuditEntry struct {
	OTPID             string `json:"otpId"`
	PhoneNumber       string `json:"phoneNumber"`
	ServiceProviderID string `json:"serviceProviderId"`
	Kind              string `json:"kind"`
	Error             string `json:"error,omitempty"`
	Timestamp         int64  `json:"timestamp"`
}

// -------------------- REPOSITORY INTERFACES --------------------

// StatusRepository persists the per-parcel append-only event log.
type StatusRepository interface {
	AppendEvent(ctx context.Context, event *StatusEvent) error
	GetHistory(ctx context.Context, parcelID string) ([]StatusEvent, error)
}

// OTPRepository persists at most one OTPRecord per phone number.
type OTPRepository interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*OTPRecord, error)
	Insert(ctx context.Context, record *OTPRecord) error
	Refresh(ctx context.Context, record *OTPRecord) error
	UpdateStatus(ctx context.Context, phoneNumber, otpID, status string) error
}

type ParcelRepository interface {
	Create(ctx context.Context, parcel *Parcel) error
	Get(ctx context.Context, parcelID string) (*Parcel, error)
	AssignCourier(ctx context.Context, parcelID, courierID string) error
	List(ctx context.Context) ([]Parcel, error)
}

type BoxRepository interface {
	Create(ctx context.Context, box *DeliveryBox) error
	Get(ctx context.Context, boxID string) (*DeliveryBox, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
}

// -------------------- COLLABORATOR INTERFACES --------------------

// OTPCache is the hot-path cache for active codes, keyed by phone number.
type OTPCache interface {
	SetCode(ctx context.Context, phoneNumber, code string, ttlSeconds int64) error
	GetCode(ctx context.Context, phoneNumber string) (string, error)
	DeleteCode(ctx context.Context, phoneNumber string) error
}

// AuditRecorder is the sink for OTP generation/verification entries.
// Recording is best-effort from the caller's point of view.
type AuditRecorder interface {
	Record(ctx context.Context, entry *OTPAuditEntry) error
	Recent(ctx context.Context, limit int) ([]OTPAuditEntry, error)
}

// ServiceProviderNotifier delivers fire-and-forget OTP issuance events to
// the owning service provider. Failures are logged, never propagated.
type ServiceProviderNotifier interface {
	NotifyOTPGenerated(ctx context.Context, serviceProviderID, otpID string)
	NotifyOTPGenerationFailed(ctx context.Context, errorID, reason string)
}

// EventIndexer indexes delivery status events for ops search, best-effort.
type EventIndexer interface {
	IndexEvent(ctx context.Context, event *StatusEvent) error
}
