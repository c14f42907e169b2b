package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

const (
	maxDestinationLength = 100
	maxAddressLength     = 200
)

// LogisticsService handles parcel and delivery-box lifecycle.
type LogisticsService struct {
	parcelRepo model.ParcelRepository
	boxRepo    model.BoxRepository
}

func NewLogisticsService(parcelRepo model.ParcelRepository, boxRepo model.BoxRepository) *LogisticsService {
	return &LogisticsService{
		parcelRepo: parcelRepo,
		boxRepo:    boxRepo,
	}
}

func (s *LogisticsService) CreateParcel(ctx context.Context, parcel *model.Parcel) (*model.Parcel, error) {
	if !parcel.Size.Valid() {
		return nil, fmt.Errorf("%w: unknown parcel size %q", ErrInvalidInput, parcel.Size)
	}
	destination := strings.TrimSpace(parcel.Destination)
	if destination == "" {
		return nil, fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}
	if len(parcel.Destination) > maxDestinationLength {
		return nil, fmt.Errorf("%w: destination exceeds %d characters", ErrInvalidInput, maxDestinationLength)
	}

	parcel.ParcelID = uuid.New().String()
	parcel.CreatedAt = time.Now().UnixMilli()
	parcel.Status = "CREATED"

	if err := s.parcelRepo.Create(ctx, parcel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	util.Info("Parcel created",
		zap.String("parcel_id", parcel.ParcelID),
		zap.String("size", string(parcel.Size)))
	return parcel, nil
}

// AssignCourier links a courier to an existing parcel.
func (s *LogisticsService) AssignCourier(ctx context.Context, parcelID, courierID string) error {
	if strings.TrimSpace(parcelID) == "" {
		return fmt.Errorf("%w: parcelId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(courierID) == "" {
		return fmt.Errorf("%w: courierId is required", ErrInvalidInput)
	}

	parcel, err := s.parcelRepo.Get(ctx, parcelID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if parcel == nil {
		return fmt.Errorf("%w: parcel %s", ErrNotFound, parcelID)
	}

	if err := s.parcelRepo.AssignCourier(ctx, parcelID, courierID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	util.Info("Courier assigned",
		zap.String("parcel_id", parcelID),
		zap.String("courier_id", courierID))
	return nil
}

func (s *LogisticsService) ListParcels(ctx context.Context) ([]model.Parcel, error) {
	parcels, err := s.parcelRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return parcels, nil
}

func (s *LogisticsService) CreateBox(ctx context.Context, box *model.DeliveryBox) (*model.DeliveryBox, error) {
	if !box.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown box type %q", ErrInvalidInput, box.Type)
	}
	address := strings.TrimSpace(box.Address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if len(box.Address) > maxAddressLength {
		return nil, fmt.Errorf("%w: address exceeds %d characters", ErrInvalidInput, maxAddressLength)
	}

	box.BoxID = uuid.New().String()
	box.CreatedAt = time.Now().UnixMilli()
	box.Status = "CREATED"

	if err := s.boxRepo.Create(ctx, box); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	util.Info("Delivery box registered",
		zap.String("box_id", box.BoxID),
		zap.String("type", string(box.Type)))
	return box, nil
}
