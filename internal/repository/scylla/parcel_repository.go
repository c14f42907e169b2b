package scylla

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

type ParcelRepository struct {
	client *ScyllaClient
}

func NewParcelRepository(client *ScyllaClient, logger *zap.Logger) *ParcelRepository {
	return &ParcelRepository{client: client}
}

func (r *ParcelRepository) Create(ctx context.Context, parcel *model.Parcel) error {
	query := r.client.Query(r.client.Stmts.InsertParcel,
		parcel.ParcelID, string(parcel.Size), parcel.Destination, parcel.IsFragile,
		parcel.CreatedAt, parcel.Status, parcel.UserID, parcel.DeliveryBoxID,
		parcel.CourierID).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to create parcel",
			zap.String("parcel_id", parcel.ParcelID),
			zap.Error(err))
		return fmt.Errorf("failed to create parcel: %w", err)
	}

	util.Debug("Parcel created", zap.String("parcel_id", parcel.ParcelID))
	return nil
}

func (r *ParcelRepository) Get(ctx context.Context, parcelID string) (*model.Parcel, error) {
	parcel := &model.Parcel{}
	var size string

	query := r.client.Query(r.client.Stmts.GetParcel, parcelID).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&parcel.ParcelID, &size, &parcel.Destination, &parcel.IsFragile,
		&parcel.CreatedAt, &parcel.Status, &parcel.UserID, &parcel.DeliveryBoxID,
		&parcel.CourierID)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		util.Error("Failed to get parcel",
			zap.String("parcel_id", parcelID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get parcel: %w", err)
	}

	parcel.Size = model.ParcelSize(size)
	return parcel, nil
}

func (r *ParcelRepository) AssignCourier(ctx context.Context, parcelID, courierID string) error {
	query := r.client.Query(r.client.Stmts.AssignParcelCourier, courierID, parcelID).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to assign courier",
			zap.String("parcel_id", parcelID),
			zap.String("courier_id", courierID),
			zap.Error(err))
		return fmt.Errorf("failed to assign courier: %w", err)
	}

	return nil
}

func (r *ParcelRepository) List(ctx context.Context) ([]model.Parcel, error) {
	iter := r.client.Query(`
        SELECT parcel_id, size, destination, is_fragile, created_at, status, user_id, delivery_box_id, courier_id
        FROM parcels`).WithContext(ctx).Iter()

	var parcels []model.Parcel
	var (
		p    model.Parcel
		size string
	)
	for iter.Scan(&p.ParcelID, &size, &p.Destination, &p.IsFragile,
		&p.CreatedAt, &p.Status, &p.UserID, &p.DeliveryBoxID, &p.CourierID) {
		p.Size = model.ParcelSize(size)
		parcels = append(parcels, p)
		p = model.Parcel{}
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to list parcels", zap.Error(err))
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}

	return parcels, nil
}
