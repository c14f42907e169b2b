package scylla

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

type BoxRepository struct {
	client *ScyllaClient
}

func NewBoxRepository(client *ScyllaClient, logger *zap.Logger) *BoxRepository {
	return &BoxRepository{client: client}
}

func (r *BoxRepository) Create(ctx context.Context, box *model.DeliveryBox) error {
	query := r.client.Query(r.client.Stmts.InsertBox,
		box.BoxID, string(box.Type), box.Address, box.IsSecured,
		box.CreatedAt, box.Status).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to create delivery box",
			zap.String("box_id", box.BoxID),
			zap.Error(err))
		return fmt.Errorf("failed to create delivery box: %w", err)
	}

	util.Debug("Delivery box created", zap.String("box_id", box.BoxID))
	return nil
}

func (r *BoxRepository) Get(ctx context.Context, boxID string) (*model.DeliveryBox, error) {
	box := &model.DeliveryBox{}
	var boxType string

	query := r.client.Query(r.client.Stmts.GetBox, boxID).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&box.BoxID, &boxType, &box.Address, &box.IsSecured,
		&box.CreatedAt, &box.Status)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		util.Error("Failed to get delivery box",
			zap.String("box_id", boxID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get delivery box: %w", err)
	}

	box.Type = model.BoxType(boxType)
	return box, nil
}
