package scylla

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

// StatusRepository persists the per-parcel event log. parcel_id is the
// partition key and event_id is a timeuuid clustering column, so rows come
// back in arrival order for a single parcel.
type StatusRepository struct {
	client *ScyllaClient
}

func NewStatusRepository(client *ScyllaClient, logger *zap.Logger) *StatusRepository {
	return &StatusRepository{client: client}
}

func (r *StatusRepository) AppendEvent(ctx context.Context, event *model.StatusEvent) error {
	eventID, err := gocql.ParseUUID(event.EventID)
	if err != nil {
		eventID = gocql.TimeUUID()
		event.EventID = eventID.String()
	}

	query := r.client.Query(r.client.Stmts.AppendStatusEvent,
		event.ParcelID, eventID, string(event.Stage), event.Location,
		event.ServiceProviderID, event.Timestamp, event.AdditionalDetails).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to append status event",
			zap.String("parcel_id", event.ParcelID),
			zap.String("stage", string(event.Stage)),
			zap.Error(err))
		return fmt.Errorf("failed to append status event: %w", err)
	}

	util.Debug("Status event appended",
		zap.String("parcel_id", event.ParcelID),
		zap.String("stage", string(event.Stage)))
	return nil
}

func (r *StatusRepository) GetHistory(ctx context.Context, parcelID string) ([]model.StatusEvent, error) {
	iter := r.client.Query(r.client.Stmts.GetStatusHistory, parcelID).WithContext(ctx).Iter()

	var events []model.StatusEvent
	var (
		pid     string
		eventID gocql.UUID
		stage   string
		loc     string
		spID    string
		ts      int64
		details string
	)
	for iter.Scan(&pid, &eventID, &stage, &loc, &spID, &ts, &details) {
		events = append(events, model.StatusEvent{
			EventID:           eventID.String(),
			ParcelID:          pid,
			Stage:             model.DeliveryStage(stage),
			Location:          loc,
			ServiceProviderID: spID,
			Timestamp:         ts,
			AdditionalDetails: details,
		})
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to read status history",
			zap.String("parcel_id", parcelID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read status history: %w", err)
	}

	return events, nil
}
