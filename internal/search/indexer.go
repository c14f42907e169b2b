// Package search indexes delivery status events into Elasticsearch so ops
// can query across parcels. Indexing never blocks the write path.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"delivery-service/internal/client"
	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

type EventIndexer struct {
	client *client.ESClient
	index  string
}

func NewEventIndexer(esClient *client.ESClient, index string) *EventIndexer {
	return &EventIndexer{client: esClient, index: index}
}

func (i *EventIndexer) IndexEvent(ctx context.Context, event *model.StatusEvent) error {
	res, err := i.client.IndexDocument(ctx, i.index, event.EventID, event)
	if err != nil {
		util.Error("Failed to index status event",
			zap.String("event_id", event.EventID),
			zap.String("parcel_id", event.ParcelID),
			zap.Error(err))
		return fmt.Errorf("failed to index status event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		util.Error("Status event index rejected",
			zap.String("event_id", event.EventID),
			zap.String("status", res.Status()))
		return fmt.Errorf("failed to index status event: %s", res.Status())
	}

	util.Debug("Status event indexed",
		zap.String("event_id", event.EventID),
		zap.String("parcel_id", event.ParcelID))
	return nil
}
