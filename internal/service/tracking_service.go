package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

// TrackingService manages the append-only delivery status history. Appends
// for the same parcel are serialized through keyed locks, so the event
// order seen by readers is the order of completed appends.
type TrackingService struct {
	statusRepo model.StatusRepository
	indexer    model.EventIndexer
	locks      *KeyedLocks
}

func NewTrackingService(statusRepo model.StatusRepository, indexer model.EventIndexer, locks *KeyedLocks) *TrackingService {
	return &TrackingService{
		statusRepo: statusRepo,
		indexer:    indexer,
		locks:      locks,
	}
}

// RecordEvent appends one status event. The timestamp defaults to now when
// the caller omits it. Search indexing happens after the append and never
// fails the write.
func (s *TrackingService) RecordEvent(ctx context.Context, event *model.StatusEvent) (*model.StatusEvent, error) {
	if strings.TrimSpace(event.ParcelID) == "" {
		return nil, fmt.Errorf("%w: parcelId is required", ErrInvalidInput)
	}
	if !event.Stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, event.Stage)
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	s.locks.Lock(event.ParcelID)
	err := s.statusRepo.AppendEvent(ctx, event)
	s.locks.Unlock(event.ParcelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if s.indexer != nil {
		indexCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if indexErr := s.indexer.IndexEvent(indexCtx, event); indexErr != nil {
			util.Warn("Status event indexing failed",
				zap.String("event_id", event.EventID),
				zap.Error(indexErr))
		}
	}

	util.Info("Status event recorded",
		zap.String("parcel_id", event.ParcelID),
		zap.String("stage", string(event.Stage)))
	return event, nil
}

// GetHistory returns the full event sequence for a parcel in append order.
// CurrentStage is the stage of the last event.
func (s *TrackingService) GetHistory(ctx context.Context, parcelID string) (*model.StatusHistory, error) {
	if strings.TrimSpace(parcelID) == "" {
		return nil, fmt.Errorf("%w: parcelId is required", ErrInvalidInput)
	}

	events, err := s.statusRepo.GetHistory(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no status history for parcel %s", ErrNotFound, parcelID)
	}

	return &model.StatusHistory{
		ParcelID:     parcelID,
		CurrentStage: events[len(events)-1].Stage,
		Events:       events,
	}, nil
}
