package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"delivery-service/internal/model"
	"delivery-service/internal/service"
)

// DeliveryHandler handles delivery status tracking requests.
type DeliveryHandler struct {
	trackingService *service.TrackingService
}

func NewDeliveryHandler(trackingService *service.TrackingService) *DeliveryHandler {
	return &DeliveryHandler{trackingService: trackingService}
}

func (h *DeliveryHandler) RegisterRoutes(router chi.Router) {
	router.Route("/delivery", func(r chi.Router) {
		r.Post("/status", h.RecordStatus)
		r.Get("/status/{parcelId}", h.GetHistory)
	})
}

type recordStatusRequest struct {
	ParcelID          string `json:"parcelId"`
	Stage             string `json:"stage"`
	Location          string `json:"location"`
	ServiceProviderID string `json:"serviceProviderId"`
	Timestamp         int64  `json:"timestamp"`
	AdditionalDetails string `json:"additionalDetails"`
}

func (h *DeliveryHandler) RecordStatus(w http.ResponseWriter, r *http.Request) {
	var req recordStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	event, err := h.trackingService.RecordEvent(r.Context(), &model.StatusEvent{
		ParcelID:          req.ParcelID,
		Stage:             model.DeliveryStage(req.Stage),
		Location:          req.Location,
		ServiceProviderID: req.ServiceProviderID,
		Timestamp:         req.Timestamp,
		AdditionalDetails: req.AdditionalDetails,
	})
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to record status event")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(event, "Status event recorded"))
}

func (h *DeliveryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	parcelID := chi.URLParam(r, "parcelId")

	history, err := h.trackingService.GetHistory(r.Context(), parcelID)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to read status history")
		return
	}

	respondWithJSON(w, http.StatusOK, history)
}
