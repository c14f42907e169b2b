package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"delivery-service/internal/model"
	"delivery-service/internal/service"
)

// LogisticsHandler handles parcel and delivery-box requests.
type LogisticsHandler struct {
	logisticsService *service.LogisticsService
}

func NewLogisticsHandler(logisticsService *service.LogisticsService) *LogisticsHandler {
	return &LogisticsHandler{logisticsService: logisticsService}
}

func (h *LogisticsHandler) RegisterRoutes(router chi.Router) {
	router.Post("/create-parcel", h.CreateParcel)
	router.Post("/assign-courier", h.AssignCourier)
	router.Get("/get-parcels", h.ListParcels)
	router.Post("/create-delivery-box", h.CreateBox)
}

type createParcelRequest struct {
	Size          string `json:"size"`
	Destination   string `json:"destination"`
	IsFragile     bool   `json:"isFragile"`
	UserID        string `json:"userId"`
	DeliveryBoxID string `json:"deliveryBoxId"`
}

func (h *LogisticsHandler) CreateParcel(w http.ResponseWriter, r *http.Request) {
	var req createParcelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	parcel, err := h.logisticsService.CreateParcel(r.Context(), &model.Parcel{
		Size:          model.ParcelSize(req.Size),
		Destination:   req.Destination,
		IsFragile:     req.IsFragile,
		UserID:        req.UserID,
		DeliveryBoxID: req.DeliveryBoxID,
	})
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to create parcel")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(parcel, "Parcel created"))
}

type assignCourierRequest struct {
	ParcelID  string `json:"parcelId"`
	CourierID string `json:"courierId"`
}

func (h *LogisticsHandler) AssignCourier(w http.ResponseWriter, r *http.Request) {
	var req assignCourierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if err := h.logisticsService.AssignCourier(r.Context(), req.ParcelID, req.CourierID); err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to assign courier")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Courier assigned"))
}

func (h *LogisticsHandler) ListParcels(w http.ResponseWriter, r *http.Request) {
	parcels, err := h.logisticsService.ListParcels(r.Context())
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to list parcels")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(parcels, "Parcels"))
}

type createBoxRequest struct {
	Type      string `json:"type"`
	Address   string `json:"address"`
	IsSecured bool   `json:"isSecured"`
}

func (h *LogisticsHandler) CreateBox(w http.ResponseWriter, r *http.Request) {
	var req createBoxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	box, err := h.logisticsService.CreateBox(r.Context(), &model.DeliveryBox{
		Type:      model.BoxType(req.Type),
		Address:   req.Address,
		IsSecured: req.IsSecured,
	})
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to create delivery box")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(box, "Delivery box registered"))
}
