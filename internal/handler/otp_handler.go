package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"delivery-service/internal/service"
)

// OTPHandler handles OTP generation, verification and audit log requests.
type OTPHandler struct {
	otpService *service.OTPService
}

func NewOTPHandler(otpService *service.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

func (h *OTPHandler) RegisterRoutes(router chi.Router) {
	router.Post("/generate-otp", h.GenerateOTP)
	router.Post("/verify-otp", h.VerifyOTP)
	router.Get("/otp-logs", h.ListLogs)
}

type generateOTPRequest struct {
	PhoneNumber       string `json:"phoneNumber"`
	ServiceProviderID string `json:"serviceProviderId"`
}

type otpResponse struct {
	OTPID   string `json:"otpId,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *OTPHandler) GenerateOTP(w http.ResponseWriter, r *http.Request) {
	var req generateOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	record, err := h.otpService.Generate(r.Context(), req.PhoneNumber, req.ServiceProviderID)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to generate OTP")
		return
	}

	respondWithJSON(w, http.StatusOK, otpResponse{
		OTPID:   record.OTPID,
		Status:  "SUCCESS",
		Message: "OTP generated",
	})
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"otp"`
}

func (h *OTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	record, err := h.otpService.Verify(r.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "OTP verification failed")
		return
	}

	respondWithJSON(w, http.StatusOK, otpResponse{
		OTPID:   record.OTPID,
		Status:  "SUCCESS",
		Message: "OTP verified",
	})
}

func (h *OTPHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, service.ErrInvalidInput, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.otpService.RecentLogs(r.Context(), limit)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to read OTP logs")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(entries, "OTP logs"))
}
