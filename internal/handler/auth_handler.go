package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"delivery-service/internal/model"
	"delivery-service/internal/service"
)

// AuthHandler handles registration, login and user listing.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.RequireRole(model.RoleAdmin))
		r.Get("/get-users", h.ListUsers)
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password, model.Role(req.Role))
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Registration failed")
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(user, "User registered"))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	signed, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Credential failures come back as 401, not the usual 404 mapping.
		code := getStatusCode(err)
		if errors.Is(err, service.ErrNotFound) {
			code = http.StatusUnauthorized
		}
		respondWithError(w, code, errors.New("invalid credentials"), "Login failed")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(loginResponse{Token: signed, User: user}, "Login successful"))
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to list users")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(users, "Users"))
}

// RequireRole rejects requests without a bearer token carrying the role.
func (h *AuthHandler) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondWithError(w, http.StatusUnauthorized, errors.New("missing bearer token"), "Authentication required")
				return
			}

			claims, err := h.authService.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, errors.New("invalid bearer token"), "Authentication required")
				return
			}
			if claims.Role != role {
				respondWithError(w, http.StatusForbidden, errors.New("insufficient role"), "Access denied. Required role: "+string(role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
