package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/username/fundfolio/backend/src/logger"
	"github.com/username/fundfolio/backend/src/security"
	"github.com/username/fundfolio/backend/src/services"
)

type AuthHandler struct {
	authService *security.AuthService
	userService services.UserService
}

func NewAuthHandler(authService *security.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !strings.Contains(req.Email, "@") {
		sendJSONError(w, "A valid email address is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		sendJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Registration failed", "error", err)
		sendJSONError(w, "Registration failed: "+err.Error(), statusFromError(err))
		return
	}
	sendJSONSuccess(w, user, http.StatusCreated)
}

func (h *AuthHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		sendJSONError(w, "Invalid email or password", statusFromError(err))
		return
	}

	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Token generation failed", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	sendJSONSuccess(w, map[string]any{"token": token, "user": user}, http.StatusOK)
}
