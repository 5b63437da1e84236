package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/fundfolio/backend/src/logger"
	"github.com/username/fundfolio/backend/src/models"
	"github.com/username/fundfolio/backend/src/services"
	"github.com/username/fundfolio/backend/src/store"
)

type contextKey string

const (
	userIDContextKey    contextKey = "userID"
	requestIDContextKey contextKey = "requestID"
)

// apiResponse is the discriminated result envelope every endpoint returns.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func sendJSONSuccess(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

// statusFromError maps service-layer errors onto HTTP statuses. Anything
// unrecognized is treated as a transient backend failure.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidKind):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrPlanAlreadyReturned):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// parseKindParam validates the optional ?kind= filter.
func parseKindParam(raw string) (models.Kind, bool) {
	switch models.Kind(raw) {
	case "", "all":
		return "", true
	case models.KindDeposit, models.KindWithdrawal, models.KindInvestment,
		models.KindProfit, models.KindInvestmentReturn:
		return models.Kind(raw), true
	default:
		return "", false
	}
}
