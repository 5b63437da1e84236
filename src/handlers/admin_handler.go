package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/fundfolio/backend/src/logger"
	"github.com/username/fundfolio/backend/src/models"
	"github.com/username/fundfolio/backend/src/processors"
	"github.com/username/fundfolio/backend/src/services"
)

type AdminHandler struct {
	ledgerService services.LedgerService
	txService     services.TransactionService
}

func NewAdminHandler(ledgerService services.LedgerService, txService services.TransactionService) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
		txService:     txService,
	}
}

// HandleGetAdminTransactions returns the platform-wide feed across all
// non-administrator users, optionally filtered by ?kind=.
func (h *AdminHandler) HandleGetAdminTransactions(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKindParam(r.URL.Query().Get("kind"))
	if !ok {
		sendJSONError(w, "Invalid transaction kind filter", http.StatusBadRequest)
		return
	}

	txs, err := h.ledgerService.GetAdminTransactions(r.Context(), kind)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to aggregate admin transactions", "error", err)
		sendJSONError(w, "Failed to load transactions", statusFromError(err))
		return
	}
	sendJSONSuccess(w, txs, http.StatusOK)
}

func (h *AdminHandler) HandleGetAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledgerService.GetAdminStats(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to compute admin stats", "error", err)
		sendJSONError(w, "Failed to load stats", statusFromError(err))
		return
	}
	sendJSONSuccess(w, stats, http.StatusOK)
}

func (h *AdminHandler) HandleClearStatsCache(w http.ResponseWriter, r *http.Request) {
	h.ledgerService.InvalidateStatsCache()
	sendJSONSuccess(w, map[string]string{"message": "Stats cache cleared"}, http.StatusOK)
}

func (h *AdminHandler) HandleGetAdminDepositChart(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.ledgerService.GetAdminDepositChart(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to build admin deposit chart", "error", err)
		sendJSONError(w, "Failed to load deposit chart", statusFromError(err))
		return
	}
	sendJSONSuccess(w, buckets, http.StatusOK)
}

func (h *AdminHandler) HandleGetAdminSignupChart(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.ledgerService.GetAdminSignupChart(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to build signup chart", "error", err)
		sendJSONError(w, "Failed to load signup chart", statusFromError(err))
		return
	}
	sendJSONSuccess(w, buckets, http.StatusOK)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// HandleSetTransactionStatus approves or rejects a pending deposit or
// withdrawal.
func (h *AdminHandler) HandleSetTransactionStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	kind := models.Kind(chi.URLParam(r, "kind"))
	txID := chi.URLParam(r, "txID")

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.txService.SetTransactionStatus(r.Context(), userID, kind, txID, req.Status); err != nil {
		sendJSONError(w, "Failed to update status: "+err.Error(), statusFromError(err))
		return
	}
	h.ledgerService.InvalidateStatsCache()
	sendJSONSuccess(w, map[string]string{"message": "Status updated"}, http.StatusOK)
}

type creditProfitRequest struct {
	PlanID string `json:"planId"`
	Amount any    `json:"amount"`
}

func (h *AdminHandler) HandleCreditProfit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req creditProfitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.txService.CreditProfit(r.Context(), userID, req.PlanID, processors.NormalizeAmount(req.Amount))
	if err != nil {
		sendJSONError(w, "Failed to credit profit: "+err.Error(), statusFromError(err))
		return
	}
	h.ledgerService.InvalidateStatsCache()
	sendJSONSuccess(w, map[string]string{"id": id}, http.StatusCreated)
}

func (h *AdminHandler) HandleReturnInvestment(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	planID := chi.URLParam(r, "planID")

	id, err := h.txService.ReturnInvestment(r.Context(), userID, planID)
	if err != nil {
		sendJSONError(w, "Failed to return investment: "+err.Error(), statusFromError(err))
		return
	}
	h.ledgerService.InvalidateStatsCache()
	sendJSONSuccess(w, map[string]string{"id": id}, http.StatusCreated)
}

type adjustmentRequest struct {
	Amount any `json:"amount"`
}

// HandleSetAdjustment sets the signed manual balance offset on an account.
func (h *AdminHandler) HandleSetAdjustment(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.txService.SetManualAdjustment(r.Context(), userID, processors.NormalizeSignedAmount(req.Amount)); err != nil {
		sendJSONError(w, "Failed to set adjustment: "+err.Error(), statusFromError(err))
		return
	}
	sendJSONSuccess(w, map[string]string{"message": "Adjustment saved"}, http.StatusOK)
}
