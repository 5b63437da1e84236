package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/fundfolio/backend/src/logger"
	"github.com/username/fundfolio/backend/src/processors"
	"github.com/username/fundfolio/backend/src/services"
)

type TransactionHandler struct {
	ledgerService services.LedgerService
	txService     services.TransactionService
}

func NewTransactionHandler(ledgerService services.LedgerService, txService services.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		txService:     txService,
	}
}

// HandleGetTransactions returns the caller's unified transaction feed,
// optionally filtered by ?kind=.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	kind, ok := parseKindParam(r.URL.Query().Get("kind"))
	if !ok {
		sendJSONError(w, "Invalid transaction kind filter", http.StatusBadRequest)
		return
	}

	txs, err := h.ledgerService.GetUserTransactions(r.Context(), userID, kind)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to aggregate transactions", "error", err)
		sendJSONError(w, "Failed to load transactions", statusFromError(err))
		return
	}
	sendJSONSuccess(w, txs, http.StatusOK)
}

func (h *TransactionHandler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	balance, err := h.ledgerService.GetUserBalance(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to reconcile balance", "error", err)
		sendJSONError(w, "Failed to compute balance", statusFromError(err))
		return
	}
	sendJSONSuccess(w, map[string]any{"balance": balance}, http.StatusOK)
}

func (h *TransactionHandler) HandleGetDepositChart(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	buckets, err := h.ledgerService.GetUserDepositChart(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to build deposit chart", "error", err)
		sendJSONError(w, "Failed to load deposit chart", statusFromError(err))
		return
	}
	sendJSONSuccess(w, buckets, http.StatusOK)
}

type createDepositRequest struct {
	Amount        any    `json:"amount"`
	PaymentMethod string `json:"paymentMethod"`
}

func (h *TransactionHandler) HandleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var req createDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.txService.CreateDeposit(r.Context(), userID, processors.NormalizeAmount(req.Amount), req.PaymentMethod)
	if err != nil {
		sendJSONError(w, "Failed to create deposit: "+err.Error(), statusFromError(err))
		return
	}
	sendJSONSuccess(w, map[string]string{"id": id}, http.StatusCreated)
}

type withdrawalRequest struct {
	Amount     any    `json:"amount"`
	Mode       string `json:"mode"`
	WalletType string `json:"walletType"`
}

func (h *TransactionHandler) HandleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.txService.RequestWithdrawal(r.Context(), userID, processors.NormalizeAmount(req.Amount), req.Mode, req.WalletType)
	if err != nil {
		sendJSONError(w, "Failed to request withdrawal: "+err.Error(), statusFromError(err))
		return
	}
	sendJSONSuccess(w, map[string]string{"id": id}, http.StatusCreated)
}

type startPlanRequest struct {
	Amount   any    `json:"amount"`
	PlanName string `json:"planName"`
}

func (h *TransactionHandler) HandleStartPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var req startPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.txService.StartPlan(r.Context(), userID, processors.NormalizeAmount(req.Amount), req.PlanName)
	if err != nil {
		sendJSONError(w, "Failed to start plan: "+err.Error(), statusFromError(err))
		return
	}
	sendJSONSuccess(w, map[string]string{"id": id}, http.StatusCreated)
}
