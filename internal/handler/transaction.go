package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moneymanager/moneymanager/internal/handler/dto"
	"github.com/moneymanager/moneymanager/internal/service"
)

// TransactionHandler handles HTTP requests for transactions.
type TransactionHandler struct {
	svc    *service.TransactionService
	logger *slog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc *service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/transactions.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.List(r.Context(), identity(r), listOptions(r))
	if err != nil {
		handleServiceError(w, r, h.logger, transactionResource, "fetch", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToTransactionListResponse(txs))
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.Get(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, transactionResource, "fetch", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToTransactionResponse(tx))
}

// Create handles POST /api/transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tx, err := h.svc.Create(r.Context(), identity(r), req.Input())
	if err != nil {
		handleServiceError(w, r, h.logger, transactionResource, "create", err)
		return
	}

	h.logger.Info("transaction_created", "transaction_id", tx.ID)
	writeJSON(w, http.StatusOK, dto.ToTransactionResponse(tx))
}

// Update handles PUT /api/transactions/{id}.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tx, err := h.svc.Update(r.Context(), identity(r), chi.URLParam(r, "id"), req.Input())
	if err != nil {
		handleServiceError(w, r, h.logger, transactionResource, "update", err)
		return
	}

	h.logger.Info("transaction_updated", "transaction_id", tx.ID)
	writeJSON(w, http.StatusOK, dto.ToTransactionResponse(tx))
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), identity(r), id); err != nil {
		handleServiceError(w, r, h.logger, transactionResource, "delete", err)
		return
	}

	h.logger.Info("transaction_deleted", "transaction_id", id)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

func listOptions(r *http.Request) service.ListOptions {
	q := r.URL.Query()
	return service.ListOptions{
		OrderBy: q.Get("orderBy"),
		Order:   q.Get("order"),
	}
}
