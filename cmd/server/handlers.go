package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/transfer"
)

type handler struct {
	service *transfer.Service
}

func newRouter(service *transfer.Service) http.Handler {
	h := &handler{service: service}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /api/v1/transactions", h.createTransaction)
	mux.HandleFunc("GET /api/v1/transactions", h.listTransactions)
	mux.HandleFunc("GET /api/v1/transactions/{id}", h.getTransaction)
	mux.HandleFunc("POST /api/v1/transactions/{id}/cancel", h.cancelTransaction)
	return mux
}

func (h *handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AmountCent     int64  `json:"amount_cent"`
		Description    string `json:"description"`
		Currency       string `json:"currency"`
		SenderUserID   int64  `json:"sender_user_id"`
		ReceiverUserID int64  `json:"receiver_user_id"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid request body"})
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		idempotencyKey = req.IdempotencyKey
	}

	result, err := h.service.Create(r.Context(), transfer.CreateRequest{
		AmountCents:    req.AmountCent,
		Currency:       req.Currency,
		Description:    req.Description,
		SenderUserID:   req.SenderUserID,
		ReceiverUserID: req.ReceiverUserID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		var validationErr *models.ValidationError
		var processorErr *models.ProcessorError
		switch {
		case errors.As(err, &validationErr):
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": validationErr.Reason})
		case errors.As(err, &processorErr):
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"message": "failed to create payment intent",
				"error":   processorErr.Message,
			})
		default:
			log.Printf("[Server] transaction error: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "transaction failed"})
		}
		return
	}

	if result.Replayed {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "transaction already exists (idempotent)",
			"transaction": result.Transaction,
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "transaction created",
		"transaction":   result.Transaction,
		"client_secret": result.ClientSecret,
	})
}

func (h *handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, models.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "transaction not found"})
		return
	}
	if err != nil {
		log.Printf("[Server] error fetching transaction: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "failed to fetch transaction"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "transaction retrieved",
		"transaction": tx,
	})
}

func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	senderID, _ := strconv.ParseInt(q.Get("sender_user_id"), 10, 64)

	result, err := h.service.List(r.Context(), models.TransactionFilter{
		Status:       models.Status(q.Get("status")),
		SenderUserID: senderID,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		log.Printf("[Server] error fetching transactions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "failed to fetch transactions"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "transactions retrieved",
		"transactions": result.Transactions,
		"pagination": map[string]any{
			"total": result.Total,
			"page":  result.Page,
			"limit": result.Limit,
			"pages": result.Pages(),
		},
	})
}

func (h *handler) cancelTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		var stateErr *models.InvalidStateError
		switch {
		case errors.Is(err, models.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "transaction not found"})
		case errors.As(err, &stateErr):
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": stateErr.Error() + ": only pending transactions can be cancelled"})
		default:
			log.Printf("[Server] error cancelling transaction: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "failed to cancel transaction"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "transaction cancelled successfully",
		"transaction": tx,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[Server] failed to encode response: %v", err)
	}
}
