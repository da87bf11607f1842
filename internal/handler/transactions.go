package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/server/middleware"
	"github.com/walletpilot/pilot/internal/store"
)

// TransactionHandler serves the transaction intent endpoints. Execution is
// mocked: intents are persisted with a generated hash and immediately
// reported as confirmed.
type TransactionHandler struct {
	store *store.Store
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(st *store.Store) *TransactionHandler {
	return &TransactionHandler{store: st}
}

type txIntent struct {
	ChainID int64  `json:"chainId"`
	To      string `json:"to"`
	Value   string `json:"value"`
	Data    string `json:"data"`
}

type executeRequest struct {
	Intent *txIntent `json:"intent"`
}

type executeResponse struct {
	ID      string `json:"id"`
	Hash    string `json:"hash"`
	ChainID int64  `json:"chainId"`
	Status  string `json:"status"`
}

// Execute records a transaction intent and returns its mock receipt.
// POST /v1/tx/execute
func (h *TransactionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKey(r.Context())

	var req executeRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Intent == nil || req.Intent.ChainID == 0 || req.Intent.To == "" {
		writeErr(w, http.StatusBadRequest, "Intent with chainId and to is required")
		return
	}

	hash, err := mockTxHash()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to execute transaction")
		return
	}

	tx := &model.Transaction{
		KeyID:   key.ID,
		Hash:    hash,
		ChainID: req.Intent.ChainID,
		To:      req.Intent.To,
		Value:   req.Intent.Value,
		Data:    req.Intent.Data,
		Status:  model.TxConfirmed,
	}
	if err := h.store.CreateTransaction(r.Context(), tx); err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to record transaction")
		return
	}

	writeOK(w, http.StatusOK, executeResponse{
		ID:      tx.ID,
		Hash:    tx.Hash,
		ChainID: tx.ChainID,
		Status:  tx.Status,
	})
}

// Get looks up a transaction by hash, scoped to the calling key.
// GET /v1/tx/{hash}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKey(r.Context())
	hash := chi.URLParam(r, "hash")

	tx, err := h.store.GetTransactionByHash(r.Context(), hash, key.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "Transaction not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "Failed to load transaction")
		return
	}
	writeOK(w, http.StatusOK, tx)
}

// mockTxHash generates a random 32-byte hash in 0x hex form.
func mockTxHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(buf), nil
}
