package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/apierror"
)

type transactionService interface {
	Create(ctx context.Context, userID string, req model.CreateTransactionRequest) (model.Transaction, error)
	Get(ctx context.Context, userID string, id string) (model.Transaction, error)
	List(ctx context.Context, query model.TransactionQuery) ([]model.Transaction, int, error)
	Update(ctx context.Context, userID string, id string, req model.UpdateTransactionRequest) (model.Transaction, error)
}

type TransactionHandler struct {
	transactions transactionService
	deletions    deletionStarter
}

func NewTransactionHandler(transactions transactionService, deletions deletionStarter) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, deletions: deletions}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	params := r.URL.Query()
	from, err := timeParam(params.Get("from"))
	if err != nil {
		writeError(w, apierror.BadRequest("invalid from", err.Error()))
		return
	}
	to, err := timeParam(params.Get("to"))
	if err != nil {
		writeError(w, apierror.BadRequest("invalid to", err.Error()))
		return
	}

	page, limit := pageParams(r)
	query := model.TransactionQuery{
		UserID:         actor.ID,
		AssetID:        strings.TrimSpace(params.Get("asset_id")),
		Type:           model.TransactionType(strings.TrimSpace(params.Get("type"))),
		From:           from,
		To:             to,
		IncludeDeleted: boolParam(r, "include_deleted"),
		Page:           page,
		Limit:          limit,
	}

	txs, total, err := h.transactions.List(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, txs, model.NewMeta(page, limit, total))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	tx, err := h.transactions.Get(r.Context(), actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tx, nil)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var payload model.CreateTransactionRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	tx, err := h.transactions.Create(r.Context(), actor.ID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, tx, nil)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var payload model.UpdateTransactionRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	tx, err := h.transactions.Update(r.Context(), actor.ID, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tx, nil)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	session, err := h.deletions.Start(r.Context(), actor, model.KindTransaction, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, session, nil)
}

// timeParam accepts RFC 3339 timestamps or plain dates.
func timeParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
