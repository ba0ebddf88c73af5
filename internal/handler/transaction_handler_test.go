package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/model"
)

type fakeTransactions struct {
	lastQuery model.TransactionQuery
}

func (f *fakeTransactions) Create(_ context.Context, userID string, req model.CreateTransactionRequest) (model.Transaction, error) {
	return model.Transaction{ID: "t1", UserID: userID, Amount: req.Amount, Type: req.Type}, nil
}

func (f *fakeTransactions) Get(_ context.Context, userID string, id string) (model.Transaction, error) {
	return model.Transaction{ID: id, UserID: userID}, nil
}

func (f *fakeTransactions) List(_ context.Context, query model.TransactionQuery) ([]model.Transaction, int, error) {
	f.lastQuery = query
	return nil, 0, nil
}

func (f *fakeTransactions) Update(_ context.Context, userID string, id string, _ model.UpdateTransactionRequest) (model.Transaction, error) {
	return model.Transaction{ID: id, UserID: userID}, nil
}

func TestTransactionHandlerListFilters(t *testing.T) {
	txs := &fakeTransactions{}
	h := NewTransactionHandler(txs, &fakeStarter{})

	rec, _ := serve(t, http.MethodGet, "/transactions", h.List,
		"/transactions?asset_id=a1&type=expense&from=2024-01-01&to=2024-02-01T12:00:00Z", "", alice)

	require.Equal(t, http.StatusOK, rec.Code)
	q := txs.lastQuery
	assert.Equal(t, "user-1", q.UserID)
	assert.Equal(t, "a1", q.AssetID)
	assert.Equal(t, model.TransactionExpense, q.Type)
	require.NotNil(t, q.From)
	require.NotNil(t, q.To)
	assert.True(t, q.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, q.To.Equal(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)))
}

func TestTransactionHandlerListRejectsBadDate(t *testing.T) {
	h := NewTransactionHandler(&fakeTransactions{}, &fakeStarter{})

	rec, env := serve(t, http.MethodGet, "/transactions", h.List, "/transactions?from=yesterday", "", alice)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid from", env.Error.Message)
}

func TestTransactionHandlerCreate(t *testing.T) {
	h := NewTransactionHandler(&fakeTransactions{}, &fakeStarter{})

	rec, env := serve(t, http.MethodPost, "/transactions", h.Create, "/transactions",
		`{"description":"Rent","amount":"950","type":"expense","category":"housing"}`, alice)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
}

func TestTransactionHandlerDelete(t *testing.T) {
	starter := &fakeStarter{}
	h := NewTransactionHandler(&fakeTransactions{}, starter)

	rec, _ := serve(t, http.MethodDelete, "/transactions/{id}", h.Delete, "/transactions/t1", "", alice)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, model.KindTransaction, starter.kind)
	assert.Equal(t, "t1", starter.id)
}

func TestTimeParam(t *testing.T) {
	got, err := timeParam("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = timeParam(" 2024-03-05 ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.Day())

	_, err = timeParam("05/03/2024")
	assert.Error(t, err)
}
