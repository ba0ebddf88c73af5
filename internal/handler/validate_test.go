package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/apierror"
)

func TestValidateRequestReportsJSONFieldNames(t *testing.T) {
	err := validateRequest(&model.CreateAssetRequest{Type: "yacht", Currency: "EURO"})
	require.Error(t, err)

	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	assert.Equal(t, "validation failed", apiErr.Message)
	assert.Contains(t, apiErr.Details, "name: required")
	assert.Contains(t, apiErr.Details, "type: oneof=")
	assert.Contains(t, apiErr.Details, "currency: len=3")
}

func TestValidateRequestAcceptsOptionalFields(t *testing.T) {
	assert.NoError(t, validateRequest(&model.UpdateAssetRequest{}))
	assert.NoError(t, validateRequest(&model.UpdatePreferencesRequest{Currency: "eur"}))
}

func TestCreateTransactionRejectsBadAssetID(t *testing.T) {
	h := NewTransactionHandler(&fakeTransactions{}, &fakeStarter{})

	rec, env := serve(t, http.MethodPost, "/transactions", h.Create, "/transactions",
		`{"asset_id":"not-a-uuid","description":"Rent","amount":"950","type":"expense"}`, alice)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "asset_id: uuid")
}
