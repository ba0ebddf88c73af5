package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"finance-dashboard/internal/model"
)

type assetService interface {
	Create(ctx context.Context, userID string, req model.CreateAssetRequest) (model.Asset, error)
	Get(ctx context.Context, userID string, id string) (model.Asset, error)
	List(ctx context.Context, query model.AssetQuery) ([]model.Asset, int, error)
	Update(ctx context.Context, userID string, id string, req model.UpdateAssetRequest) (model.Asset, error)
}

// deletionStarter begins the undoable delete behind DELETE routes.
type deletionStarter interface {
	Start(ctx context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error)
}

type AssetHandler struct {
	assets    assetService
	deletions deletionStarter
}

func NewAssetHandler(assets assetService, deletions deletionStarter) *AssetHandler {
	return &AssetHandler{assets: assets, deletions: deletions}
}

func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	page, limit := pageParams(r)
	query := model.AssetQuery{
		UserID:         actor.ID,
		Type:           model.AssetType(strings.TrimSpace(r.URL.Query().Get("type"))),
		IncludeDeleted: boolParam(r, "include_deleted"),
		Page:           page,
		Limit:          limit,
	}

	assets, total, err := h.assets.List(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, assets, model.NewMeta(page, limit, total))
}

func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	asset, err := h.assets.Get(r.Context(), actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, asset, nil)
}

func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var payload model.CreateAssetRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	asset, err := h.assets.Create(r.Context(), actor.ID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, asset, nil)
}

func (h *AssetHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var payload model.UpdateAssetRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	asset, err := h.assets.Update(r.Context(), actor.ID, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, asset, nil)
}

// Delete hides the asset and starts the undo countdown.
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	session, err := h.deletions.Start(r.Context(), actor, model.KindAsset, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, session, nil)
}
