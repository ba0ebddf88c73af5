package handler

import (
	"net/http"

	"finance-dashboard/internal/model"
	"finance-dashboard/internal/service"
)

type PreferenceHandler struct {
	service *service.PreferenceService
}

func NewPreferenceHandler(service *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	prefs, err := h.service.Get(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, prefs, nil)
}

func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var payload model.UpdatePreferencesRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	prefs, err := h.service.Update(r.Context(), actor.ID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, prefs, nil)
}
