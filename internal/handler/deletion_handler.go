package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"finance-dashboard/internal/model"
	"finance-dashboard/internal/service"
)

type deletionService interface {
	Undo(ctx context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error)
	Commit(ctx context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error)
	Active(actor model.AuthUser) []model.DeletionSession
	History(ctx context.Context, actor model.AuthUser, query model.DeletionLogQuery) ([]model.DeletionLogEntry, int, error)
}

type DeletionHandler struct {
	service deletionService
}

func NewDeletionHandler(service deletionService) *DeletionHandler {
	return &DeletionHandler{service: service}
}

func (h *DeletionHandler) Active(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	writeSuccess(w, http.StatusOK, h.service.Active(actor), nil)
}

func (h *DeletionHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	params := r.URL.Query()
	page, limit := pageParams(r)
	query := model.DeletionLogQuery{
		ActorID: strings.TrimSpace(params.Get("actor_id")),
		Outcome: model.DeletionOutcome(strings.TrimSpace(params.Get("outcome"))),
		Page:    page,
		Limit:   limit,
	}
	if raw := params.Get("kind"); raw != "" {
		kind, err := service.ParseKind(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		query.Kind = kind
	}

	entries, total, err := h.service.History(r.Context(), actor, query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entries, model.NewMeta(page, limit, total))
}

func (h *DeletionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Undo)
}

func (h *DeletionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Commit)
}

type deletionAction func(ctx context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error)

func (h *DeletionHandler) act(w http.ResponseWriter, r *http.Request, action deletionAction) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	kind, err := service.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := action(r.Context(), actor, kind, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, session, nil)
}
