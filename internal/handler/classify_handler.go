package handler

import (
	"context"
	"errors"
	"net/http"

	"finance-dashboard/internal/classifier"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/apierror"
)

type categoryPredictor interface {
	Predict(ctx context.Context, text string) (classifier.Prediction, error)
}

type ClassifyHandler struct {
	predictor categoryPredictor
}

func NewClassifyHandler(predictor categoryPredictor) *ClassifyHandler {
	return &ClassifyHandler{predictor: predictor}
}

// Classify suggests a category for a description without storing anything.
func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var req model.ClassifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	prediction, err := h.predictor.Predict(r.Context(), req.Text)
	switch {
	case err == nil:
		writeSuccess(w, http.StatusOK, prediction, nil)
	case errors.Is(err, classifier.ErrEmptyText):
		writeError(w, apierror.BadRequest("text is required", ""))
	case errors.Is(err, classifier.ErrDisabled):
		writeError(w, apierror.New("CLASSIFIER_DISABLED", "Category suggestions are not configured", "", http.StatusServiceUnavailable))
	default:
		writeError(w, apierror.Wrap(err, "CLASSIFIER_UNAVAILABLE", "Category suggestions are unavailable", http.StatusServiceUnavailable))
	}
}
