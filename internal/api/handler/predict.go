package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/twostepahead/twostepahead/internal/api/response"
	"github.com/twostepahead/twostepahead/internal/prediction"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Predictor classifies a feature set.
type Predictor interface {
	Predict(ctx context.Context, f prediction.Features) (*prediction.Prediction, error)
}

// PredictHandler handles landslide predictions.
type PredictHandler struct {
	predictor Predictor
	logger    zerolog.Logger
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(predictor Predictor, logger zerolog.Logger) *PredictHandler {
	return &PredictHandler{predictor: predictor, logger: logger}
}

// Predict handles POST /api/predict. Missing feature keys count as 0.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var features prediction.Features
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&features); err != nil {
		detail := "invalid JSON body: " + err.Error()
		if errors.Is(err, io.EOF) {
			detail = "No JSON data received"
		}
		response.BadRequest(w, r, detail, nil)
		return
	}

	result, err := h.predictor.Predict(r.Context(), features)
	if err != nil {
		h.logger.Error().Err(err).
			Str("request_id", requestID(r)).
			Msg("landslide prediction failed")

		detail := "Failed to get a prediction from the inference service."
		if errors.Is(err, prediction.ErrNotConfigured) {
			detail = "The inference service is not configured."
		}
		response.ServiceUnavailable(w, r, detail)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}
