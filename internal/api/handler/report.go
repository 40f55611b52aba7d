package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/twostepahead/twostepahead/internal/api/middleware"
	"github.com/twostepahead/twostepahead/internal/api/response"
	"github.com/twostepahead/twostepahead/internal/report"
)

const reportFailureDetail = "An internal error occurred while generating the report."

// ReportStreamer streams generated text for a prompt.
type ReportStreamer interface {
	Stream(ctx context.Context, prompt string, emit func(chunk string) error) error
}

// ReportHandler streams AI-generated risk reports.
type ReportHandler struct {
	generator ReportStreamer
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewReportHandler creates a new ReportHandler. timeout extends the
// connection write deadline for the duration of one stream.
func NewReportHandler(generator ReportStreamer, timeout time.Duration, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{generator: generator, timeout: timeout, logger: logger}
}

// GenerateReport handles POST /api/generate_report. The report is written as
// text/plain chunks, flushed as they arrive. A failure before the first chunk
// is a 500 problem; later failures end the stream early.
func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	var input report.Input
	if err := dec.Decode(&input); err != nil || len(input) == 0 {
		response.BadRequest(w, r, "No JSON data received", nil)
		return
	}

	prompt, err := report.BuildPrompt(input)
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("building report prompt")
		response.InternalError(w, r, reportFailureDetail)
		return
	}

	rc := http.NewResponseController(w)
	if h.timeout > 0 {
		// Not every writer supports deadlines.
		_ = rc.SetWriteDeadline(time.Now().Add(h.timeout))
	}

	chunks := 0
	start := func() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
	}

	err = h.generator.Stream(r.Context(), prompt, func(chunk string) error {
		if chunks == 0 {
			start()
		}
		chunks++
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		return rc.Flush()
	})

	if err == nil {
		if chunks == 0 {
			start()
		}
		return
	}

	h.logger.Error().Err(err).
		Str("request_id", requestID(r)).
		Int("chunks", chunks).
		Msg("report generation failed")

	if chunks == 0 {
		response.InternalError(w, r, reportFailureDetail)
	}
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
