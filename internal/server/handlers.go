package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/leapstack-labs/askql/pkg/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handlers provides the HTTP handlers for the API.
type Handlers struct {
	engine Engine
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng Engine, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{engine: eng, logger: logger}
}

// Health reports that the server is up.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ask answers a question. A pipeline failure still yields an answer, so
// it is reported with 200 unless no metadata was available at all.
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	question, ok := h.readQuestion(w, r)
	if !ok {
		return
	}

	report, err := h.engine.Ask(r.Context(), question)
	resp := AskResponse{
		RequestID: report.RequestID,
		Answer:    report.Answer,
		SQL:       report.SQL,
		Outcome:   string(report.Result.Outcome),
		Columns:   report.Result.Columns,
		Rows:      report.Result.Rows,
	}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	if resp.Rows == nil {
		resp.Rows = []core.Row{}
	}

	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		if errors.Is(err, core.ErrMetadataUnavailable) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Warn("question not fully answered",
			slog.String("request_id", report.RequestID),
			slog.String("http_request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, resp)
}

// SQL returns the components and SQL for a question without executing it.
func (h *Handlers) SQL(w http.ResponseWriter, r *http.Request) {
	question, ok := h.readQuestion(w, r)
	if !ok {
		return
	}

	plan, err := h.engine.Prepare(r.Context(), question)
	resp := SQLResponse{
		RequestID:  plan.RequestID,
		SQL:        plan.SQL,
		Components: plan.Components,
	}
	if err != nil {
		resp.Error = err.Error()
		h.logger.Warn("question not synthesized",
			slog.String("request_id", plan.RequestID),
			slog.String("error", err.Error()))
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrMetadataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrSynthesisInvalid), errors.Is(err, core.ErrAnalysisMalformed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (h *Handlers) readQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req QuestionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return "", false
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "question is required"})
		return "", false
	}
	return question, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
