package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/newthinker/chartwise/internal/api/response"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
	"github.com/newthinker/chartwise/internal/report"
)

// maxDays caps the history a single request may ask for.
const maxDays = 2000

// IndicatorsRequest is the body of POST /api/v1/indicators.
type IndicatorsRequest struct {
	Symbol string `json:"symbol"`
	Prices []Bar  `json:"prices"`
}

// IndicatorsResponse carries the report plus the names of absent sub-reports.
// Digest is the rendered text and is only filled when ?digest=true.
type IndicatorsResponse struct {
	Symbol string           `json:"symbol"`
	Report indicator.Report `json:"report"`
	Absent []string         `json:"absent"`
	Digest string           `json:"digest,omitempty"`
}

// IndicatorsHandler serves indicator reports.
type IndicatorsHandler struct {
	app AnalysisApp
}

// NewIndicatorsHandler creates a new indicators handler.
func NewIndicatorsHandler(app AnalysisApp) *IndicatorsHandler {
	return &IndicatorsHandler{app: app}
}

// Compute handles POST /api/v1/indicators for caller-supplied bars.
func (h *IndicatorsHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req IndicatorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, err))
		return
	}
	if req.Symbol == "" {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("symbol is required")))
		return
	}

	series, err := toSeries(req.Prices)
	if err != nil {
		response.Fail(w, err)
		return
	}
	if err := series.Validate(); err != nil {
		response.Fail(w, err)
		return
	}

	h.respond(w, r, req.Symbol, series)
}

// Get handles GET /api/v1/indicators/{symbol}?days=N using the configured collector.
func (h *IndicatorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	days, err := parseDays(r.URL.Query().Get("days"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	series, err := h.app.FetchHistory(r.Context(), symbol, days)
	if err != nil {
		response.Fail(w, err)
		return
	}

	h.respond(w, r, symbol, series)
}

func (h *IndicatorsHandler) respond(w http.ResponseWriter, r *http.Request, symbol string, series core.PriceSeries) {
	rep, ok := h.app.ComputeReport(series).Get()
	if !ok {
		response.Fail(w, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%d bars supplied", len(series))))
		return
	}

	resp := IndicatorsResponse{Symbol: symbol, Report: rep, Absent: rep.Absent()}
	if resp.Absent == nil {
		resp.Absent = []string{}
	}
	if r.URL.Query().Get("digest") == "true" {
		resp.Digest = report.Render(symbol, rep)
	}
	response.JSON(w, http.StatusOK, resp)
}

// parseDays reads the optional days parameter; zero means the configured default.
func parseDays(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > maxDays {
		return 0, core.WrapError(core.ErrInvalidRequest,
			fmt.Errorf("days must be an integer in [1, %d], got %q", maxDays, raw))
	}
	return days, nil
}
