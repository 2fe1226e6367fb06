package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/chartwise/internal/api/job"
	"github.com/newthinker/chartwise/internal/api/response"
	"github.com/newthinker/chartwise/internal/app"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/notifier"
	"go.uber.org/zap"
)

const (
	batchTimeout    = 10 * time.Minute
	notifyTimeout   = 2 * time.Minute
	maxBatchSymbols = 100
	jobTypeAnalysis = "analysis"
)

// AnalyzeRequest is the optional body of POST /api/v1/analyze/{symbol}. When
// Prices is set the collector is bypassed.
type AnalyzeRequest struct {
	Prices []Bar `json:"prices,omitempty"`
}

// BatchRequest is the body of POST /api/v1/analyze.
type BatchRequest struct {
	Symbols []string `json:"symbols"`
}

// AnalysisHandler runs the agent pipeline over HTTP.
type AnalysisHandler struct {
	app      AnalysisApp
	jobs     *job.Store
	notifier notifier.Notifier
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler. The notifier is
// optional and hears about every finished batch.
func NewAnalysisHandler(app AnalysisApp, jobs *job.Store, n notifier.Notifier, logger *zap.Logger) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{app: app, jobs: jobs, notifier: n, logger: logger}
}

// Analyze handles POST /api/v1/analyze/{symbol}. A failure that leaves no
// report is returned as an error; agent failures ride along in the result.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	var req AnalyzeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Fail(w, core.WrapError(core.ErrInvalidRequest, err))
			return
		}
	}

	var res app.Result
	if len(req.Prices) > 0 {
		series, err := toSeries(req.Prices)
		if err != nil {
			response.Fail(w, err)
			return
		}
		res = h.app.AnalyzeSeries(r.Context(), symbol, series)
	} else {
		res = h.app.AnalyzeTicker(r.Context(), symbol)
	}

	if res.Err != nil && !res.Report.Present() {
		response.Fail(w, res.Err)
		return
	}

	response.JSON(w, http.StatusOK, res)
}

// Batch handles POST /api/v1/analyze. The tickers run in the background and
// the response carries a job ID to poll.
func (h *AnalysisHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, err))
		return
	}

	symbols := normalizeSymbols(req.Symbols)
	if len(symbols) == 0 {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("symbols is required")))
		return
	}
	if len(symbols) > maxBatchSymbols {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest,
			fmt.Errorf("at most %d symbols per batch, got %d", maxBatchSymbols, len(symbols))))
		return
	}

	j := h.jobs.Create(jobTypeAnalysis)
	if err := h.jobs.Update(j.ID, func(j *job.Job) { j.Status = job.StatusRunning }); err != nil {
		response.Fail(w, err)
		return
	}
	go h.runBatch(j.ID, symbols)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id":  j.ID,
		"status":  job.StatusRunning,
		"symbols": symbols,
	})
}

func (h *AnalysisHandler) runBatch(jobID string, symbols []string) {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	results := h.app.AnalyzeProgress(ctx, symbols, func(done, total int) {
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Progress = done * 100 / total
		})
	})

	if err := ctx.Err(); err != nil {
		h.logger.Warn("batch analysis aborted", zap.String("job_id", jobID), zap.Error(err))
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = core.WrapError(core.ErrCollectorTimeout, err)
			j.Result = results
		})
		h.notify(jobID, notifier.EventBatchFailed, results)
		return
	}

	h.logger.Info("batch analysis complete", zap.String("job_id", jobID), zap.Int("symbols", len(symbols)))
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = results
	})
	h.notify(jobID, notifier.EventBatchComplete, results)
}

func (h *AnalysisHandler) notify(jobID, eventType string, results []app.Result) {
	if h.notifier == nil {
		return
	}

	event := notifier.Event{
		Type:        eventType,
		JobID:       jobID,
		Summaries:   make([]notifier.Summary, len(results)),
		CompletedAt: time.Now().UTC(),
	}
	for i, res := range results {
		sum := notifier.Summary{Symbol: res.Symbol, Agents: len(res.Signals), Error: res.Error}
		if c := res.Consensus; c != nil {
			sum.Signal = string(c.Signal)
			sum.Confidence = c.Confidence
		}
		if d := res.Decision; d != nil {
			sum.Action = string(d.Action)
			sum.Quantity = d.Quantity
		}
		if r := res.Risk; r != nil {
			sum.RiskScore = r.RiskScore
		}
		event.Summaries[i] = sum
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := h.notifier.Notify(ctx, event); err != nil {
		h.logger.Error("batch notification failed",
			zap.String("job_id", jobID),
			zap.String("notifier", h.notifier.Name()),
			zap.Error(err),
		)
	}
}

// Job handles GET /api/v1/jobs/{id}.
func (h *AnalysisHandler) Job(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}
	if j.Done() {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// Jobs handles GET /api/v1/jobs.
func (h *AnalysisHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	out := make([]map[string]any, len(jobs))
	for i, j := range jobs {
		out[i] = map[string]any{
			"job_id":     j.ID,
			"status":     j.Status,
			"progress":   j.Progress,
			"created_at": j.CreatedAt,
		}
	}
	response.JSON(w, http.StatusOK, map[string]any{"jobs": out})
}

// normalizeSymbols trims, uppercases and de-duplicates, keeping first-seen order.
func normalizeSymbols(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
