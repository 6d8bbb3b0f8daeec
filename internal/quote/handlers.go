package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pricing-api/internal/common"
	"github.com/noah-isme/pricing-api/internal/currency"
	"github.com/noah-isme/pricing-api/internal/obs"
	"github.com/noah-isme/pricing-api/internal/pricing"
)

// Handler exposes the quote endpoints.
type Handler struct {
	Svc     *Service
	Metrics *obs.QuoteMetrics
}

// BatchRequest wraps multiple quote requests.
type BatchRequest struct {
	Items []Request `json:"items"`
}

// BatchItem carries either a result or an error for one batch entry.
type BatchItem struct {
	Data  *Result           `json:"data,omitempty"`
	Error *common.ErrorBody `json:"error,omitempty"`
}

// Quote handles POST /api/v1/quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_JSON", "request body is not valid JSON", nil)
		return
	}
	result, err := h.Svc.Quote(req)
	if err != nil {
		h.observe(req, "error")
		h.writeError(w, err)
		return
	}
	h.observeResult(result, "ok")
	common.JSONData(w, http.StatusOK, result)
}

// Batch handles POST /api/v1/quotes/batch. Items fail independently; the
// response preserves input order.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_JSON", "request body is not valid JSON", nil)
		return
	}
	if len(req.Items) == 0 {
		common.JSONError(w, http.StatusBadRequest, "EMPTY_BATCH", "batch must contain at least one item", nil)
		return
	}
	if max := h.Svc.MaxBatchItems(); len(req.Items) > max {
		common.JSONError(w, http.StatusBadRequest, "BATCH_TOO_LARGE", fmt.Sprintf("batch exceeds %d items", max), nil)
		return
	}

	items := make([]BatchItem, 0, len(req.Items))
	for _, item := range req.Items {
		result, err := h.Svc.Quote(item)
		if err != nil {
			h.observe(item, "error")
			items = append(items, BatchItem{Error: errorBody(err)})
			continue
		}
		h.observeResult(result, "ok")
		items = append(items, BatchItem{Data: &result})
	}
	common.JSONData(w, http.StatusOK, items)
}

// Strategies handles GET /api/v1/strategies.
func (h *Handler) Strategies(w http.ResponseWriter, _ *http.Request) {
	common.JSONData(w, http.StatusOK, pricing.StrategyNames())
}

// Roundings handles GET /api/v1/roundings.
func (h *Handler) Roundings(w http.ResponseWriter, _ *http.Request) {
	common.JSONData(w, http.StatusOK, pricing.RoundingNames())
}

// Currency handles GET /api/v1/currencies/{code}.
func (h *Handler) Currency(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	cur, err := currency.Parse(code)
	if err != nil {
		h.writeError(w, asAppError(err))
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"code":      cur.Code,
		"num":       cur.Num,
		"scale":     cur.Scale,
		"cash_step": cur.CashStep,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func errorBody(err error) *common.ErrorBody {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return &common.ErrorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	}
	return &common.ErrorBody{Code: "INTERNAL", Message: "internal error"}
}

func (h *Handler) observe(req Request, status string) {
	if h.Metrics == nil {
		return
	}
	// Unknown names collapse to a fixed label so callers cannot blow up the
	// metric cardinality.
	strategy := req.Strategy
	if strategy == "" {
		strategy = pricing.StrategyMargin.String()
	}
	if _, err := pricing.ParseStrategy(strategy); err != nil {
		strategy = "invalid"
	}
	rounding := req.Rounding
	if rounding == "" {
		rounding = "identity"
	}
	if _, err := pricing.ParseRounding(rounding); err != nil && rounding != roundingCash {
		rounding = "invalid"
	}
	h.Metrics.QuotesTotal.WithLabelValues(strategy, rounding, status).Inc()
}

func (h *Handler) observeResult(result Result, status string) {
	if h.Metrics == nil {
		return
	}
	h.Metrics.QuotesTotal.WithLabelValues(result.Strategy, result.Rounding, status).Inc()
}
