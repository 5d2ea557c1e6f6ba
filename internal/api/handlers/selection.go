package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/stockpick/internal/dataset"
	"github.com/wonny/stockpick/internal/selection"
	"github.com/wonny/stockpick/internal/selector"
	"github.com/wonny/stockpick/internal/selectorconfig"
	"github.com/wonny/stockpick/pkg/logger"
)

var validate = validator.New()

// SelectionRunner runs one selection
type SelectionRunner interface {
	Run(ctx context.Context, opts selection.Options) (*selection.RunSummary, error)
}

// PicksStore reads stored selection results
type PicksStore interface {
	GetPicks(ctx context.Context, date time.Time, alias string) ([]selection.StoredResult, error)
	ListRuns(ctx context.Context, limit int) ([]selection.RunRecord, error)
}

// SelectionHandler handles selection API endpoints
// ⭐ SSOT: 선택 API 핸들러는 이 구조체에서만
type SelectionHandler struct {
	runner   SelectionRunner
	registry *selector.Registry
	store    PicksStore
	defaults selection.Options
	logger   *logger.Logger
}

// NewSelectionHandler creates a new selection handler. store may be nil.
func NewSelectionHandler(runner SelectionRunner, registry *selector.Registry, store PicksStore, defaults selection.Options, log *logger.Logger) *SelectionHandler {
	return &SelectionHandler{
		runner:   runner,
		registry: registry,
		store:    store,
		defaults: defaults,
		logger:   log,
	}
}

// RunRequest is the body of POST /api/runs. Empty fields use server defaults.
type RunRequest struct {
	DataDir        string `json:"data_dir"`
	ConfigPath     string `json:"config_path"`
	Date           string `json:"date"`
	Tickers        string `json:"tickers"`
	Export         *bool  `json:"export"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=0,lte=3600"`
}

// ListSelectors returns the registered selector types
// GET /api/selectors
func (h *SelectionHandler) ListSelectors(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"selectors": h.registry.Entries(),
	})
}

// CreateRun triggers a selection run and returns its summary
// POST /api/runs
func (h *SelectionHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := h.defaults
	if req.DataDir != "" {
		opts.DataDir = req.DataDir
	}
	if req.ConfigPath != "" {
		opts.ConfigPath = req.ConfigPath
	}
	if req.Date != "" {
		opts.Date = req.Date
	}
	if req.Tickers != "" {
		opts.Symbols = req.Tickers
	}
	if req.Export != nil {
		opts.Export = *req.Export
	}
	if req.TimeoutSeconds > 0 {
		opts.SelectorTimeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	summary, err := h.runner.Run(r.Context(), opts)
	if err != nil {
		status := runErrorStatus(err)
		h.logger.WithError(err).WithField("status", status).Warn("Selection run rejected")
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetPicks returns stored picks of a trade date
// GET /api/picks?date=YYYY-MM-DD&alias=
func (h *SelectionHandler) GetPicks(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Result store is not configured")
		return
	}

	date, ok := dataset.ParseDate(r.URL.Query().Get("date"))
	if !ok {
		respondError(w, http.StatusBadRequest, "Query parameter 'date' is required (YYYY-MM-DD)")
		return
	}
	alias := r.URL.Query().Get("alias")

	picks, err := h.store.GetPicks(r.Context(), date, alias)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get picks")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve picks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":    date.Format("2006-01-02"),
		"alias":   alias,
		"results": picks,
	})
}

// ListRuns returns the most recent stored runs
// GET /api/runs?limit=20
func (h *SelectionHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Result store is not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Query parameter 'limit' must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

// runErrorStatus maps fatal run conditions to HTTP status codes
func runErrorStatus(err error) int {
	switch {
	case errors.Is(err, dataset.ErrInvalidDate),
		errors.Is(err, dataset.ErrEmptyUniverse):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrDataDirMissing),
		errors.Is(err, dataset.ErrNoData),
		errors.Is(err, dataset.ErrNoTradeDate),
		errors.Is(err, selectorconfig.ErrConfigMissing),
		errors.Is(err, selectorconfig.ErrNoSelectors),
		errors.Is(err, selectorconfig.ErrSelectorsNotArray):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
