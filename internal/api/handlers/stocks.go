package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/metadata"
	"github.com/wonny/stockpick/pkg/logger"
)

// StockDirectory serves the cached listed-stock table
type StockDirectory interface {
	Lookup(ctx context.Context, code string) (contracts.StockInfo, bool)
	Stocks(ctx context.Context, filter metadata.Filter) ([]contracts.StockInfo, error)
	Refresh(ctx context.Context) error
}

// StocksHandler handles stock metadata endpoints
type StocksHandler struct {
	directory StockDirectory
	logger    *logger.Logger
}

// NewStocksHandler creates a new stocks handler
func NewStocksHandler(directory StockDirectory, log *logger.Logger) *StocksHandler {
	return &StocksHandler{
		directory: directory,
		logger:    log,
	}
}

// ListStocks returns listed stocks, optionally filtered
// GET /api/stocks?industry=&area=
func (h *StocksHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := metadata.Filter{
		Industry: q.Get("industry"),
		Area:     q.Get("area"),
	}

	stocks, err := h.directory.Stocks(r.Context(), filter)
	if err != nil {
		h.respondUnavailable(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(stocks),
		"stocks": stocks,
	})
}

// GetStock returns one stock by ts_code or symbol
// GET /api/stocks/{code}
func (h *StocksHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	code := vars["code"]

	info, ok := h.directory.Lookup(r.Context(), code)
	if !ok {
		respondError(w, http.StatusNotFound, "Stock not found: "+code)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// RefreshStocks reloads the stock table from the provider
// POST /api/stocks/refresh
func (h *StocksHandler) RefreshStocks(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.Refresh(r.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to refresh stock metadata")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	stocks, err := h.directory.Stocks(r.Context(), metadata.Filter{})
	if err != nil {
		h.respondUnavailable(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "refreshed",
		"count":  len(stocks),
	})
}

func (h *StocksHandler) respondUnavailable(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, metadata.ErrUnavailable) {
		status = http.StatusServiceUnavailable
	}
	h.logger.WithError(err).Warn("Stock metadata request failed")
	respondError(w, status, err.Error())
}
