package http

import (
	"context"
	"errors"
	"net/http"

	"momo/internal/core"
	"momo/internal/log"
)

// handleAPITransactions serves {success, data, count}. Query parameters
// are type and search.
func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	f := parseFilter(r, "search")
	txs, err := s.dashboard.Transactions(ctx, f)
	if err != nil {
		s.apiFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    txs,
		"count":   len(txs),
	})
}

func (s *Server) handleAPITransactionTypes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	types, err := s.dashboard.Types(ctx)
	if err != nil {
		s.apiFailure(w, r, err)
		return
	}
	if types == nil {
		types = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": types})
}

// handleAPISummary serves per-type and per-month rows as
// [label, count, total] triples.
func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	stats, err := s.dashboard.Stats(ctx)
	if err != nil {
		s.apiFailure(w, r, err)
		return
	}

	typeStats := make([][]any, 0, len(stats.TypeStats))
	for _, ts := range stats.TypeStats {
		typeStats = append(typeStats, []any{ts.Type, ts.Count, ts.Total.Francs()})
	}
	monthly := make([][]any, 0, len(stats.MonthlyStats))
	for _, ms := range stats.MonthlyStats {
		monthly = append(monthly, []any{ms.Month, ms.Count, ms.Total.Francs()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"type_stats":    typeStats,
			"monthly_stats": monthly,
		},
	})
}

func (s *Server) handleAPICharts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	charts, err := s.dashboard.Charts(ctx, parseFilter(r, "q"))
	if err != nil {
		s.apiFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		core.Charts
	}{true, charts})
}

func (s *Server) apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	errType := log.ErrorTypeInternal
	if errors.Is(err, context.DeadlineExceeded) {
		errType = log.ErrorTypeNetwork
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "API request failed",
		log.NewFields().
			WithError(err).
			WithErrorType(errType).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
			ToSlice()...)
	writeAPIError(w, http.StatusInternalServerError, err.Error())
}
