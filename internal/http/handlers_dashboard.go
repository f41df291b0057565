package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"momo/internal/core"
	"momo/internal/log"
	"momo/internal/source"
	"momo/internal/services"
)

// dashboardData is the view model shared by the page and the partial.
type dashboardData struct {
	Search    string
	Type      string
	Types     []string
	Summary   core.Summary
	Rows      []core.Row
	Visible   int
	Total     int
	Truncated bool
	Charts    core.Charts
	// ChartsJSON seeds the charts on first paint.
	ChartsJSON string
}

func newDashboardData(v services.DashboardView) dashboardData {
	return dashboardData{
		Search:     v.Filter.Search,
		Type:       v.Filter.Type,
		Types:      v.Types,
		Summary:    v.Summary,
		Rows:       v.Rows,
		Visible:    v.Visible,
		Total:      v.Total,
		Truncated:  v.Truncated,
		Charts:     v.Charts,
		ChartsJSON: chartsJSON(v.Charts),
	}
}

// handleDashboardPartial re-renders stats and table for the current filter
// and tells the browser to rebuild both charts.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	f := parseFilter(r, "q")
	logger := log.FromContext(r.Context())

	view, err := s.dashboard.View(ctx, f, s.now())
	if err != nil {
		logger.ErrorContext(ctx, "Dashboard view failed",
			log.NewFields().
				WithError(err).
				WithOperation(log.OpLoad).
				WithFilter(f.Search, f.Type).ToSlice()...)
		InternalServerError(loadErrorMessage).
			TriggerErrorNotification("Failed to load transactions").
			Write(w)
		return
	}
	logger.DebugContext(ctx, "Dashboard view rendered",
		append(log.NewFields().WithFilter(f.Search, f.Type).ToSlice(),
			log.FieldCount, view.Visible)...)

	body, err := s.renderToBytes("dashboard", newDashboardData(view))
	if err != nil {
		s.logger.ErrorContext(ctx, "Dashboard template failed", log.FieldError, err)
		InternalServerError("Failed to render dashboard").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerChartsUpdate(view.Charts).
		Body(body).
		Header("Content-Type", "text/html; charset=utf-8").
		Write(w)
}

// handleTransactionDetail renders the modal body for one record. Lookup is
// against the full set, not the filtered one.
func (s *Server) handleTransactionDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequestError("Invalid transaction id").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	t, err := s.dashboard.Get(ctx, id)
	switch {
	case errors.Is(err, source.ErrNotFound):
		body, rerr := s.renderToBytes("transaction_not_found", id)
		if rerr != nil {
			NotFoundError("Transaction not found").Write(w)
			return
		}
		NewHTMXResponse().Status(http.StatusNotFound).
			Header("Content-Type", "text/html; charset=utf-8").
			Body(body).Write(w)
		return
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(ctx, "Transaction lookup failed",
			log.FieldError, err,
			"id", id)
		InternalServerError(loadErrorMessage).Write(w)
		return
	}

	data := struct {
		ID     int64
		Fields []core.DetailField
	}{ID: t.ID, Fields: core.DetailView(t)}
	s.render(w, r, http.StatusOK, "transaction_detail", data)
}
