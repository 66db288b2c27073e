package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/climatelabs/carbontracker/internal/emissions"
)

const (
	defaultTopCount = 10
	maxTopCount     = 100
)

type yearsResponse struct {
	MinYear int `json:"min_year"`
	MaxYear int `json:"max_year"`
}

type summaryResponse struct {
	Year  int      `json:"year"`
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleIndex serves the dashboard page. The page is static; data arrives
// through the JSON API.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	s.log.Debug("[/api/years]", "full", r.URL.String())

	table, err := s.provider.GetTable(r.Context())
	if err != nil {
		s.writeUnavailable(w, err)
		return
	}

	minYear, maxYear, ok := table.YearBounds()
	if !ok {
		s.writeUnavailable(w, emissions.ErrEmptyResult)
		return
	}

	s.writeJSON(w, yearsResponse{MinYear: minYear, MaxYear: maxYear})
}

func (s *Server) handleEmissions(w http.ResponseWriter, r *http.Request) {
	yearStr := r.URL.Query().Get("year")
	s.log.Debug("[/api/emissions]", "year", yearStr, "full", r.URL.String())

	table, err := s.provider.GetTable(r.Context())
	if err != nil {
		s.writeUnavailable(w, err)
		return
	}

	year, ok := s.yearParam(w, yearStr, table)
	if !ok {
		return
	}

	s.writeJSON(w, table.YearSlice(year))
}

func (s *Server) handleTopEmitters(w http.ResponseWriter, r *http.Request) {
	yearStr := r.URL.Query().Get("year")
	nStr := r.URL.Query().Get("n")
	s.log.Debug("[/api/emissions/top]", "year", yearStr, "n", nStr, "full", r.URL.String())

	n := defaultTopCount
	if nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed <= 0 {
			http.Error(w, fmt.Sprintf("invalid count %q", nStr), http.StatusBadRequest)
			return
		}
		if parsed > maxTopCount {
			parsed = maxTopCount
		}
		n = parsed
	}

	table, err := s.provider.GetTable(r.Context())
	if err != nil {
		s.writeUnavailable(w, err)
		return
	}

	year, ok := s.yearParam(w, yearStr, table)
	if !ok {
		return
	}

	s.writeJSON(w, emissions.TopN(table.YearSlice(year), n))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	yearStr := r.URL.Query().Get("year")
	s.log.Debug("[/api/summary]", "year", yearStr, "full", r.URL.String())

	table, err := s.provider.GetTable(r.Context())
	if err != nil {
		s.writeUnavailable(w, err)
		return
	}

	year, ok := s.yearParam(w, yearStr, table)
	if !ok {
		return
	}

	summary := emissions.Summarize(table.YearSlice(year))
	resp := summaryResponse{Year: year, Count: summary.Count}
	if summary.HasMean {
		mean := summary.Mean
		resp.Mean = &mean
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.log.Debug("[/api/refresh]", "full", r.URL.String())

	if err := s.provider.Refresh(r.Context()); err != nil {
		s.writeUnavailable(w, err)
		return
	}
	s.writeJSON(w, statusResponse{Status: "ok"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// yearParam resolves the year query parameter, defaulting to the most recent
// year in the table. Reports false after writing an error response.
func (s *Server) yearParam(w http.ResponseWriter, yearStr string, table *emissions.Table) (int, bool) {
	if yearStr == "" {
		_, maxYear, ok := table.YearBounds()
		if !ok {
			s.writeUnavailable(w, emissions.ErrEmptyResult)
			return 0, false
		}
		return maxYear, true
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		s.log.Warn("invalid year", "year", yearStr)
		http.Error(w, fmt.Sprintf("invalid year %q", yearStr), http.StatusBadRequest)
		return 0, false
	}
	return year, true
}

// writeUnavailable collapses every table failure into one non-fatal
// response; the frontend shows its notice banner and keeps the controls
// disabled.
func (s *Server) writeUnavailable(w http.ResponseWriter, err error) {
	s.log.Warn("emissions data unavailable", "error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: "emissions data is currently unavailable"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", "error", err)
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
