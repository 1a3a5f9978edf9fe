package server

import (
	"net/http"
	"regexp"
)

var compactDatePattern = regexp.MustCompile(`^\d{8}$`)

// handleStockInfo serves GET /api/stocks/{code}. Optional query parameters:
// date=YYYYMMDD pins the quote date, insight=true adds AI commentary.
func (s *Server) handleStockInfo(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	code := PathParam(r, "/api/stocks/", "")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Stock code is required")
		return
	}

	date := r.URL.Query().Get("date")
	if date != "" && !compactDatePattern.MatchString(date) {
		WriteError(w, http.StatusBadRequest, "date must be YYYYMMDD")
		return
	}

	cred := s.loadCredential(w, r, uc.UserID)
	if cred == nil {
		return
	}

	summary, err := s.app.Stocks.GetStockInfo(r.Context(), cred, code, date)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	if summary == nil {
		WriteError(w, http.StatusNotFound, "No listed security matches code "+code)
		return
	}

	if r.URL.Query().Get("insight") == "true" {
		insight, err := s.app.Stocks.Insight(r.Context(), summary)
		if err != nil {
			// Commentary is optional; the summary is still worth returning.
			s.logger.Warn().Err(err).Str("code", code).Msg("Insight generation failed")
		} else {
			summary.Insight = insight
		}
	}

	WriteJSON(w, http.StatusOK, summary)
}
