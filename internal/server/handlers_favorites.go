package server

import (
	"net/http"
	"strings"

	"github.com/akakabu/akakabu-server/internal/models"
)

func (s *Server) routeFavorites(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleFavoriteAdd(w, r)
	case http.MethodGet:
		s.handleFavoriteList(w, r)
	default:
		RequireMethod(w, r, http.MethodPost, http.MethodGet)
	}
}

type favoriteAddRequest struct {
	Code string `json:"code"`
}

// handleFavoriteAdd saves a favorite. The current summary is fetched so the
// stored snapshot carries name, sector, close, and dividend at save time.
func (s *Server) handleFavoriteAdd(w http.ResponseWriter, r *http.Request) {
	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	var req favoriteAddRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		WriteError(w, http.StatusBadRequest, "code is required")
		return
	}

	cred := s.loadCredential(w, r, uc.UserID)
	if cred == nil {
		return
	}

	summary, err := s.app.Stocks.GetStockInfo(r.Context(), cred, req.Code, "")
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	if summary == nil {
		WriteError(w, http.StatusNotFound, "No listed security matches code "+req.Code)
		return
	}

	fav := &models.Favorite{
		UserID:      uc.UserID,
		Code:        summary.Code,
		CompanyName: summary.CompanyName,
		Sector:      summary.Sector,
		Market:      summary.Market,
		Close:       summary.Close,
		Dividend:    summary.Dividend,
	}

	if err := s.app.Favorites.Add(r.Context(), fav); err != nil {
		s.logger.Error().Err(err).Msg("Failed to add favorite")
		WriteError(w, http.StatusInternalServerError, "Failed to add favorite")
		return
	}

	WriteJSON(w, http.StatusCreated, fav)
}

func (s *Server) handleFavoriteList(w http.ResponseWriter, r *http.Request) {
	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	favs, err := s.app.Favorites.List(r.Context(), uc.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list favorites")
		WriteError(w, http.StatusInternalServerError, "Failed to list favorites")
		return
	}
	if favs == nil {
		favs = []*models.Favorite{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(favs),
		"favorites": favs,
	})
}

func (s *Server) handleFavoriteDelete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	code := PathParam(r, "/api/favorites/", "")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Favorite code is required")
		return
	}

	if err := s.app.Favorites.Remove(r.Context(), uc.UserID, code); err != nil {
		s.logger.Error().Err(err).Msg("Failed to remove favorite")
		WriteError(w, http.StatusInternalServerError, "Failed to remove favorite")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "removed"})
}

func (s *Server) handleFavoriteSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	summary, err := s.app.Favorites.Summary(r.Context(), uc.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build favorite summary")
		WriteError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handleFavoriteChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	png, err := s.app.Favorites.RenderDividendChart(r.Context(), uc.UserID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "No favorites to chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
