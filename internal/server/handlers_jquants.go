package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/akakabu/akakabu-server/internal/clients/jquants"
	"github.com/akakabu/akakabu-server/internal/models"
	storage "github.com/akakabu/akakabu-server/internal/storage/surrealdb"
)

// writeUpstreamError maps quotes-client failures onto API status codes.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, jquants.ErrNoRecentPrice) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	var apiErr *jquants.APIError
	if errors.As(err, &apiErr) {
		s.logger.Error().
			Int("status", apiErr.StatusCode).
			Str("endpoint", apiErr.Endpoint).
			Msg("J-Quants API error")
		WriteError(w, http.StatusBadGateway, "Market data provider error")
		return
	}

	s.logger.Error().Err(err).Msg("Stock request failed")
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

// loadCredential fetches the caller's J-Quants credential, writing a 401
// when no account is linked.
func (s *Server) loadCredential(w http.ResponseWriter, r *http.Request, userID string) *models.JQuantsCredential {
	cred, err := s.app.Storage.CredentialStore().Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusUnauthorized, "No J-Quants account linked")
			return nil
		}
		s.logger.Error().Err(err).Msg("Failed to load credential")
		WriteError(w, http.StatusInternalServerError, "Failed to load credential")
		return nil
	}
	return cred
}

type jquantsRegisterRequest struct {
	RefreshToken string `json:"refresh_token"`
	Plan         string `json:"plan"`
}

// handleJQuantsRegister links a J-Quants account to the caller. The refresh
// token is exchanged immediately, which both validates it and seeds the
// stored access token.
func (s *Server) handleJQuantsRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	var req jquantsRegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		WriteError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	plan := models.Plan(req.Plan)
	if !plan.Valid() {
		WriteError(w, http.StatusBadRequest, "plan must be one of free, pro_light, pro_standard, pro_advanced")
		return
	}

	cred := &models.JQuantsCredential{
		UserID:       uc.UserID,
		RefreshToken: req.RefreshToken,
		Plan:         plan,
	}

	accessToken, err := s.app.JQuants.RefreshAccessToken(r.Context(), cred)
	if err != nil || accessToken == "" {
		var apiErr *jquants.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			WriteError(w, http.StatusBadRequest, "Refresh token was rejected by J-Quants")
			return
		}
		s.logger.Error().Err(err).Msg("Token exchange failed")
		WriteError(w, http.StatusBadGateway, "Could not reach J-Quants")
		return
	}
	cred.AccessToken = accessToken

	if err := s.app.Storage.CredentialStore().Upsert(r.Context(), cred); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store credential")
		WriteError(w, http.StatusInternalServerError, "Failed to store credential")
		return
	}

	s.logger.Info().
		Str("user_id", uc.UserID).
		Str("plan", string(plan)).
		Msg("J-Quants account linked")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "registered",
		"plan":   plan,
	})
}

type searchRequest struct {
	Keyword string `json:"keyword"`
}

func (s *Server) handleJQuantsSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	var req searchRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Keyword) == "" {
		WriteError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	cred := s.loadCredential(w, r, uc.UserID)
	if cred == nil {
		return
	}

	summaries, err := s.app.Stocks.SearchAndSummarize(r.Context(), cred, req.Keyword)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(summaries),
		"stocks": summaries,
	})
}
