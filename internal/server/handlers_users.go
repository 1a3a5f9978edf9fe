package server

import (
	"net/http"
	"strings"
)

func (s *Server) routeUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPatch:
		s.handleUserRename(w, r)
	case http.MethodDelete:
		s.handleUserDelete(w, r)
	default:
		RequireMethod(w, r, http.MethodPatch, http.MethodDelete)
	}
}

type renameRequest struct {
	UserName string `json:"user_name"`
}

func (s *Server) handleUserRename(w http.ResponseWriter, r *http.Request) {
	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	var req renameRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.UserName = strings.TrimSpace(req.UserName)
	if req.UserName == "" {
		WriteError(w, http.StatusBadRequest, "user_name is required")
		return
	}

	user, err := s.app.Storage.UserStore().GetUser(r.Context(), uc.UserID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	user.UserName = req.UserName
	if err := s.app.Storage.UserStore().SaveUser(r.Context(), user); err != nil {
		s.logger.Error().Err(err).Msg("Failed to rename user")
		WriteError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"user": userResponse(user)})
}

// handleUserDelete removes the account together with its credential and
// favorites. The stores are independent; a partial failure is logged and
// surfaced as a 500 so the client can retry.
func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	uc := s.requireUser(w, r)
	if uc == nil {
		return
	}

	ctx := r.Context()

	if err := s.app.Storage.CredentialStore().Delete(ctx, uc.UserID); err != nil {
		s.logger.Error().Err(err).Str("user_id", uc.UserID).Msg("Failed to delete credential")
		WriteError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	favs, err := s.app.Favorites.List(ctx, uc.UserID)
	if err == nil {
		for _, fav := range favs {
			if err := s.app.Favorites.Remove(ctx, uc.UserID, fav.Code); err != nil {
				s.logger.Warn().Err(err).Str("code", fav.Code).Msg("Failed to delete favorite")
			}
		}
	}

	if err := s.app.Storage.UserStore().DeleteUser(ctx, uc.UserID); err != nil {
		s.logger.Error().Err(err).Str("user_id", uc.UserID).Msg("Failed to delete user")
		WriteError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	s.clearSessionCookie(w)
	s.logger.Info().Str("user_id", uc.UserID).Msg("Account deleted")

	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "deleted"})
}
