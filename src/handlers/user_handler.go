package handlers

import (
	"errors"
	"net/http"
	"strings"

	"fintrack-server/src/auth"
	"fintrack-server/src/logger"
	"fintrack-server/src/models"
	"fintrack-server/src/store"
	"fintrack-server/src/util"

	"github.com/go-chi/chi/v5"
)

// ownUser rejects any path id other than the caller's.
func ownUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := scopedUser(w, r)
	if !ok {
		return "", false
	}
	if id := chi.URLParam(r, "id"); id != "" && id != userID {
		util.WriteError(w, http.StatusForbidden, "forbidden")
		return "", false
	}
	return userID, true
}

// GetUsers lists the caller as a one-element collection.
func GetUsers(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		rec, err := st.Users().Get(r.Context(), userID)
		if err != nil {
			failed(w, r, err, models.EntityUsers, logger.OpList, "user")
			return
		}
		util.WriteJSON(w, http.StatusOK, []models.User{rec.User})
	}
}

func GetUser(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := ownUser(w, r)
		if !ok {
			return
		}
		rec, err := st.Users().Get(r.Context(), userID)
		if err != nil {
			failed(w, r, err, models.EntityUsers, logger.OpList, "user")
			return
		}
		util.WriteJSON(w, http.StatusOK, rec.User)
	}
}

func UpdateUser(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := ownUser(w, r)
		if !ok {
			return
		}
		var req models.User
		if !decodeBody(w, r, &req) {
			return
		}
		req.ID = userID
		req.Email = models.NormalizeEmail(req.Email)
		req.Name = strings.TrimSpace(req.Name)

		if !util.ValidateEmail(req.Email) {
			util.WriteError(w, http.StatusUnprocessableEntity, "invalid email format")
			return
		}
		if !util.ValidateName(req.Name) {
			util.WriteError(w, http.StatusUnprocessableEntity, "name must be between 1 and 60 characters")
			return
		}

		rec, err := st.Users().Update(r.Context(), req)
		if errors.Is(err, store.ErrConflict) {
			util.WriteError(w, http.StatusConflict, msgDuplicateEmail)
			return
		}
		if err != nil {
			failed(w, r, err, models.EntityUsers, logger.OpUpdate, "user")
			return
		}
		util.WriteJSON(w, http.StatusOK, rec.User)
	}
}

// DeleteUser removes the account with everything it owns and revokes every
// token issued to it.
func DeleteUser(st store.Store, tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := ownUser(w, r)
		if !ok {
			return
		}
		if err := st.Users().Delete(r.Context(), userID); err != nil {
			failed(w, r, err, models.EntityUsers, logger.OpDelete, "user")
			return
		}
		if err := tokens.RevokeUser(userID); err != nil {
			logger.FromContext(r.Context()).Error("failed to revoke tokens of deleted user", logger.FieldError, err)
		}
		logger.FromContext(r.Context()).Info("user deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}
