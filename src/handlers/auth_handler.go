package handlers

import (
	"errors"
	"net/http"
	"strings"

	"fintrack-server/src/auth"
	"fintrack-server/src/logger"
	"fintrack-server/src/middleware"
	"fintrack-server/src/models"
	"fintrack-server/src/store"
	"fintrack-server/src/util"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgDuplicateEmail     = "User with this email already exists"
	msgInvalidCredentials = "Invalid email or password"
)

func Register(st store.Store, tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context()).With(logger.FieldOperation, logger.OpSignup)

		var req models.Credentials
		if !decodeBody(w, r, &req) {
			return
		}
		req.Email = models.NormalizeEmail(req.Email)
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			req.Name, _, _ = strings.Cut(req.Email, "@")
		}

		if !util.ValidateEmail(req.Email) {
			util.WriteError(w, http.StatusUnprocessableEntity, "invalid email format")
			return
		}
		if !util.ValidateName(req.Name) {
			util.WriteError(w, http.StatusUnprocessableEntity, "name must be between 1 and 60 characters")
			return
		}
		if !util.ValidatePassword(req.Password) {
			util.WriteError(w, http.StatusUnprocessableEntity, "password must be at least 8 characters with uppercase, lowercase, digit, and special character")
			return
		}

		if _, err := st.Users().GetByEmail(r.Context(), req.Email); err == nil {
			log.Warn("registration rejected, email in use")
			util.WriteError(w, http.StatusConflict, msgDuplicateEmail)
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			failed(w, r, err, models.EntityUsers, logger.OpSignup, "user")
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("failed to hash password", logger.FieldError, err)
			util.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}

		rec, err := st.Users().Create(r.Context(), models.UserRecord{
			User:         models.User{Email: req.Email, Name: req.Name},
			PasswordHash: string(hashedPassword),
		})
		if errors.Is(err, store.ErrConflict) {
			util.WriteError(w, http.StatusConflict, msgDuplicateEmail)
			return
		}
		if err != nil {
			failed(w, r, err, models.EntityUsers, logger.OpSignup, "user")
			return
		}

		token, err := tokens.Issue(rec.User)
		if err != nil {
			log.Error("failed to issue token", logger.FieldError, err)
			util.WriteError(w, http.StatusInternalServerError, "Error generating token")
			return
		}

		log.Info("user registered", logger.FieldUserID, rec.ID)
		util.WriteJSON(w, http.StatusCreated, models.AuthResponse{User: rec.User, Token: token})
	}
}

func Login(st store.Store, tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context()).With(logger.FieldOperation, logger.OpLogin)

		var credentials models.Credentials
		if !decodeBody(w, r, &credentials) {
			return
		}

		rec, err := st.Users().GetByEmail(r.Context(), credentials.Email)
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("login for unknown email", logger.FieldClientIP, r.RemoteAddr)
			util.WriteError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		if err != nil {
			failed(w, r, err, models.EntityUsers, logger.OpLogin, "user")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(credentials.Password)); err != nil {
			log.Warn("invalid password attempt", logger.FieldUserID, rec.ID, logger.FieldClientIP, r.RemoteAddr)
			util.WriteError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}

		token, err := tokens.Issue(rec.User)
		if err != nil {
			log.Error("failed to issue token", logger.FieldError, err)
			util.WriteError(w, http.StatusInternalServerError, "Error generating token")
			return
		}

		log.Info("user logged in", logger.FieldUserID, rec.ID)
		util.WriteJSON(w, http.StatusOK, models.AuthResponse{User: rec.User, Token: token})
	}
}

func Logout(tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			util.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := tokens.Revoke(claims); err != nil {
			logger.FromContext(r.Context()).Error("failed to revoke token",
				logger.FieldOperation, logger.OpLogout, logger.FieldError, err)
			util.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
