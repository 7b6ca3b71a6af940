package handlers

import (
	"context"
	"net/http"

	"fintrack-server/src/logger"
	"fintrack-server/src/middleware"
	"fintrack-server/src/models"
	"fintrack-server/src/store"
	"fintrack-server/src/util"

	"golang.org/x/sync/errgroup"
)

// scopedUser returns the caller and rejects a userId query naming anyone else.
func scopedUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		util.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	if q := r.URL.Query().Get("userId"); q != "" && q != userID {
		logger.FromContext(r.Context()).Warn("foreign user id in query", "requested", q)
		util.WriteError(w, http.StatusForbidden, "forbidden")
		return "", false
	}
	return userID, true
}

// claimOwner rejects a body that names another owner.
func claimOwner(w http.ResponseWriter, r *http.Request, userID, bodyUserID string) bool {
	if bodyUserID != "" && bodyUserID != userID {
		logger.FromContext(r.Context()).Warn("foreign user id in body", "requested", bodyUserID)
		util.WriteError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := util.DecodeJSON(w, r, v); err != nil {
		logger.FromContext(r.Context()).Warn("failed to decode request body", logger.FieldError, err)
		util.WriteError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

func failed(w http.ResponseWriter, r *http.Request, err error, entity models.Entity, op, what string) {
	status, msg := util.StatusFor(err, what)
	log := logger.FromContext(r.Context()).With(
		logger.FieldOperation, op,
		logger.FieldEntity, entity,
		logger.FieldError, err,
	)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "operation failed")
	} else {
		log.WarnContext(r.Context(), "operation rejected")
	}
	util.WriteError(w, status, msg)
}

type snapshot struct {
	transactions []models.Transaction
	categories   []models.Category
	budgets      []models.Budget
}

// loadSnapshot lists the requested collections for one user concurrently.
func loadSnapshot(ctx context.Context, st store.Store, userID string, withBudgets bool) (snapshot, error) {
	var s snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s.transactions, err = st.Transactions().List(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		s.categories, err = st.Categories().List(ctx, userID)
		return err
	})
	if withBudgets {
		g.Go(func() error {
			var err error
			s.budgets, err = st.Budgets().List(ctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return s, nil
}
