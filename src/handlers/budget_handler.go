package handlers

import (
	"net/http"
	"time"

	"fintrack-server/src/derive"
	"fintrack-server/src/logger"
	"fintrack-server/src/models"
	"fintrack-server/src/store"
	"fintrack-server/src/util"

	"github.com/go-chi/chi/v5"
)

const msgDuplicateBudget = "a budget for this category already exists"

func GetBudgets(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		budgets, err := st.Budgets().List(r.Context(), userID)
		if err != nil {
			failed(w, r, err, models.EntityBudgets, logger.OpList, "budget")
			return
		}
		util.WriteJSON(w, http.StatusOK, budgets)
	}
}

func GetBudgetProgress(st store.Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		snap, err := loadSnapshot(r.Context(), st, userID, true)
		if err != nil {
			failed(w, r, err, models.EntityBudgets, logger.OpList, "budget")
			return
		}
		util.WriteJSON(w, http.StatusOK, derive.BudgetsWithProgress(now(), snap.budgets, snap.categories, snap.transactions))
	}
}

// GetAvailableCategories lists the categories that have no budget yet.
func GetAvailableCategories(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		snap, err := loadSnapshot(r.Context(), st, userID, true)
		if err != nil {
			failed(w, r, err, models.EntityBudgets, logger.OpList, "budget")
			return
		}
		util.WriteJSON(w, http.StatusOK, derive.AvailableCategories(snap.categories, snap.budgets))
	}
}

func CreateBudget(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := budgetFromRequest(w, r)
		if !ok {
			return
		}
		b.ID = ""
		if !budgetSlotFree(w, r, st, b) {
			return
		}
		created, err := st.Budgets().Create(r.Context(), b)
		if err != nil {
			failed(w, r, err, models.EntityBudgets, logger.OpCreate, "budget")
			return
		}
		logger.FromContext(r.Context()).Info("budget created", logger.FieldRecordID, created.ID)
		util.WriteJSON(w, http.StatusCreated, created)
	}
}

func UpdateBudget(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := budgetFromRequest(w, r)
		if !ok {
			return
		}
		b.ID = chi.URLParam(r, "id")
		if !budgetSlotFree(w, r, st, b) {
			return
		}
		updated, err := st.Budgets().Update(r.Context(), b)
		if err != nil {
			failed(w, r, err, models.EntityBudgets, logger.OpUpdate, "budget")
			return
		}
		util.WriteJSON(w, http.StatusOK, updated)
	}
}

func DeleteBudget(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		if err := st.Budgets().Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
			failed(w, r, err, models.EntityBudgets, logger.OpDelete, "budget")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func budgetFromRequest(w http.ResponseWriter, r *http.Request) (models.Budget, bool) {
	var b models.Budget
	userID, ok := scopedUser(w, r)
	if !ok || !decodeBody(w, r, &b) || !claimOwner(w, r, userID, b.UserID) {
		return b, false
	}
	b.UserID = userID
	b.Normalize()
	if err := b.Validate(); err != nil {
		failed(w, r, err, models.EntityBudgets, logger.OpCreate, "budget")
		return b, false
	}
	return b, true
}

// budgetSlotFree requires an existing category with no other budget on it.
func budgetSlotFree(w http.ResponseWriter, r *http.Request, st store.Store, b models.Budget) bool {
	snap, err := loadSnapshot(r.Context(), st, b.UserID, true)
	if err != nil {
		failed(w, r, err, models.EntityBudgets, logger.OpList, "budget")
		return false
	}
	known := false
	for _, c := range snap.categories {
		if c.ID == b.CategoryID {
			known = true
			break
		}
	}
	if !known {
		util.WriteError(w, http.StatusUnprocessableEntity, "category does not exist")
		return false
	}
	if derive.HasBudget(snap.budgets, b.CategoryID, b.ID) {
		util.WriteError(w, http.StatusConflict, msgDuplicateBudget)
		return false
	}
	return true
}
