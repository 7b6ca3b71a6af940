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

const msgDuplicateCategory = "category with this name already exists"

func GetCategories(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		cats, err := st.Categories().List(r.Context(), userID)
		if err != nil {
			failed(w, r, err, models.EntityCategories, logger.OpList, "category")
			return
		}
		util.WriteJSON(w, http.StatusOK, cats)
	}
}

// GetCategoriesWithSpending lists categories with this month's expense total.
func GetCategoriesWithSpending(st store.Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		snap, err := loadSnapshot(r.Context(), st, userID, false)
		if err != nil {
			failed(w, r, err, models.EntityCategories, logger.OpList, "category")
			return
		}
		util.WriteJSON(w, http.StatusOK, derive.CategoriesWithSpending(now(), snap.categories, snap.transactions))
	}
}

func CreateCategory(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, ok := categoryFromRequest(w, r)
		if !ok {
			return
		}
		cat.ID = ""
		if !categoryNameFree(w, r, st, cat) {
			return
		}
		created, err := st.Categories().Create(r.Context(), cat)
		if err != nil {
			failed(w, r, err, models.EntityCategories, logger.OpCreate, "category")
			return
		}
		logger.FromContext(r.Context()).Info("category created", logger.FieldRecordID, created.ID)
		util.WriteJSON(w, http.StatusCreated, created)
	}
}

func UpdateCategory(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, ok := categoryFromRequest(w, r)
		if !ok {
			return
		}
		cat.ID = chi.URLParam(r, "id")
		if !categoryNameFree(w, r, st, cat) {
			return
		}
		updated, err := st.Categories().Update(r.Context(), cat)
		if err != nil {
			failed(w, r, err, models.EntityCategories, logger.OpUpdate, "category")
			return
		}
		util.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteCategory leaves transactions pointing at the category in place; they
// read as Uncategorized afterwards.
func DeleteCategory(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		if err := st.Categories().Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
			failed(w, r, err, models.EntityCategories, logger.OpDelete, "category")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func categoryFromRequest(w http.ResponseWriter, r *http.Request) (models.Category, bool) {
	var cat models.Category
	userID, ok := scopedUser(w, r)
	if !ok || !decodeBody(w, r, &cat) || !claimOwner(w, r, userID, cat.UserID) {
		return cat, false
	}
	cat.UserID = userID
	cat.Normalize()
	if err := cat.Validate(); err != nil {
		failed(w, r, err, models.EntityCategories, logger.OpCreate, "category")
		return cat, false
	}
	return cat, true
}

func categoryNameFree(w http.ResponseWriter, r *http.Request, st store.Store, cat models.Category) bool {
	existing, err := st.Categories().List(r.Context(), cat.UserID)
	if err != nil {
		failed(w, r, err, models.EntityCategories, logger.OpList, "category")
		return false
	}
	for _, c := range existing {
		if c.ID != cat.ID && models.SameName(c.Name, cat.Name) {
			util.WriteError(w, http.StatusConflict, msgDuplicateCategory)
			return false
		}
	}
	return true
}
