package handlers

import (
	"net/http"

	"fintrack-server/src/logger"
	"fintrack-server/src/models"
	"fintrack-server/src/store"
	"fintrack-server/src/util"

	"github.com/go-chi/chi/v5"
)

func GetTransactions(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		txs, err := st.Transactions().List(r.Context(), userID)
		if err != nil {
			failed(w, r, err, models.EntityTransactions, logger.OpList, "transaction")
			return
		}
		util.WriteJSON(w, http.StatusOK, txs)
	}
}

func CreateTransaction(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, ok := transactionFromRequest(w, r)
		if !ok {
			return
		}
		tx.ID = ""
		created, err := st.Transactions().Create(r.Context(), tx)
		if err != nil {
			failed(w, r, err, models.EntityTransactions, logger.OpCreate, "transaction")
			return
		}
		logger.FromContext(r.Context()).Info("transaction created", logger.FieldRecordID, created.ID)
		util.WriteJSON(w, http.StatusCreated, created)
	}
}

func UpdateTransaction(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, ok := transactionFromRequest(w, r)
		if !ok {
			return
		}
		tx.ID = chi.URLParam(r, "id")
		updated, err := st.Transactions().Update(r.Context(), tx)
		if err != nil {
			failed(w, r, err, models.EntityTransactions, logger.OpUpdate, "transaction")
			return
		}
		util.WriteJSON(w, http.StatusOK, updated)
	}
}

func DeleteTransaction(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := scopedUser(w, r)
		if !ok {
			return
		}
		if err := st.Transactions().Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
			failed(w, r, err, models.EntityTransactions, logger.OpDelete, "transaction")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func transactionFromRequest(w http.ResponseWriter, r *http.Request) (models.Transaction, bool) {
	var tx models.Transaction
	userID, ok := scopedUser(w, r)
	if !ok || !decodeBody(w, r, &tx) || !claimOwner(w, r, userID, tx.UserID) {
		return tx, false
	}
	tx.UserID = userID
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		failed(w, r, err, models.EntityTransactions, logger.OpCreate, "transaction")
		return tx, false
	}
	return tx, true
}
