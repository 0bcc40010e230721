package handler

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
	"foodpos/internal/mw"
	"foodpos/internal/service"
)

type ExpenseStore interface {
	Create(ctx context.Context, in service.ExpenseInput) (*model.Expense, error)
	Update(ctx context.Context, id string, in service.ExpenseInput) (*model.Expense, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f service.ExpenseFilter) ([]model.Expense, error)
}

type expenseList struct {
	Expenses   []model.Expense    `json:"expenses"`
	Total      float64            `json:"total"`
	ByCategory map[string]float64 `json:"by_category"`
}

func ListExpensesHandler(expenses ExpenseStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := queryDate(r, "from", time.Local)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		to, err := queryDate(r, "to", time.Local)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		if to != nil {
			next := to.AddDate(0, 0, 1)
			to = &next
		}

		list, err := expenses.List(r.Context(), service.ExpenseFilter{
			From:     from,
			To:       to,
			Category: r.URL.Query().Get("category"),
		})
		if err != nil {
			writeError(w, log, err)
			return
		}

		byCategory := service.TotalsByCategory(list)
		var total float64
		for _, v := range byCategory {
			total += v
		}
		writeJSON(w, http.StatusOK, expenseList{
			Expenses:   list,
			Total:      math.Round(total*100) / 100,
			ByCategory: byCategory,
		})
	}
}

func CreateExpenseHandler(expenses ExpenseStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.ExpenseInput
		if !decodeJSON(w, r, &req) {
			return
		}
		req.CreatedBy = mw.UserID(r.Context())

		expense, err := expenses.Create(r.Context(), req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, expense)
	}
}

func UpdateExpenseHandler(expenses ExpenseStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req service.ExpenseInput
		if !decodeJSON(w, r, &req) {
			return
		}

		expense, err := expenses.Update(r.Context(), id, req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, expense)
	}
}

func DeleteExpenseHandler(expenses ExpenseStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := expenses.Delete(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
