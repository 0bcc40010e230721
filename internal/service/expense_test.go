package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodpos/internal/model"
)

var expenseRowColumns = []string{"id", "description", "amount", "category", "expense_date", "created_by", "created_at"}

func TestExpenses_CreateDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewExpenseService(db, quietLog)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO expenses`).
		WithArgs("Milk", 12.4, "other", sqlmock.AnyArg(), "u1").
		WillReturnRows(sqlmock.NewRows(expenseRowColumns).AddRow("e1", "Milk", 12.4, "other", truncateDay(now), "u1", now))

	e, err := svc.Create(context.Background(), ExpenseInput{Description: " Milk ", Amount: 12.4, CreatedBy: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "e1", e.ID)
	require.NotNil(t, e.CreatedBy)
	assert.Equal(t, "u1", *e.CreatedBy)
}

func TestExpenses_CreateValidation(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewExpenseService(db, quietLog)

	_, err := svc.Create(context.Background(), ExpenseInput{Description: "Gas", Amount: 0})
	assert.True(t, IsValidation(err))

	_, err = svc.Create(context.Background(), ExpenseInput{Amount: 3})
	assert.True(t, IsValidation(err))
}

func TestExpenses_ListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewExpenseService(db, quietLog)
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM expenses WHERE expense_date >= \$1 AND category = \$2 ORDER BY`).
		WithArgs(from, "rent").
		WillReturnRows(sqlmock.NewRows(expenseRowColumns))

	expenses, err := svc.List(context.Background(), ExpenseFilter{From: &from, Category: "Rent"})
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestTotalsByCategory(t *testing.T) {
	totals := TotalsByCategory([]model.Expense{
		{Category: "supplies", Amount: 10.1},
		{Category: "supplies", Amount: 0.2},
		{Category: "rent", Amount: 500},
	})
	assert.Equal(t, map[string]float64{"supplies": 10.3, "rent": 500}, totals)
}
