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

func paidOrder(id, method string, total float64, at time.Time, items ...model.OrderItem) model.Order {
	return model.Order{
		ID:            id,
		Total:         total,
		Status:        string(OrderCompleted),
		PaymentMethod: method,
		PaymentStatus: "paid",
		CreatedAt:     at,
		Items:         items,
	}
}

func TestBuildReport(t *testing.T) {
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 3)

	orders := []model.Order{
		paidOrder("o1", "cash", 30, from.Add(9*time.Hour),
			model.OrderItem{MenuID: "m1", MenuName: "Latte", Qty: 2, Subtotal: 20},
			model.OrderItem{MenuID: "m2", MenuName: "Bagel", Qty: 1, Subtotal: 10}),
		paidOrder("o2", "qris", 15.5, from.Add(33*time.Hour),
			model.OrderItem{MenuID: "m2", MenuName: "Bagel", Qty: 1, Subtotal: 15.5}),
		{ID: "o3", Total: 99, Status: string(OrderCancelled), PaymentStatus: "paid", CreatedAt: from},
		{ID: "o4", Total: 12, Status: string(OrderPending), PaymentStatus: "unpaid", CreatedAt: from},
	}
	expenses := []model.Expense{
		{Amount: 5, Category: "supplies", ExpenseDate: from},
		{Amount: 2.25, Category: "rent", ExpenseDate: from.AddDate(0, 0, 2)},
	}

	r := BuildReport(orders, expenses, from, to)

	assert.Equal(t, 45.5, r.Revenue)
	assert.Equal(t, 2, r.OrderCount)
	assert.Equal(t, 22.75, r.AverageOrderValue)
	assert.Equal(t, 4, r.ItemsSold)
	assert.Equal(t, 1, r.CancelledCount)
	assert.Equal(t, 1, r.UnpaidCount)
	assert.Equal(t, map[string]float64{"cash": 30, "qris": 15.5}, r.ByPaymentMethod)
	assert.Equal(t, 7.25, r.ExpenseTotal)
	assert.Equal(t, 38.25, r.NetProfit)

	require.Len(t, r.TopMenus, 2)
	assert.Equal(t, "m2", r.TopMenus[0].MenuID)
	assert.Equal(t, 25.5, r.TopMenus[0].Revenue)
	assert.Equal(t, "m1", r.TopMenus[1].MenuID)

	require.Len(t, r.Daily, 3)
	assert.Equal(t, DailyPoint{Date: "2026-10-01", Revenue: 30, Orders: 1, Expenses: 5}, r.Daily[0])
	assert.Equal(t, DailyPoint{Date: "2026-10-02", Revenue: 15.5, Orders: 1}, r.Daily[1])
	assert.Equal(t, DailyPoint{Date: "2026-10-03", Expenses: 2.25}, r.Daily[2])
}

func TestBuildReport_Empty(t *testing.T) {
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	r := BuildReport(nil, nil, from, from.AddDate(0, 0, 1))

	assert.Zero(t, r.Revenue)
	assert.Zero(t, r.AverageOrderValue)
	assert.Empty(t, r.TopMenus)
	assert.Len(t, r.Daily, 1)
}

func TestReports_SalesRejectsBadRange(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewReportService(db, quietLog)
	now := time.Now()

	_, err := svc.Sales(context.Background(), now, now)
	assert.True(t, IsValidation(err))

	_, err = svc.Sales(context.Background(), now.AddDate(-2, 0, 0), now)
	assert.True(t, IsValidation(err))
}

func TestReports_Close(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db, quietLog)
	day := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	closedAt := day.Add(23 * time.Hour)

	mock.ExpectQuery(`FROM orders WHERE created_at >= \$1 AND created_at < \$2`).
		WithArgs(day, day.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows(orderRowColumns))
	mock.ExpectQuery(`FROM expenses WHERE expense_date >= \$1`).
		WithArgs("2026-10-05", "2026-10-06").
		WillReturnRows(sqlmock.NewRows(expenseRowColumns).AddRow("e1", "Ice", 4.5, "supplies", day, nil, day))
	mock.ExpectQuery(`INSERT INTO daily_closings`).
		WithArgs(day, 0.0, 0, 4.5, -4.5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"closed_at"}).AddRow(closedAt))

	closing, err := svc.Close(context.Background(), day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, -4.5, closing.NetProfit)
	assert.Equal(t, closedAt, closing.ClosedAt)
	assert.Contains(t, string(closing.Report), `"expense_total":4.5`)
}

func TestReports_ListClosings(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db, quietLog)
	day := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM daily_closings ORDER BY day DESC LIMIT \$1`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"day", "revenue", "orders", "expenses", "net_profit", "report", "closed_at"}).
			AddRow(day, 100.0, 4, 20.0, 80.0, []byte(`{"revenue":100}`), day))

	closings, err := svc.ListClosings(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, closings, 1)
	assert.Equal(t, 80.0, closings[0].NetProfit)
	assert.JSONEq(t, `{"revenue":100}`, string(closings[0].Report))
}

func TestReports_SalesFiltersExpensesByCalendarDay(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db, quietLog)
	from := time.Date(2026, 10, 5, 9, 30, 0, 0, time.UTC)
	to := time.Date(2026, 10, 6, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM orders WHERE created_at >= \$1 AND created_at < \$2`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(orderRowColumns))
	mock.ExpectQuery(`FROM expenses WHERE expense_date >= \$1 AND expense_date < \$2`).
		WithArgs("2026-10-05", "2026-10-07").
		WillReturnRows(sqlmock.NewRows(expenseRowColumns).
			AddRow("e1", "Rent", 100.0, "rent", time.Date(2026, 10, 6, 0, 0, 0, 0, time.UTC), nil, from))

	r, err := svc.Sales(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.ExpenseTotal)
	require.Len(t, r.Daily, 2)
	assert.Equal(t, 100.0, r.Daily[1].Expenses)
}
