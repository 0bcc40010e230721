package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
)

const dayLayout = "2006-01-02"

type MenuSales struct {
	MenuID  string  `json:"menu_id"`
	Name    string  `json:"name"`
	Qty     int     `json:"qty"`
	Revenue float64 `json:"revenue"`
}

type DailyPoint struct {
	Date     string  `json:"date"`
	Revenue  float64 `json:"revenue"`
	Orders   int     `json:"orders"`
	Expenses float64 `json:"expenses"`
}

type Report struct {
	From               time.Time          `json:"from"`
	To                 time.Time          `json:"to"`
	Revenue            float64            `json:"revenue"`
	OrderCount         int                `json:"order_count"`
	AverageOrderValue  float64            `json:"average_order_value"`
	ItemsSold          int                `json:"items_sold"`
	UnpaidCount        int                `json:"unpaid_count"`
	CancelledCount     int                `json:"cancelled_count"`
	ByPaymentMethod    map[string]float64 `json:"by_payment_method"`
	TopMenus           []MenuSales        `json:"top_menus"`
	ExpenseTotal       float64            `json:"expense_total"`
	ExpensesByCategory map[string]float64 `json:"expenses_by_category"`
	NetProfit          float64            `json:"net_profit"`
	Daily              []DailyPoint       `json:"daily"`
}

const topMenuLimit = 10

// BuildReport aggregates orders (with items) and expenses over [from, to).
// Revenue counts paid orders that were not cancelled.
func BuildReport(orders []model.Order, expenses []model.Expense, from, to time.Time) Report {
	r := Report{
		From:               from,
		To:                 to,
		ByPaymentMethod:    map[string]float64{},
		ExpensesByCategory: TotalsByCategory(expenses),
		TopMenus:           []MenuSales{},
		Daily:              []DailyPoint{},
	}

	loc := from.Location()
	daily := make(map[string]*DailyPoint)
	for d := truncateDay(from); d.Before(to); d = d.AddDate(0, 0, 1) {
		p := &DailyPoint{Date: d.Format(dayLayout)}
		daily[p.Date] = p
	}

	menus := make(map[string]*MenuSales)
	for _, o := range orders {
		if o.Status == string(OrderCancelled) {
			r.CancelledCount++
			continue
		}
		if o.PaymentStatus != "paid" {
			r.UnpaidCount++
			continue
		}

		r.OrderCount++
		r.Revenue += o.Total
		r.ByPaymentMethod[o.PaymentMethod] = roundMoney(r.ByPaymentMethod[o.PaymentMethod] + o.Total)

		if p, ok := daily[o.CreatedAt.In(loc).Format(dayLayout)]; ok {
			p.Revenue = roundMoney(p.Revenue + o.Total)
			p.Orders++
		}

		for _, it := range o.Items {
			r.ItemsSold += it.Qty
			m, ok := menus[it.MenuID]
			if !ok {
				m = &MenuSales{MenuID: it.MenuID, Name: it.MenuName}
				menus[it.MenuID] = m
			}
			m.Qty += it.Qty
			m.Revenue = roundMoney(m.Revenue + it.Subtotal)
		}
	}

	for _, e := range expenses {
		r.ExpenseTotal += e.Amount
		if p, ok := daily[e.ExpenseDate.Format(dayLayout)]; ok {
			p.Expenses = roundMoney(p.Expenses + e.Amount)
		}
	}

	r.Revenue = roundMoney(r.Revenue)
	r.ExpenseTotal = roundMoney(r.ExpenseTotal)
	r.NetProfit = roundMoney(r.Revenue - r.ExpenseTotal)
	if r.OrderCount > 0 {
		r.AverageOrderValue = roundMoney(r.Revenue / float64(r.OrderCount))
	}

	for _, m := range menus {
		r.TopMenus = append(r.TopMenus, *m)
	}
	sort.Slice(r.TopMenus, func(i, j int) bool {
		a, b := r.TopMenus[i], r.TopMenus[j]
		if a.Qty != b.Qty {
			return a.Qty > b.Qty
		}
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Name < b.Name
	})
	if len(r.TopMenus) > topMenuLimit {
		r.TopMenus = r.TopMenus[:topMenuLimit]
	}

	for d := truncateDay(from); d.Before(to); d = d.AddDate(0, 0, 1) {
		r.Daily = append(r.Daily, *daily[d.Format(dayLayout)])
	}

	return r
}

type ReportService struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

func NewReportService(db *sqlx.DB, log logrus.FieldLogger) *ReportService {
	return &ReportService{db: db, log: log}
}

// Sales builds the report for [from, to).
func (s *ReportService) Sales(ctx context.Context, from, to time.Time) (*Report, error) {
	if !from.Before(to) {
		return nil, newValidationError("from must be before to")
	}
	if to.Sub(from) > 366*24*time.Hour {
		return nil, newValidationError("report range is limited to one year")
	}

	orders := []model.Order{}
	err := s.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	if err := attachItems(ctx, s.db, orders); err != nil {
		return nil, err
	}

	// expense_date is a DATE: compare calendar days, counting a partial last day.
	lastDay := truncateDay(to)
	if lastDay.Before(to) {
		lastDay = lastDay.AddDate(0, 0, 1)
	}
	expenses := []model.Expense{}
	err = s.db.SelectContext(ctx, &expenses,
		`SELECT `+expenseColumns+` FROM expenses WHERE expense_date >= $1 AND expense_date < $2`,
		truncateDay(from).Format(dayLayout), lastDay.Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}

	report := BuildReport(orders, expenses, from, to)
	return &report, nil
}

// Close stores the report of the given day, replacing an earlier snapshot.
func (s *ReportService) Close(ctx context.Context, day time.Time) (*model.DailyClosing, error) {
	from := truncateDay(day)
	report, err := s.Sales(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	doc, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	closing := model.DailyClosing{
		Day:       from,
		Revenue:   report.Revenue,
		Orders:    report.OrderCount,
		Expenses:  report.ExpenseTotal,
		NetProfit: report.NetProfit,
		Report:    model.RawJSON(doc),
	}
	err = s.db.QueryRowxContext(ctx, `
		INSERT INTO daily_closings (day, revenue, orders, expenses, net_profit, report)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (day) DO UPDATE
		SET revenue = EXCLUDED.revenue, orders = EXCLUDED.orders, expenses = EXCLUDED.expenses,
			net_profit = EXCLUDED.net_profit, report = EXCLUDED.report, closed_at = NOW()
		RETURNING closed_at
	`, closing.Day, closing.Revenue, closing.Orders, closing.Expenses, closing.NetProfit, closing.Report).Scan(&closing.ClosedAt)
	if err != nil {
		return nil, fmt.Errorf("store closing: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"day":     from.Format(dayLayout),
		"revenue": closing.Revenue,
		"orders":  closing.Orders,
	}).Info("day closed")
	return &closing, nil
}

func (s *ReportService) ListClosings(ctx context.Context, limit int) ([]model.DailyClosing, error) {
	if limit <= 0 || limit > 366 {
		limit = 30
	}

	closings := []model.DailyClosing{}
	err := s.db.SelectContext(ctx, &closings, `
		SELECT day, revenue, orders, expenses, net_profit, report, closed_at
		FROM daily_closings
		ORDER BY day DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query closings: %w", err)
	}
	return closings, nil
}
