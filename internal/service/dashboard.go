package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"foodpos/internal/model"
)

const recentOrderLimit = 5

type Dashboard struct {
	TodayRevenue      float64       `json:"today_revenue"`
	TodayOrders       int           `json:"today_orders"`
	ActiveOrders      int           `json:"active_orders"`
	LowStockThreshold int           `json:"low_stock_threshold"`
	LowStock          []model.Menu  `json:"low_stock"`
	RecentOrders      []model.Order `json:"recent_orders"`
}

type DashboardService struct {
	db       *sqlx.DB
	settings *SettingsService
}

func NewDashboardService(db *sqlx.DB, settings *SettingsService) *DashboardService {
	return &DashboardService{db: db, settings: settings}
}

// Summary collects the dashboard figures for the day containing now.
func (s *DashboardService) Summary(ctx context.Context, now time.Time) (*Dashboard, error) {
	var d Dashboard
	dayStart := truncateDay(now)

	g, ctx := errgroup.WithContext(ctx)

	// Today's takings
	g.Go(func() error {
		var row struct {
			Revenue float64 `db:"revenue"`
			Orders  int     `db:"orders"`
		}
		err := s.db.GetContext(ctx, &row, `
			SELECT COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders
			FROM orders
			WHERE created_at >= $1 AND status <> 'cancelled' AND payment_status = 'paid'
		`, dayStart)
		if err != nil {
			return fmt.Errorf("today's revenue: %w", err)
		}
		d.TodayRevenue, d.TodayOrders = roundMoney(row.Revenue), row.Orders
		return nil
	})

	// Kitchen load
	g.Go(func() error {
		err := s.db.GetContext(ctx, &d.ActiveOrders,
			`SELECT COUNT(*) FROM orders WHERE status IN ('pending', 'preparing', 'ready')`)
		if err != nil {
			return fmt.Errorf("active orders: %w", err)
		}
		return nil
	})

	// Low stock
	g.Go(func() error {
		threshold, err := s.settings.LowStockThreshold(ctx)
		if err != nil {
			return err
		}
		d.LowStockThreshold = threshold

		d.LowStock = []model.Menu{}
		err = s.db.SelectContext(ctx, &d.LowStock,
			`SELECT `+menuColumns+` `+menuFrom+` WHERE m.is_active AND m.stock <= $1 ORDER BY m.stock, m.name`, threshold)
		if err != nil {
			return fmt.Errorf("low stock menus: %w", err)
		}
		return nil
	})

	// Recent orders
	g.Go(func() error {
		d.RecentOrders = []model.Order{}
		err := s.db.SelectContext(ctx, &d.RecentOrders,
			`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, recentOrderLimit)
		if err != nil {
			return fmt.Errorf("recent orders: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
