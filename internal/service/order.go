package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"foodpos/internal/metrics"
	"foodpos/internal/model"
)

const orderColumns = `id, customer_name, total, amount_paid, change_amount, status, payment_method,
	payment_status, COALESCE(created_by::text, '') AS created_by, created_at, updated_at`

const itemColumns = `id, order_id, menu_id, menu_name, qty, price_at_order, subtotal, status, note,
	selected_variations, created_at`

type OrderService struct {
	db    *sqlx.DB
	cache MenuCache
	log   logrus.FieldLogger
}

func NewOrderService(db *sqlx.DB, cache MenuCache, log logrus.FieldLogger) *OrderService {
	if cache == nil {
		cache = NoopMenuCache{}
	}
	return &OrderService{db: db, cache: cache, log: log}
}

type OrderFilter struct {
	Status        string
	PaymentStatus string
	From          *time.Time
	To            *time.Time
	Limit         int
}

func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.PaymentStatus != "" {
		conds = append(conds, "payment_status = "+arg(f.PaymentStatus))
	}
	if f.From != nil {
		conds = append(conds, "created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "created_at < "+arg(*f.To))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	orders := []model.Order{}
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	if err := attachItems(ctx, s.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	if err := s.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []model.Order{o}
	if err := attachItems(ctx, s.db, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// KitchenQueue lists open orders oldest first.
func (s *OrderService) KitchenQueue(ctx context.Context) ([]model.Order, error) {
	orders := []model.Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status IN ('pending', 'preparing', 'ready')
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query kitchen queue: %w", err)
	}

	if err := attachItems(ctx, s.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateItemStatus sets one item's status and re-derives the order status.
func (s *OrderService) UpdateItemStatus(ctx context.Context, orderID, itemID string, status ItemStatus) (OrderStatus, error) {
	if !status.Valid() {
		return "", newValidationError(fmt.Sprintf("unknown item status %q", status))
	}

	var derived OrderStatus
	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		current, err := lockOpenOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE order_items SET status = $1 WHERE id = $2 AND order_id = $3`, string(status), itemID, orderID)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		if err := expectRow(res); err != nil {
			return err
		}

		derived, err = recomputeOrderStatus(ctx, tx, orderID, current)
		return err
	})
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"item_id":  itemID,
		"item":     status,
		"order":    derived,
	}).Info("item status updated")
	return derived, nil
}

// UpdateAllItems moves every item of an order to the same status.
func (s *OrderService) UpdateAllItems(ctx context.Context, orderID string, status ItemStatus) (OrderStatus, error) {
	if !status.Valid() {
		return "", newValidationError(fmt.Sprintf("unknown item status %q", status))
	}

	var derived OrderStatus
	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		current, err := lockOpenOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE order_items SET status = $1 WHERE order_id = $2`, string(status), orderID); err != nil {
			return fmt.Errorf("update items: %w", err)
		}

		derived, err = recomputeOrderStatus(ctx, tx, orderID, current)
		return err
	})
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "order": derived}).Info("all items updated")
	return derived, nil
}

// MarkPaid settles an order that was placed with pay-later.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string, method PaymentMethod, amountPaid float64) (*Payment, error) {
	var payment Payment
	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var row struct {
			Total         float64 `db:"total"`
			Status        string  `db:"status"`
			PaymentStatus string  `db:"payment_status"`
		}
		err := tx.GetContext(ctx, &row, `SELECT total, status, payment_status FROM orders WHERE id = $1 FOR UPDATE`, orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if row.Status == string(OrderCancelled) {
			return ErrOrderClosed
		}
		if row.PaymentStatus == "paid" {
			return ErrAlreadyPaid
		}

		payment, err = ComputePayment(row.Total, method, amountPaid)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE orders
			SET payment_method = $1, payment_status = 'paid', amount_paid = $2, change_amount = $3, updated_at = NOW()
			WHERE id = $4
		`, string(payment.Method), payment.AmountPaid, payment.Change, orderID)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPayment(string(payment.Method), payment.Total)
	s.log.WithFields(logrus.Fields{"order_id": orderID, "method": payment.Method}).Info("order paid")
	return &payment, nil
}

// Cancel closes an order for good and puts its items back in stock.
func (s *OrderService) Cancel(ctx context.Context, orderID string) error {
	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var status string
		err := tx.GetContext(ctx, &status, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if status == string(OrderCancelled) || status == string(OrderCompleted) {
			return ErrOrderClosed
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE menus m SET stock = m.stock + i.qty, updated_at = NOW()
			FROM (SELECT menu_id, SUM(qty) AS qty FROM order_items WHERE order_id = $1 GROUP BY menu_id) i
			WHERE m.id = i.menu_id
		`, orderID); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = 'cancelled', updated_at = NOW() WHERE id = $1`, orderID); err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	metrics.RecordCancellation()
	s.log.WithField("order_id", orderID).Info("order cancelled")
	return nil
}

// lockOpenOrder locks the order row and refuses cancelled orders.
func lockOpenOrder(ctx context.Context, tx *sqlx.Tx, orderID string) (string, error) {
	var status string
	err := tx.GetContext(ctx, &status, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lock order: %w", err)
	}
	if status == string(OrderCancelled) {
		return "", ErrOrderClosed
	}
	return status, nil
}

// recomputeOrderStatus derives the order status from all of its items and
// writes it back when it changed.
func recomputeOrderStatus(ctx context.Context, tx *sqlx.Tx, orderID, current string) (OrderStatus, error) {
	var raw []string
	if err := tx.SelectContext(ctx, &raw, `SELECT status FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return "", fmt.Errorf("load item statuses: %w", err)
	}

	statuses := make([]ItemStatus, len(raw))
	for i, st := range raw {
		statuses[i] = ItemStatus(st)
	}
	derived := DeriveOrderStatus(statuses)

	if string(derived) != current {
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, string(derived), orderID); err != nil {
			return "", fmt.Errorf("update order status: %w", err)
		}
	}
	return derived, nil
}

func attachItems(ctx context.Context, db *sqlx.DB, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	pos := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		pos[o.ID] = i
	}

	query, args, err := sqlx.In(`SELECT `+itemColumns+` FROM order_items WHERE order_id IN (?) ORDER BY created_at, id`, ids)
	if err != nil {
		return fmt.Errorf("build items query: %w", err)
	}

	var items []model.OrderItem
	if err := db.SelectContext(ctx, &items, db.Rebind(query), args...); err != nil {
		return fmt.Errorf("query order items: %w", err)
	}

	for _, it := range items {
		i := pos[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return nil
}
