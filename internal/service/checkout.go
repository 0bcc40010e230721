package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"foodpos/internal/metrics"
	"foodpos/internal/model"
)

type CheckoutService struct {
	db    *sqlx.DB
	cache MenuCache
	log   logrus.FieldLogger
}

func NewCheckoutService(db *sqlx.DB, cache MenuCache, log logrus.FieldLogger) *CheckoutService {
	if cache == nil {
		cache = NoopMenuCache{}
	}
	return &CheckoutService{db: db, cache: cache, log: log}
}

type CheckoutRequest struct {
	CustomerName  string     `json:"customer_name"`
	Lines         []CartLine `json:"lines"`
	PaymentMethod string     `json:"payment_method"`
	AmountPaid    float64    `json:"amount_paid"`
	PayLater      bool       `json:"pay_later"`
	CreatedBy     string     `json:"-"`
}

type Receipt struct {
	Order   model.Order `json:"order"`
	Payment *Payment    `json:"payment,omitempty"`
}

// Quote prices lines against current catalog rows without writing anything.
func (s *CheckoutService) Quote(ctx context.Context, lines []CartLine) (*PricedCart, error) {
	cart, err := CartFromLines(lines)
	if err != nil {
		return nil, err
	}
	catalog, err := loadCatalog(ctx, s.db, cart.MenuIDs(), false)
	if err != nil {
		return nil, err
	}
	return PriceCart(cart, catalog)
}

// Checkout places an order: it locks the touched menus, prices the cart,
// settles payment unless deferred, writes order and items and takes stock.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*Receipt, error) {
	cart, err := CartFromLines(req.Lines)
	if err != nil {
		return nil, err
	}

	var method PaymentMethod
	if req.PaymentMethod != "" || !req.PayLater {
		if method, err = ParsePaymentMethod(req.PaymentMethod); err != nil {
			return nil, err
		}
	}

	var receipt Receipt
	err = runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		catalog, err := loadCatalog(ctx, tx, cart.MenuIDs(), true)
		if err != nil {
			return err
		}

		priced, err := PriceCart(cart, catalog)
		if err != nil {
			return err
		}

		order := model.Order{
			ID:            uuid.NewString(),
			CustomerName:  strings.TrimSpace(req.CustomerName),
			Total:         priced.Total,
			Status:        string(OrderPending),
			PaymentMethod: string(method),
			PaymentStatus: "unpaid",
			CreatedBy:     req.CreatedBy,
		}

		if !req.PayLater {
			payment, err := ComputePayment(priced.Total, method, req.AmountPaid)
			if err != nil {
				return err
			}
			order.AmountPaid = payment.AmountPaid
			order.Change = payment.Change
			order.PaymentStatus = "paid"
			receipt.Payment = &payment
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO orders (id, customer_name, total, amount_paid, change_amount, status, payment_method, payment_status, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at, updated_at
		`, order.ID, order.CustomerName, order.Total, order.AmountPaid, order.Change, order.Status,
			order.PaymentMethod, order.PaymentStatus, nullIfEmpty(order.CreatedBy)).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, line := range priced.Lines {
			item := model.OrderItem{
				OrderID:            order.ID,
				MenuID:             line.MenuID,
				MenuName:           line.MenuName,
				Qty:                line.Qty,
				PriceAtOrder:       line.UnitPrice,
				Subtotal:           line.Subtotal,
				Status:             string(ItemPending),
				Note:               line.Note,
				SelectedVariations: line.Variations,
			}
			err := tx.QueryRowxContext(ctx, `
				INSERT INTO order_items (order_id, menu_id, menu_name, qty, price_at_order, subtotal, status, note, selected_variations)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id, created_at
			`, item.OrderID, item.MenuID, item.MenuName, item.Qty, item.PriceAtOrder, item.Subtotal,
				item.Status, item.Note, item.SelectedVariations).Scan(&item.ID, &item.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			order.Items = append(order.Items, item)
		}

		qty := cart.QtyByMenu()
		for _, menuID := range cart.MenuIDs() {
			if _, err := tx.ExecContext(ctx,
				`UPDATE menus SET stock = stock - $1, updated_at = NOW() WHERE id = $2`, qty[menuID], menuID,
			); err != nil {
				return fmt.Errorf("take stock: %w", err)
			}
		}

		receipt.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	metrics.RecordOrder(receipt.Order.PaymentMethod, receipt.Order.Total, receipt.Order.PaymentStatus == "paid")
	s.log.WithFields(logrus.Fields{
		"order_id": receipt.Order.ID,
		"total":    receipt.Order.Total,
		"items":    len(receipt.Order.Items),
	}).Info("order placed")

	return &receipt, nil
}

// loadCatalog reads the menus in ids order (sorted by the caller) so row locks
// are always taken in the same order.
func loadCatalog(ctx context.Context, q sqlx.QueryerContext, ids []string, lock bool) (map[string]model.Menu, error) {
	query := `SELECT id, name, price, stock, is_active FROM menus WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	catalog := make(map[string]model.Menu, len(ids))
	for _, id := range ids {
		var m model.Menu
		if err := sqlx.GetContext(ctx, q, &m, query, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("load menu %s: %w", id, err)
		}

		if err := sqlx.SelectContext(ctx, q, &m.Variations,
			`SELECT id, menu_id, name, price_adjustment FROM menu_variations WHERE menu_id = $1`, id,
		); err != nil {
			return nil, fmt.Errorf("load variations %s: %w", id, err)
		}
		catalog[id] = m
	}
	return catalog, nil
}
