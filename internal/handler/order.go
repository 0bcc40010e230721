package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
	"foodpos/internal/mw"
	"foodpos/internal/service"
)

type Checkouter interface {
	Quote(ctx context.Context, lines []service.CartLine) (*service.PricedCart, error)
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.Receipt, error)
}

type OrderStore interface {
	List(ctx context.Context, f service.OrderFilter) ([]model.Order, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	KitchenQueue(ctx context.Context) ([]model.Order, error)
	UpdateItemStatus(ctx context.Context, orderID, itemID string, status service.ItemStatus) (service.OrderStatus, error)
	UpdateAllItems(ctx context.Context, orderID string, status service.ItemStatus) (service.OrderStatus, error)
	MarkPaid(ctx context.Context, orderID string, method service.PaymentMethod, amountPaid float64) (*service.Payment, error)
	Cancel(ctx context.Context, orderID string) error
}

// validLines rejects malformed menu and variation IDs before they reach the database.
func validLines(w http.ResponseWriter, lines []service.CartLine) bool {
	for _, l := range lines {
		if uuid.Validate(l.MenuID) != nil {
			http.Error(w, "invalid menu_id "+strconv.Quote(l.MenuID), http.StatusBadRequest)
			return false
		}
		for _, v := range l.VariationIDs {
			if uuid.Validate(v) != nil {
				http.Error(w, "invalid variation id "+strconv.Quote(v), http.StatusBadRequest)
				return false
			}
		}
	}
	return true
}

func QuoteHandler(checkout Checkouter, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Lines []service.CartLine `json:"lines"`
		}
		if !decodeJSON(w, r, &req) || !validLines(w, req.Lines) {
			return
		}

		priced, err := checkout.Quote(r.Context(), req.Lines)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, priced)
	}
}

func CheckoutHandler(checkout Checkouter, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.CheckoutRequest
		if !decodeJSON(w, r, &req) || !validLines(w, req.Lines) {
			return
		}
		req.CreatedBy = mw.UserID(r.Context())

		receipt, err := checkout.Checkout(r.Context(), req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, receipt)
	}
}

// ListOrdersHandler accepts status, payment_status, from and to (dates,
// both inclusive) and limit.
func ListOrdersHandler(orders OrderStore, log logrus.FieldLogger) http.HandlerFunc {
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

		list, err := orders.List(r.Context(), service.OrderFilter{
			Status:        r.URL.Query().Get("status"),
			PaymentStatus: r.URL.Query().Get("payment_status"),
			From:          from,
			To:            to,
			Limit:         queryInt(r, "limit"),
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetOrderHandler(orders OrderStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		order, err := orders.Get(r.Context(), id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func KitchenQueueHandler(orders OrderStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queue, err := orders.KitchenQueue(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, queue)
	}
}

type itemStatusRequest struct {
	Status string `json:"status"`
}

type itemStatusResponse struct {
	OrderID     string              `json:"order_id"`
	ItemID      string              `json:"item_id,omitempty"`
	ItemStatus  service.ItemStatus  `json:"item_status"`
	OrderStatus service.OrderStatus `json:"order_status"`
}

func decodeItemStatus(w http.ResponseWriter, r *http.Request) (service.ItemStatus, bool) {
	var req itemStatusRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	status, err := service.ParseItemStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return status, true
}

func UpdateItemStatusHandler(orders OrderStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		itemID, ok := pathID(w, r, "itemID")
		if !ok {
			return
		}
		status, ok := decodeItemStatus(w, r)
		if !ok {
			return
		}

		derived, err := orders.UpdateItemStatus(r.Context(), orderID, itemID, status)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, itemStatusResponse{
			OrderID:     orderID,
			ItemID:      itemID,
			ItemStatus:  status,
			OrderStatus: derived,
		})
	}
}

func UpdateAllItemsHandler(orders OrderStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		status, ok := decodeItemStatus(w, r)
		if !ok {
			return
		}

		derived, err := orders.UpdateAllItems(r.Context(), orderID, status)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, itemStatusResponse{
			OrderID:     orderID,
			ItemStatus:  status,
			OrderStatus: derived,
		})
	}
}

func PayOrderHandler(orders OrderStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req struct {
			PaymentMethod string  `json:"payment_method"`
			AmountPaid    float64 `json:"amount_paid"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		method, err := service.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			writeError(w, log, err)
			return
		}

		payment, err := orders.MarkPaid(r.Context(), orderID, method, req.AmountPaid)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, payment)
	}
}

func CancelOrderHandler(orders OrderStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := orders.Cancel(r.Context(), orderID); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
