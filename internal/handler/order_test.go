package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodpos/internal/model"
	"foodpos/internal/service"
)

type fakeOrders struct {
	OrderStore

	filter   service.OrderFilter
	statuses []service.ItemStatus
	order    service.OrderStatus
	err      error
	paid     *service.Payment
}

func (f *fakeOrders) List(_ context.Context, filter service.OrderFilter) ([]model.Order, error) {
	f.filter = filter
	return []model.Order{{ID: testOrderID}}, f.err
}

func (f *fakeOrders) UpdateItemStatus(_ context.Context, _, _ string, status service.ItemStatus) (service.OrderStatus, error) {
	f.statuses = append(f.statuses, status)
	return f.order, f.err
}

func (f *fakeOrders) MarkPaid(_ context.Context, _ string, method service.PaymentMethod, amount float64) (*service.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, err := service.ComputePayment(10, method, amount)
	f.paid = &p
	return f.paid, err
}

func (f *fakeOrders) Cancel(context.Context, string) error { return f.err }

type fakeCheckout struct {
	req service.CheckoutRequest
	err error
}

func (f *fakeCheckout) Quote(_ context.Context, lines []service.CartLine) (*service.PricedCart, error) {
	return &service.PricedCart{Total: float64(len(lines))}, f.err
}

func (f *fakeCheckout) Checkout(_ context.Context, req service.CheckoutRequest) (*service.Receipt, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.Receipt{Order: model.Order{ID: testOrderID, Status: "pending"}}, nil
}

func TestCheckoutHandler(t *testing.T) {
	checkout := &fakeCheckout{}
	body := `{"customer_name":"Ana","lines":[{"menu_id":"` + testMenuID + `","qty":2}],"payment_method":"cash","amount_paid":50}`

	rec := serve(http.MethodPost, "/checkout", CheckoutHandler(checkout, quietLog), "/checkout", body, "u1")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", checkout.req.CreatedBy)
	assert.Equal(t, "Ana", checkout.req.CustomerName)
	require.Len(t, checkout.req.Lines, 1)
	assert.Equal(t, 2, checkout.req.Lines[0].Qty)
}

func TestCheckoutHandler_StockError(t *testing.T) {
	checkout := &fakeCheckout{err: service.ErrInsufficientStock}

	rec := serve(http.MethodPost, "/checkout", CheckoutHandler(checkout, quietLog), "/checkout", `{"lines":[]}`, "u1")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListOrdersHandler_Filters(t *testing.T) {
	orders := &fakeOrders{}

	rec := serve(http.MethodGet, "/orders", ListOrdersHandler(orders, quietLog),
		"/orders?status=ready&from=2026-10-01&to=2026-10-02&limit=20", "", "u1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", orders.filter.Status)
	assert.Equal(t, 20, orders.filter.Limit)
	require.NotNil(t, orders.filter.From)
	require.NotNil(t, orders.filter.To)
	assert.True(t, time.Date(2026, 10, 3, 0, 0, 0, 0, time.Local).Equal(*orders.filter.To))

	rec = serve(http.MethodGet, "/orders", ListOrdersHandler(orders, quietLog), "/orders?from=yesterday", "", "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItemStatusHandler(t *testing.T) {
	const pattern = "/orders/{id}/items/{itemID}/status"
	orders := &fakeOrders{order: service.OrderReady}

	rec := serve(http.MethodPatch, pattern, UpdateItemStatusHandler(orders, quietLog),
		"/orders/"+testOrderID+"/items/"+testItemID+"/status", `{"status":"ready"}`, "u1")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp itemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.ItemReady, resp.ItemStatus)
	assert.Equal(t, service.OrderReady, resp.OrderStatus)
	assert.Equal(t, testItemID, resp.ItemID)

	tests := []struct {
		name   string
		target string
		body   string
		err    error
		code   int
	}{
		{"bad order id", "/orders/42/items/" + testItemID + "/status", `{"status":"ready"}`, nil, http.StatusBadRequest},
		{"bad item id", "/orders/" + testOrderID + "/items/x/status", `{"status":"ready"}`, nil, http.StatusBadRequest},
		{"unknown status", "/orders/" + testOrderID + "/items/" + testItemID + "/status", `{"status":"burnt"}`, nil, http.StatusBadRequest},
		{"cancelled order", "/orders/" + testOrderID + "/items/" + testItemID + "/status", `{"status":"ready"}`, service.ErrOrderClosed, http.StatusConflict},
		{"missing item", "/orders/" + testOrderID + "/items/" + testItemID + "/status", `{"status":"ready"}`, service.ErrNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{err: tt.err}
			rec := serve(http.MethodPatch, pattern, UpdateItemStatusHandler(orders, quietLog), tt.target, tt.body, "u1")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestPayOrderHandler(t *testing.T) {
	const pattern = "/orders/{id}/pay"
	orders := &fakeOrders{}

	rec := serve(http.MethodPost, pattern, PayOrderHandler(orders, quietLog),
		"/orders/"+testOrderID+"/pay", `{"payment_method":"cash","amount_paid":20}`, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10.0, orders.paid.Change)

	rec = serve(http.MethodPost, pattern, PayOrderHandler(orders, quietLog),
		"/orders/"+testOrderID+"/pay", `{"payment_method":"barter","amount_paid":20}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	orders.err = service.ErrAlreadyPaid
	rec = serve(http.MethodPost, pattern, PayOrderHandler(orders, quietLog),
		"/orders/"+testOrderID+"/pay", `{"payment_method":"card"}`, "u1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelOrderHandler(t *testing.T) {
	const pattern = "/orders/{id}/cancel"

	rec := serve(http.MethodPost, pattern, CancelOrderHandler(&fakeOrders{}, quietLog), "/orders/"+testOrderID+"/cancel", "", "u1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(http.MethodPost, pattern, CancelOrderHandler(&fakeOrders{err: service.ErrOrderClosed}, quietLog),
		"/orders/"+testOrderID+"/cancel", "", "u1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckoutHandler_RejectsMalformedIDs(t *testing.T) {
	checkout := &fakeCheckout{}

	rec := serve(http.MethodPost, "/checkout", CheckoutHandler(checkout, quietLog), "/checkout",
		`{"lines":[{"menu_id":"latte","qty":1}]}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodPost, "/quote", QuoteHandler(checkout, quietLog), "/quote",
		`{"lines":[{"menu_id":"`+testMenuID+`","qty":1,"variation_ids":["big"]}]}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, checkout.req.Lines)
}
