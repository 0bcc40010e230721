package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Order struct {
	ID            string      `json:"id" db:"id"`
	CustomerName  string      `json:"customer_name" db:"customer_name"`
	Total         float64     `json:"total" db:"total"`
	AmountPaid    float64     `json:"amount_paid" db:"amount_paid"`
	Change        float64     `json:"change" db:"change_amount"`
	Status        string      `json:"status" db:"status"` // pending, preparing, ready, completed, cancelled
	PaymentMethod string      `json:"payment_method" db:"payment_method"`
	PaymentStatus string      `json:"payment_status" db:"payment_status"` // unpaid, paid
	CreatedBy     string      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
	Items         []OrderItem `json:"items,omitempty" db:"-"`
}

type OrderItem struct {
	ID                 string             `json:"id" db:"id"`
	OrderID            string             `json:"order_id" db:"order_id"`
	MenuID             string             `json:"menu_id" db:"menu_id"`
	MenuName           string             `json:"menu_name" db:"menu_name"`
	Qty                int                `json:"qty" db:"qty"`
	PriceAtOrder       float64            `json:"price_at_order" db:"price_at_order"`
	Subtotal           float64            `json:"subtotal" db:"subtotal"`
	Status             string             `json:"status" db:"status"` // pending, preparing, ready, delivered
	Note               string             `json:"note,omitempty" db:"note"`
	SelectedVariations SelectedVariations `json:"selected_variations" db:"selected_variations"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
}

// SelectedVariation is the snapshot of a variation taken when the item was ordered.
type SelectedVariation struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	PriceAdjustment float64 `json:"price_adjustment"`
}

// SelectedVariations is stored as a JSONB column.
type SelectedVariations []SelectedVariation

func (v SelectedVariations) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (v *SelectedVariations) Scan(src any) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		*v = SelectedVariations{}
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return errors.New("selected_variations: unsupported type")
	}
	return json.Unmarshal(data, v)
}
