package model

import (
	"database/sql/driver"
	"errors"
	"time"
)

// DailyClosing is a stored end-of-day report snapshot.
type DailyClosing struct {
	Day       time.Time `json:"day" db:"day"`
	Revenue   float64   `json:"revenue" db:"revenue"`
	Orders    int       `json:"orders" db:"orders"`
	Expenses  float64   `json:"expenses" db:"expenses"`
	NetProfit float64   `json:"net_profit" db:"net_profit"`
	Report    RawJSON   `json:"report" db:"report"`
	ClosedAt  time.Time `json:"closed_at" db:"closed_at"`
}

// RawJSON holds a JSONB document verbatim.
type RawJSON []byte

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "null", nil
	}
	return string(r), nil
}

func (r *RawJSON) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append(RawJSON(nil), s...)
	case string:
		*r = RawJSON(s)
	default:
		return errors.New("raw json: unsupported type")
	}
	return nil
}
