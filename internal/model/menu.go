package model

import "time"

type Category struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Menu struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	Price        float64         `json:"price" db:"price"`
	Stock        int             `json:"stock" db:"stock"`
	CategoryID   *string         `json:"category_id" db:"category_id"`
	CategoryName *string         `json:"category_name,omitempty" db:"category_name"`
	ImageURL     string          `json:"image_url" db:"image_url"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	Variations   []MenuVariation `json:"variations,omitempty" db:"-"`
}

type MenuVariation struct {
	ID              string  `json:"id" db:"id"`
	MenuID          string  `json:"menu_id" db:"menu_id"`
	Name            string  `json:"name" db:"name"`
	PriceAdjustment float64 `json:"price_adjustment" db:"price_adjustment"`
}
