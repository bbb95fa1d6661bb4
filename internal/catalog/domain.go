package catalog

import (
	"time"
)

// Item is a stocked catalog entry. Stock is only mutated by sales, purchases
// and returns; catalog edits never touch it.
type Item struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          *string   `json:"author,omitempty"`
	Category        string    `json:"category"`
	ProductionPrice float64   `json:"production_price"`
	SellingPrice    float64   `json:"selling_price"`
	Stock           int       `json:"stock"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateItemRequest creates a catalog entry.
type CreateItemRequest struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Author          *string `json:"author,omitempty" validate:"omitempty,max=200"`
	Category        string  `json:"category" validate:"required,max=100"`
	ProductionPrice float64 `json:"production_price" validate:"gte=0"`
	SellingPrice    float64 `json:"selling_price" validate:"gte=0"`
	Stock           int     `json:"stock" validate:"gte=0"`
}

// UpdateItemRequest patches a catalog entry.
type UpdateItemRequest struct {
	Title           *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Author          *string  `json:"author,omitempty" validate:"omitempty,max=200"`
	Category        *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	ProductionPrice *float64 `json:"production_price,omitempty" validate:"omitempty,gte=0"`
	SellingPrice    *float64 `json:"selling_price,omitempty" validate:"omitempty,gte=0"`
}

// ListItemsRequest filters the catalog listing.
type ListItemsRequest struct {
	Search   *string `json:"search,omitempty"`
	Category *string `json:"category,omitempty"`
	Page     int     `json:"page" validate:"gte=0"`
	PerPage  int     `json:"per_page" validate:"gte=0,lte=200"`
}
