package product

import (
	"errors"
	"time"
)

// LowStockThreshold is the cutoff below which a product is listed as low stock.
const LowStockThreshold = 10

var ErrNotFound = errors.New("product not found")

// Categories is the catalog category set accepted on create and update.
var Categories = []string{
	"chairs",
	"sofas",
	"tables",
	"beds",
	"storage",
	"lighting",
	"decor",
	"outdoor",
	"office",
}

func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	Stock       int       `json:"stock"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Category *string
	Featured *bool
	Limit    int
	Offset   int
}

// Price and stock bounds follow the NUMERIC(12,2) and INTEGER columns.
type CreateRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	Price       float64 `json:"price" binding:"min=0,max=9999999999.99"`
	Category    string  `json:"category" binding:"required,category"`
	Image       string  `json:"image" binding:"omitempty,max=500"`
	Stock       int     `json:"stock" binding:"min=0,max=2147483647"`
	Featured    bool    `json:"featured"`
}

// Patch is a partial update: nil fields are left untouched.
type Patch struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Price       *float64 `json:"price" binding:"omitempty,min=0,max=9999999999.99"`
	Category    *string  `json:"category" binding:"omitempty,category"`
	Image       *string  `json:"image" binding:"omitempty,max=500"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0,max=2147483647"`
	Featured    *bool    `json:"featured"`
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil &&
		p.Description == nil &&
		p.Price == nil &&
		p.Category == nil &&
		p.Image == nil &&
		p.Stock == nil &&
		p.Featured == nil
}

// Apply returns a copy of dst with the supplied fields overwritten.
func (p Patch) Apply(dst Product) Product {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.Image != nil {
		dst.Image = *p.Image
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
	if p.Featured != nil {
		dst.Featured = *p.Featured
	}
	return dst
}

type BulkUpdateRequest struct {
	ProductIDs []int64 `json:"productIds" binding:"required,min=1,dive,min=1"`
	Updates    Patch   `json:"updates"`
}

type CategoryStat struct {
	Category     string  `json:"category"`
	Count        int     `json:"count"`
	AveragePrice float64 `json:"averagePrice"`
}

type Stats struct {
	Categories      []CategoryStat `json:"categories"`
	FeaturedCount   int            `json:"featuredCount"`
	OutOfStockCount int            `json:"outOfStockCount"`
}
