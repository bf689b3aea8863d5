package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog product. Price is the authoritative unit price
// in currency units; client-submitted prices never override it.
type Product struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	Price       float64
	Images      []string
	Stock       int32
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FirstImage returns the product's primary image URL, or empty.
func (p *Product) FirstImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
