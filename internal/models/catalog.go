// internal/models/catalog.go
package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/nlu"
)

type Category struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	SearchName  string `json:"-" gorm:"size:100;index"`

	// Relationships
	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Category) TableName() string {
	return "categories"
}

// BeforeSave keeps the accent-free search column in step with Name.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.SearchName = nlu.Fold(c.Name)
	return nil
}

type Product struct {
	BaseModel
	Name        string    `json:"name" gorm:"size:255;not null;index"`
	Brand       string    `json:"brand" gorm:"size:100;not null;index"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	CategoryID  uuid.UUID `json:"category_id" gorm:"type:uuid;not null;index"`
	SearchName  string    `json:"-" gorm:"size:255;index"`
	SearchBrand string    `json:"-" gorm:"size:100;index"`

	// Relationships
	Category Category         `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Variants []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.SearchName = nlu.Fold(p.Name)
	p.SearchBrand = nlu.Fold(p.Brand)
	return nil
}

// ProductVariant is the unit returned by search and recommendation.
// Only Price and ImageURL change after creation.
type ProductVariant struct {
	BaseModel
	ProductID   uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	SKU         string    `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	Size        string    `json:"size" gorm:"size:10"`
	Color       string    `json:"color" gorm:"size:50;index"`
	Price       float64   `json:"price" gorm:"type:decimal(12,2);not null;index"`
	ImageURL    string    `json:"image_url,omitempty" gorm:"size:512"`
	SearchColor string    `json:"-" gorm:"size:50;index"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

func (v *ProductVariant) BeforeSave(tx *gorm.DB) error {
	v.SearchColor = nlu.Fold(v.Color)
	return nil
}
