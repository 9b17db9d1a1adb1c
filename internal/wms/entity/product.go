package entity

import "time"

// Product is a catalog entry referenced by PR line items.
type Product struct {
	ID         string  `json:"id" gorm:"primaryKey;size:36"`
	Name       string  `json:"name" gorm:"size:200;not null"`
	CategoryID *string `json:"category_id" gorm:"size:36;index"`
	UnitPrice  float64 `json:"unit_price" gorm:"type:decimal(12,2);default:0"`
	Stock      int     `json:"stock" gorm:"default:0"`
	ImageURL   string  `json:"image_url" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Product) TableName() string {
	return "products"
}

type Category struct {
	ID   string `json:"id" gorm:"primaryKey;size:36"`
	Name string `json:"name" gorm:"size:100;uniqueIndex;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// StockTransaction records a stock movement. The workflow engine only reads
// this table; goods receipt and issue flows write it.
type StockTransaction struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	ProductID   string `json:"product_id" gorm:"size:36;not null;index"`
	Type        string `json:"type" gorm:"size:20;not null"`
	Quantity    int    `json:"quantity" gorm:"not null"`
	PerformedBy string `json:"performed_by" gorm:"size:36"`

	CreatedAt time.Time `json:"created_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (StockTransaction) TableName() string {
	return "stock_transactions"
}
