package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is one item of the "stock" collection.
type Producto struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre       string          `gorm:"index;not null"`
	Categoria    string          `gorm:"index;not null;default:''"`
	CodigoBarras string          `gorm:"uniqueIndex;not null"`
	Cantidad     int             `gorm:"not null;default:0"`
	PrecioCosto  decimal.Decimal `gorm:"type:decimal(14,0);not null;default:0"`
	PrecioVenta  decimal.Decimal `gorm:"type:decimal(14,0);not null;default:0"`
	StockMinimo  int             `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName keeps the collection name the rest of the system uses.
func (Producto) TableName() string { return "stock" }

// BajoMinimo reports whether the quantity reached the alert threshold.
func (p Producto) BajoMinimo() bool { return p.Cantidad <= p.StockMinimo }
