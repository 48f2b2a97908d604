package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reposicion is a restock note: purchased quantities and their unit cost.
type Reposicion struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Fecha     time.Time       `gorm:"index;not null"`
	UsuarioID uuid.UUID       `gorm:"type:uuid;not null"`
	Operador  string          `gorm:"not null"`
	Total     decimal.Decimal `gorm:"type:decimal(14,0);not null;default:0"`
	CreatedAt time.Time

	Items []ReposicionItem `gorm:"foreignKey:ReposicionID;constraint:OnDelete:CASCADE"`
}

func (Reposicion) TableName() string { return "reposiciones" }

type ReposicionItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReposicionID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID    uuid.UUID       `gorm:"type:uuid;not null"`
	Nombre        string          `gorm:"not null"`
	Cantidad      int             `gorm:"not null"`
	CostoUnitario decimal.Decimal `gorm:"type:decimal(14,0);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(14,0);not null"`
}

func (ReposicionItem) TableName() string { return "reposicion_items" }
