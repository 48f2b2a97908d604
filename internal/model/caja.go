package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CajaAbierta = "abierta"
	CajaCerrada = "cerrada"
)

// Caja is a cash-register session. Sales made while it is open belong to it
// and are loaded together with the session.
type Caja struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	Operador   string          `gorm:"not null"`
	Estado     string          `gorm:"type:varchar(20);index;not null;default:'abierta'"`
	Total      decimal.Decimal `gorm:"type:decimal(14,0);not null;default:0"`
	AperturaAt time.Time       `gorm:"not null"`
	CierreAt   *time.Time

	Ventas []Venta `gorm:"foreignKey:CajaID"`
}

func (Caja) TableName() string { return "cajas" }

// Abierta reports whether sales can still be added.
func (c Caja) Abierta() bool { return c.Estado == CajaAbierta }

// Venta is a sale registered inside a Caja. Payment amounts are the raw
// amounts handed over by the customer; allocation happens when summarising.
type Venta struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Fecha         time.Time       `gorm:"index;not null"`
	ClienteID     *uuid.UUID      `gorm:"type:uuid;index"`
	ClienteNombre string          `gorm:"type:varchar(120)"`
	Efectivo      decimal.Decimal `gorm:"type:decimal(14,0);not null;default:0"`
	Tarjeta       decimal.Decimal `gorm:"type:decimal(14,0);not null;default:0"`
	Transferencia decimal.Decimal `gorm:"type:decimal(14,0);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(14,0);not null"`

	Items []VentaItem `gorm:"foreignKey:VentaID;constraint:OnDelete:CASCADE"`
}

func (Venta) TableName() string { return "ventas" }

// VentaItem keeps a name and price snapshot so reports survive product edits.
type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     *uuid.UUID      `gorm:"type:uuid"`
	Nombre         string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(14,0);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(14,0);not null"`
}

func (VentaItem) TableName() string { return "venta_items" }
