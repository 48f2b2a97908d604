package model

import (
	"time"

	"github.com/google/uuid"
)

// Salida records stock removed without a sale (breakage, expiry, own use).
type Salida struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Fecha     time.Time `gorm:"index;not null"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null"`
	Operador  string    `gorm:"not null"`
	Motivo    string
	CreatedAt time.Time

	Items []SalidaItem `gorm:"foreignKey:SalidaID;constraint:OnDelete:CASCADE"`
}

func (Salida) TableName() string { return "salidas" }

type SalidaItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SalidaID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null"`
	Nombre     string    `gorm:"not null"`
	Cantidad   int       `gorm:"not null"`
}

func (SalidaItem) TableName() string { return "salida_items" }
