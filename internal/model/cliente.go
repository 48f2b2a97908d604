package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente stores customer data used on sales tickets.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"index;not null"`
	RUC       string    `gorm:"column:ruc;index"`
	Telefono  string
	Direccion string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }
