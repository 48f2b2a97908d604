package model

import (
	"time"

	"github.com/google/uuid"
)

// Auditoria is an append-only log entry. Detalle holds free-form JSON.
type Auditoria struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Accion    string     `gorm:"type:varchar(40);index;not null"` // crear | actualizar | eliminar | abrir | cerrar | login ...
	UsuarioID *uuid.UUID `gorm:"type:uuid;index"`
	Usuario   string
	Modulo    string    `gorm:"type:varchar(40);index;not null"`
	Detalle   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

func (Auditoria) TableName() string { return "auditoria" }
