package service

import (
	"context"
	"errors"
	"time"

	"almacenpos/internal/apierror"
	"almacenpos/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Actor identifies who performs an operation. Handlers build it from the JWT
// claims.
type Actor struct {
	ID     uuid.UUID
	Nombre string
	Rol    string
}

// Publicador is satisfied by *infra.EventBus.
type Publicador interface {
	Publicar(ctx context.Context, ev infra.Evento) error
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// notificar publishes a change event. Failures are logged and swallowed.
func notificar(ctx context.Context, pub Publicador, coleccion, accion string, id uuid.UUID) {
	if pub == nil {
		return
	}
	ev := infra.Evento{Coleccion: coleccion, Accion: accion, ID: id.String(), Fecha: time.Now()}
	if err := pub.Publicar(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn().Err(err).Str("coleccion", coleccion).Str("accion", accion).Msg("eventos: publish failed")
	}
}

// noEncontrado maps gorm's not-found into the API sentinel and keeps any
// other error as is.
func noEncontrado(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(format, args...)
	}
	return err
}

// montoEntero rejects amounts with cents: every money column holds whole
// guaranies.
func montoEntero(campo string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(0)) {
		return apierror.Invalid("%s debe ser un monto entero en guaranies, recibido %s", campo, d.String())
	}
	return nil
}

func fechaISO(t time.Time) string { return t.Format(time.RFC3339) }

func fechaISOPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fechaISO(*t)
	return &s
}
