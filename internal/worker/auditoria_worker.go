package worker

import (
	"context"
	"encoding/json"
	"time"

	"almacenpos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuditoriaJobPayload is what the service enqueues; Fecha is the time of the
// action, not of persistence.
type AuditoriaJobPayload struct {
	Accion    string          `json:"accion"`
	UsuarioID string          `json:"usuario_id,omitempty"`
	Usuario   string          `json:"usuario"`
	Modulo    string          `json:"modulo"`
	Detalle   json.RawMessage `json:"detalle,omitempty"`
	Fecha     time.Time       `json:"fecha"`
}

// Model converts the payload into the row persisted in "auditoria".
func (p AuditoriaJobPayload) Model() *model.Auditoria {
	a := &model.Auditoria{
		Accion:    p.Accion,
		Usuario:   p.Usuario,
		Modulo:    p.Modulo,
		Detalle:   string(p.Detalle),
		CreatedAt: p.Fecha,
	}
	if id, err := uuid.Parse(p.UsuarioID); err == nil {
		a.UsuarioID = &id
	}
	if a.Detalle == "" {
		a.Detalle = "{}"
	}
	return a
}

// AuditoriaStore is satisfied by repository.AuditoriaRepository.
type AuditoriaStore interface {
	Create(ctx context.Context, a *model.Auditoria) error
}

type AuditoriaWorker struct {
	store AuditoriaStore
}

func NewAuditoriaWorker(store AuditoriaStore) *AuditoriaWorker {
	return &AuditoriaWorker{store: store}
}

func (w *AuditoriaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload AuditoriaJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("auditoria_worker: invalid payload")
		return nil
	}
	return w.store.Create(ctx, payload.Model())
}
