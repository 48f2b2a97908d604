package service

import (
	"context"
	"encoding/json"
	"time"

	"almacenpos/internal/dto"
	"almacenpos/internal/repository"
	"almacenpos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Entrada is one audit record as produced by the business services.
type Entrada struct {
	Accion  string
	Modulo  string
	Actor   Actor
	Detalle any
}

// Auditor is the write side used by every other service.
type Auditor interface {
	Registrar(ctx context.Context, e Entrada)
}

type AuditoriaService interface {
	Auditor
	Listar(ctx context.Context, filter dto.AuditoriaFilter) (*dto.AuditoriaListResponse, error)
}

// Encolador is satisfied by *worker.Dispatcher.
type Encolador interface {
	EnqueueAuditoria(ctx context.Context, payload worker.AuditoriaJobPayload) error
}

type auditoriaService struct {
	repo  repository.AuditoriaRepository
	queue Encolador
	now   func() time.Time
}

// NewAuditoriaService wires the audit log. queue may be nil, in which case
// entries are written synchronously.
func NewAuditoriaService(repo repository.AuditoriaRepository, queue Encolador) AuditoriaService {
	return &auditoriaService{repo: repo, queue: queue, now: time.Now}
}

// ── Registrar ─────────────────────────────────────────────────────────────────
// Never fails: queue first, direct insert as fallback, log as last resort.

func (s *auditoriaService) Registrar(ctx context.Context, e Entrada) {
	ctx = context.WithoutCancel(ctx)

	detalle, err := json.Marshal(e.Detalle)
	if err != nil || e.Detalle == nil {
		detalle = []byte("{}")
	}
	payload := worker.AuditoriaJobPayload{
		Accion:  e.Accion,
		Usuario: e.Actor.Nombre,
		Modulo:  e.Modulo,
		Detalle: detalle,
		Fecha:   s.now(),
	}
	if e.Actor.ID != uuid.Nil {
		payload.UsuarioID = e.Actor.ID.String()
	}

	if s.queue != nil {
		err := s.queue.EnqueueAuditoria(ctx, payload)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("modulo", e.Modulo).Msg("auditoria: enqueue failed, writing directly")
	}
	if s.repo == nil {
		log.Error().Str("modulo", e.Modulo).Str("accion", e.Accion).Msg("auditoria: no store configured, entry dropped")
		return
	}
	if err := s.repo.Create(ctx, payload.Model()); err != nil {
		log.Error().Err(err).
			Str("modulo", e.Modulo).
			Str("accion", e.Accion).
			Str("usuario", e.Actor.Nombre).
			Msg("auditoria: entry lost")
	}
}

// ── Listar ────────────────────────────────────────────────────────────────────

func (s *auditoriaService) Listar(ctx context.Context, f dto.AuditoriaFilter) (*dto.AuditoriaListResponse, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	q := repository.AuditoriaQuery{
		Modulo:  f.Modulo,
		Usuario: f.Usuario,
		Accion:  f.Accion,
		Page:    f.Page,
		Limit:   f.Limit,
	}
	desde, hasta, err := rangoOpcional(f.Desde, f.Hasta)
	if err != nil {
		return nil, err
	}
	q.Desde, q.Hasta = desde, hasta

	entradas, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	resp := &dto.AuditoriaListResponse{
		Data:  make([]dto.AuditoriaResponse, 0, len(entradas)),
		Total: total,
		Page:  f.Page,
		Limit: f.Limit,
	}
	for _, a := range entradas {
		item := dto.AuditoriaResponse{
			ID:      a.ID.String(),
			Accion:  a.Accion,
			Usuario: a.Usuario,
			Modulo:  a.Modulo,
			Fecha:   fechaISO(a.CreatedAt),
		}
		if a.UsuarioID != nil {
			id := a.UsuarioID.String()
			item.UsuarioID = &id
		}
		if a.Detalle != "" {
			if err := json.Unmarshal([]byte(a.Detalle), &item.Detalle); err != nil {
				item.Detalle = map[string]any{"raw": a.Detalle}
			}
		}
		resp.Data = append(resp.Data, item)
	}
	return resp, nil
}
