package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"almacenpos/internal/apierror"
	"almacenpos/internal/cache"
	"almacenpos/internal/dto"
	"almacenpos/internal/model"
	"almacenpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ─────────────────────────────────────────────────────────────────────────────
// Reposiciones
// ─────────────────────────────────────────────────────────────────────────────

type ReposicionService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearReposicionRequest) (*dto.ReposicionResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ReposicionResponse, error)
	Listar(ctx context.Context, filter dto.RangoFilter) ([]dto.ReposicionResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
}

type reposicionService struct {
	repo      repository.ReposicionRepository
	productos repository.ProductoRepository
	cache     *cache.Cache
	auditoria Auditor
	eventos   Publicador
	now       func() time.Time
}

func NewReposicionService(repo repository.ReposicionRepository, productos repository.ProductoRepository, c *cache.Cache, auditoria Auditor, eventos Publicador) ReposicionService {
	return &reposicionService{repo: repo, productos: productos, cache: c, auditoria: auditoria, eventos: eventos, now: time.Now}
}

// Crear adds the quantities to stock and, when the unit cost is positive,
// makes it the product's new precio de costo.
func (s *reposicionService) Crear(ctx context.Context, actor Actor, req dto.CrearReposicionRequest) (*dto.ReposicionResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Invalid("la reposicion no tiene items")
	}
	rep := model.Reposicion{
		Fecha:     s.now(),
		UsuarioID: actor.ID,
		Operador:  actor.Nombre,
		Total:     decimal.Zero,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, it := range req.Items {
			pid, err := uuid.Parse(it.ProductoID)
			if err != nil {
				return apierror.Invalid("producto_id invalido: %s", it.ProductoID)
			}
			if it.Cantidad <= 0 {
				return apierror.Invalid("la cantidad debe ser mayor a cero")
			}
			if it.CostoUnitario.IsNegative() {
				return apierror.Invalid("el costo unitario no puede ser negativo")
			}
			if err := montoEntero("costo_unitario", it.CostoUnitario); err != nil {
				return err
			}
			p, err := s.productos.FindByIDTx(tx, pid)
			if err != nil {
				return noEncontrado(err, "producto %s no encontrado", pid)
			}
			if err := s.productos.AjustarStockTx(tx, pid, it.Cantidad); err != nil {
				return err
			}
			if it.CostoUnitario.IsPositive() {
				if err := s.productos.UpdateCostoTx(tx, pid, it.CostoUnitario); err != nil {
					return err
				}
			}
			sub := it.CostoUnitario.Mul(decimal.NewFromInt(int64(it.Cantidad)))
			rep.Total = rep.Total.Add(sub)
			rep.Items = append(rep.Items, model.ReposicionItem{
				ProductoID:    pid,
				Nombre:        p.Nombre,
				Cantidad:      it.Cantidad,
				CostoUnitario: it.CostoUnitario,
				Subtotal:      sub,
			})
		}
		return s.repo.CreateTx(tx, &rep)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.despuesDeEscribir(ctx, actor, "crear", rep.ID, map[string]any{
		"reposicion_id": rep.ID.String(), "total": rep.Total, "items": len(rep.Items),
	})
	return reposicionToResponse(&rep), nil
}

func (s *reposicionService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ReposicionResponse, error) {
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "reposicion no encontrada")
	}
	return reposicionToResponse(rep), nil
}

func (s *reposicionService) Listar(ctx context.Context, f dto.RangoFilter) ([]dto.ReposicionResponse, error) {
	desde, hasta, err := rangoOpcional(f.Desde, f.Hasta)
	if err != nil {
		return nil, err
	}
	var reps []model.Reposicion
	if desde == nil && hasta == nil {
		reps, err = cache.Lookup(s.cache, cache.Reposiciones, func() ([]model.Reposicion, error) {
			return s.repo.List(ctx, nil, nil)
		})
	} else {
		reps, err = s.repo.List(ctx, desde, hasta)
	}
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ReposicionResponse, len(reps))
	for i := range reps {
		resp[i] = *reposicionToResponse(&reps[i])
	}
	return resp, nil
}

// Eliminar takes the restocked quantities back out of stock. Costs updated
// by the reposición are left as they are.
func (s *reposicionService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	var rep *model.Reposicion
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return noEncontrado(err, "reposicion no encontrada")
		}
		for _, it := range r.Items {
			if _, err := s.productos.FindByIDTx(tx, it.ProductoID); errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			} else if err != nil {
				return err
			}
			if err := s.productos.DescontarStockTx(tx, it.ProductoID, it.Cantidad); err != nil {
				if errors.Is(err, repository.ErrStockInsuficiente) {
					return apierror.Conflict("no se puede revertir: %s ya no tiene %d unidades", it.Nombre, it.Cantidad)
				}
				return err
			}
		}
		if err := s.repo.DeleteTx(tx, id); err != nil {
			return noEncontrado(err, "reposicion no encontrada")
		}
		rep = r
		return nil
	})
	if txErr != nil {
		return txErr
	}
	s.despuesDeEscribir(ctx, actor, "eliminar", id, map[string]any{"reposicion_id": id.String(), "total": rep.Total})
	return nil
}

func (s *reposicionService) despuesDeEscribir(ctx context.Context, actor Actor, accion string, id uuid.UUID, detalle map[string]any) {
	s.cache.Clear(cache.Reposiciones, cache.Stock)
	if s.auditoria != nil {
		s.auditoria.Registrar(ctx, Entrada{Accion: accion, Modulo: cache.Reposiciones, Actor: actor, Detalle: detalle})
	}
	notificar(ctx, s.eventos, cache.Reposiciones, accion, id)
	notificar(ctx, s.eventos, cache.Stock, "actualizar", uuid.Nil)
}

func reposicionToResponse(r *model.Reposicion) *dto.ReposicionResponse {
	resp := &dto.ReposicionResponse{
		ID:       r.ID.String(),
		Fecha:    fechaISO(r.Fecha),
		Operador: r.Operador,
		Total:    r.Total,
		Items:    make([]dto.ItemReposicionResponse, len(r.Items)),
	}
	for i, it := range r.Items {
		resp.Items[i] = dto.ItemReposicionResponse{
			ProductoID:    it.ProductoID.String(),
			Nombre:        it.Nombre,
			Cantidad:      it.Cantidad,
			CostoUnitario: it.CostoUnitario,
			Subtotal:      it.Subtotal,
		}
	}
	return resp
}

// ─────────────────────────────────────────────────────────────────────────────
// Salidas
// ─────────────────────────────────────────────────────────────────────────────

type SalidaService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearSalidaRequest) (*dto.SalidaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.SalidaResponse, error)
	Listar(ctx context.Context, filter dto.RangoFilter) ([]dto.SalidaResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
}

type salidaService struct {
	repo      repository.SalidaRepository
	productos repository.ProductoRepository
	cache     *cache.Cache
	auditoria Auditor
	eventos   Publicador
	now       func() time.Time
}

func NewSalidaService(repo repository.SalidaRepository, productos repository.ProductoRepository, c *cache.Cache, auditoria Auditor, eventos Publicador) SalidaService {
	return &salidaService{repo: repo, productos: productos, cache: c, auditoria: auditoria, eventos: eventos, now: time.Now}
}

func (s *salidaService) Crear(ctx context.Context, actor Actor, req dto.CrearSalidaRequest) (*dto.SalidaResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Invalid("la salida no tiene items")
	}
	sal := model.Salida{
		Fecha:     s.now(),
		UsuarioID: actor.ID,
		Operador:  actor.Nombre,
		Motivo:    strings.TrimSpace(req.Motivo),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, it := range req.Items {
			pid, err := uuid.Parse(it.ProductoID)
			if err != nil {
				return apierror.Invalid("producto_id invalido: %s", it.ProductoID)
			}
			if it.Cantidad <= 0 {
				return apierror.Invalid("la cantidad debe ser mayor a cero")
			}
			p, err := s.productos.FindByIDTx(tx, pid)
			if err != nil {
				return noEncontrado(err, "producto %s no encontrado", pid)
			}
			if p.Cantidad < it.Cantidad {
				return apierror.Conflict("stock insuficiente para %s: disponible %d, solicitado %d", p.Nombre, p.Cantidad, it.Cantidad)
			}
			if err := s.productos.DescontarStockTx(tx, pid, it.Cantidad); err != nil {
				if errors.Is(err, repository.ErrStockInsuficiente) {
					return apierror.Conflict("stock insuficiente para %s", p.Nombre)
				}
				return err
			}
			sal.Items = append(sal.Items, model.SalidaItem{ProductoID: pid, Nombre: p.Nombre, Cantidad: it.Cantidad})
		}
		return s.repo.CreateTx(tx, &sal)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.despuesDeEscribir(ctx, actor, "crear", sal.ID, map[string]any{
		"salida_id": sal.ID.String(), "motivo": sal.Motivo, "items": len(sal.Items),
	})
	return salidaToResponse(&sal), nil
}

func (s *salidaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.SalidaResponse, error) {
	sal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "salida no encontrada")
	}
	return salidaToResponse(sal), nil
}

func (s *salidaService) Listar(ctx context.Context, f dto.RangoFilter) ([]dto.SalidaResponse, error) {
	desde, hasta, err := rangoOpcional(f.Desde, f.Hasta)
	if err != nil {
		return nil, err
	}
	var salidas []model.Salida
	if desde == nil && hasta == nil {
		salidas, err = cache.Lookup(s.cache, cache.Salidas, func() ([]model.Salida, error) {
			return s.repo.List(ctx, nil, nil)
		})
	} else {
		salidas, err = s.repo.List(ctx, desde, hasta)
	}
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SalidaResponse, len(salidas))
	for i := range salidas {
		resp[i] = *salidaToResponse(&salidas[i])
	}
	return resp, nil
}

// Eliminar puts the removed quantities back into stock.
func (s *salidaService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	var sal *model.Salida
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		found, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return noEncontrado(err, "salida no encontrada")
		}
		if err := s.repo.DeleteTx(tx, id); err != nil {
			return noEncontrado(err, "salida no encontrada")
		}
		for _, it := range found.Items {
			if err := s.productos.AjustarStockTx(tx, it.ProductoID, it.Cantidad); err != nil {
				return err
			}
		}
		sal = found
		return nil
	})
	if txErr != nil {
		return txErr
	}
	s.despuesDeEscribir(ctx, actor, "eliminar", id, map[string]any{"salida_id": id.String(), "motivo": sal.Motivo})
	return nil
}

func (s *salidaService) despuesDeEscribir(ctx context.Context, actor Actor, accion string, id uuid.UUID, detalle map[string]any) {
	s.cache.Clear(cache.Salidas, cache.Stock)
	if s.auditoria != nil {
		s.auditoria.Registrar(ctx, Entrada{Accion: accion, Modulo: cache.Salidas, Actor: actor, Detalle: detalle})
	}
	notificar(ctx, s.eventos, cache.Salidas, accion, id)
	notificar(ctx, s.eventos, cache.Stock, "actualizar", uuid.Nil)
}

func salidaToResponse(s *model.Salida) *dto.SalidaResponse {
	resp := &dto.SalidaResponse{
		ID:       s.ID.String(),
		Fecha:    fechaISO(s.Fecha),
		Operador: s.Operador,
		Motivo:   s.Motivo,
		Items:    make([]dto.ItemSalidaResponse, len(s.Items)),
	}
	for i, it := range s.Items {
		resp.Items[i] = dto.ItemSalidaResponse{ProductoID: it.ProductoID.String(), Nombre: it.Nombre, Cantidad: it.Cantidad}
	}
	return resp
}
