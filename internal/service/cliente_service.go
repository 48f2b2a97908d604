package service

import (
	"context"
	"strings"

	"almacenpos/internal/cache"
	"almacenpos/internal/dto"
	"almacenpos/internal/model"
	"almacenpos/internal/repository"

	"github.com/google/uuid"
)

type ClienteService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
}

type clienteService struct {
	repo      repository.ClienteRepository
	cache     *cache.Cache
	auditoria Auditor
	eventos   Publicador
}

func NewClienteService(repo repository.ClienteRepository, c *cache.Cache, auditoria Auditor, eventos Publicador) ClienteService {
	return &clienteService{repo: repo, cache: c, auditoria: auditoria, eventos: eventos}
}

func (s *clienteService) Crear(ctx context.Context, actor Actor, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nombre:    strings.TrimSpace(req.Nombre),
		RUC:       strings.TrimSpace(req.RUC),
		Telefono:  strings.TrimSpace(req.Telefono),
		Direccion: strings.TrimSpace(req.Direccion),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.despuesDeEscribir(ctx, actor, "crear", c.ID, map[string]any{"nombre": c.Nombre, "ruc": c.RUC})
	return clienteToResponse(c), nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente no encontrado")
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	var (
		clientes []model.Cliente
		err      error
	)
	if filter.Vacio() {
		clientes, err = cache.Lookup(s.cache, cache.Clientes, func() ([]model.Cliente, error) {
			return s.repo.List(ctx, dto.ClienteFilter{})
		})
	} else {
		clientes, err = s.repo.List(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	resp := &dto.ClienteListResponse{Data: make([]dto.ClienteResponse, len(clientes)), Total: len(clientes)}
	for i := range clientes {
		resp.Data[i] = *clienteToResponse(&clientes[i])
	}
	return resp, nil
}

func (s *clienteService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente no encontrado")
	}
	if req.Nombre != nil {
		c.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.RUC != nil {
		c.RUC = strings.TrimSpace(*req.RUC)
	}
	if req.Telefono != nil {
		c.Telefono = strings.TrimSpace(*req.Telefono)
	}
	if req.Direccion != nil {
		c.Direccion = strings.TrimSpace(*req.Direccion)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.despuesDeEscribir(ctx, actor, "actualizar", c.ID, map[string]any{"id": c.ID.String(), "nombre": c.Nombre})
	return clienteToResponse(c), nil
}

func (s *clienteService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return noEncontrado(err, "cliente no encontrado")
	}
	s.despuesDeEscribir(ctx, actor, "eliminar", id, map[string]any{"id": id.String()})
	return nil
}

func (s *clienteService) despuesDeEscribir(ctx context.Context, actor Actor, accion string, id uuid.UUID, detalle map[string]any) {
	s.cache.Clear(cache.Clientes)
	if s.auditoria != nil {
		s.auditoria.Registrar(ctx, Entrada{Accion: accion, Modulo: cache.Clientes, Actor: actor, Detalle: detalle})
	}
	notificar(ctx, s.eventos, cache.Clientes, accion, id)
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		RUC:       c.RUC,
		Telefono:  c.Telefono,
		Direccion: c.Direccion,
	}
}
