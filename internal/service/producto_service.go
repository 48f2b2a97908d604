package service

import (
	"context"
	"errors"
	"strings"

	"almacenpos/internal/apierror"
	"almacenpos/internal/cache"
	"almacenpos/internal/dto"
	"almacenpos/internal/model"
	"almacenpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const moduloStock = "stock"

type ProductoService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	ObtenerPorBarcode(ctx context.Context, codigo string) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Alertas(ctx context.Context) ([]dto.ProductoResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
}

type productoService struct {
	repo      repository.ProductoRepository
	cache     *cache.Cache
	auditoria Auditor
	eventos   Publicador
}

func NewProductoService(repo repository.ProductoRepository, c *cache.Cache, auditoria Auditor, eventos Publicador) ProductoService {
	return &productoService{repo: repo, cache: c, auditoria: auditoria, eventos: eventos}
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *productoService) Crear(ctx context.Context, actor Actor, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if req.PrecioCosto.IsNegative() || req.PrecioVenta.IsNegative() || req.Cantidad < 0 || req.StockMinimo < 0 {
		return nil, apierror.Invalid("cantidades y precios no pueden ser negativos")
	}
	if err := montoEntero("precio_costo", req.PrecioCosto); err != nil {
		return nil, err
	}
	if err := montoEntero("precio_venta", req.PrecioVenta); err != nil {
		return nil, err
	}
	codigo := strings.TrimSpace(req.CodigoBarras)
	if err := s.barcodeLibre(ctx, codigo, uuid.Nil); err != nil {
		return nil, err
	}

	p := &model.Producto{
		CodigoBarras: codigo,
		Nombre:       strings.TrimSpace(req.Nombre),
		Categoria:    strings.TrimSpace(req.Categoria),
		Cantidad:     req.Cantidad,
		PrecioCosto:  req.PrecioCosto,
		PrecioVenta:  req.PrecioVenta,
		StockMinimo:  req.StockMinimo,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, barcodeDuplicado(err, codigo)
	}

	s.despuesDeEscribir(ctx, actor, "crear", p.ID, map[string]any{
		"nombre": p.Nombre, "codigo_barras": p.CodigoBarras, "cantidad": p.Cantidad,
	})
	return productoToResponse(p), nil
}

// ── Lecturas ──────────────────────────────────────────────────────────────────

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto no encontrado")
	}
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorBarcode(ctx context.Context, codigo string) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByBarcode(ctx, strings.TrimSpace(codigo))
	if err != nil {
		return nil, noEncontrado(err, "no hay producto con codigo %s", codigo)
	}
	return productoToResponse(p), nil
}

// Listar serves the unfiltered list from the cache; filtered queries always
// go to the database.
func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	var (
		productos []model.Producto
		err       error
	)
	if filter.Vacio() {
		productos, err = cache.Lookup(s.cache, cache.Stock, func() ([]model.Producto, error) {
			return s.repo.List(ctx, dto.ProductoFilter{})
		})
	} else {
		productos, err = s.repo.List(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.ProductoListResponse{Data: make([]dto.ProductoResponse, len(productos)), Total: len(productos)}
	for i := range productos {
		resp.Data[i] = *productoToResponse(&productos[i])
	}
	return resp, nil
}

func (s *productoService) Alertas(ctx context.Context) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.ListBajoMinimo(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductoResponse, len(productos))
	for i := range productos {
		resp[i] = *productoToResponse(&productos[i])
	}
	return resp, nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────

func (s *productoService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto no encontrado")
	}

	cambios := map[string]any{}
	if req.CodigoBarras != nil {
		codigo := strings.TrimSpace(*req.CodigoBarras)
		if codigo != p.CodigoBarras {
			if err := s.barcodeLibre(ctx, codigo, p.ID); err != nil {
				return nil, err
			}
			cambios["codigo_barras"] = codigo
			p.CodigoBarras = codigo
		}
	}
	if req.Nombre != nil {
		p.Nombre = strings.TrimSpace(*req.Nombre)
		cambios["nombre"] = p.Nombre
	}
	if req.Categoria != nil {
		p.Categoria = strings.TrimSpace(*req.Categoria)
		cambios["categoria"] = p.Categoria
	}
	if req.Cantidad != nil {
		if *req.Cantidad < 0 {
			return nil, apierror.Invalid("la cantidad no puede ser negativa")
		}
		cambios["cantidad"] = map[string]int{"antes": p.Cantidad, "despues": *req.Cantidad}
		p.Cantidad = *req.Cantidad
	}
	if req.PrecioCosto != nil {
		if req.PrecioCosto.IsNegative() {
			return nil, apierror.Invalid("el precio de costo no puede ser negativo")
		}
		if err := montoEntero("precio_costo", *req.PrecioCosto); err != nil {
			return nil, err
		}
		p.PrecioCosto = *req.PrecioCosto
		cambios["precio_costo"] = p.PrecioCosto
	}
	if req.PrecioVenta != nil {
		if req.PrecioVenta.IsNegative() {
			return nil, apierror.Invalid("el precio de venta no puede ser negativo")
		}
		if err := montoEntero("precio_venta", *req.PrecioVenta); err != nil {
			return nil, err
		}
		p.PrecioVenta = *req.PrecioVenta
		cambios["precio_venta"] = p.PrecioVenta
	}
	if req.StockMinimo != nil {
		if *req.StockMinimo < 0 {
			return nil, apierror.Invalid("el stock minimo no puede ser negativo")
		}
		p.StockMinimo = *req.StockMinimo
		cambios["stock_minimo"] = p.StockMinimo
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, barcodeDuplicado(err, p.CodigoBarras)
	}
	cambios["id"] = p.ID.String()
	s.despuesDeEscribir(ctx, actor, "actualizar", p.ID, cambios)
	return productoToResponse(p), nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────

func (s *productoService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "producto no encontrado")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return noEncontrado(err, "producto no encontrado")
	}
	s.despuesDeEscribir(ctx, actor, "eliminar", id, map[string]any{"id": id.String(), "nombre": p.Nombre})
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// barcodeLibre fails with a conflict when another product already uses codigo.
func (s *productoService) barcodeLibre(ctx context.Context, codigo string, propio uuid.UUID) error {
	existente, err := s.repo.FindByBarcode(ctx, codigo)
	switch {
	case err == nil && existente.ID != propio:
		return apierror.Conflict("el codigo de barras %s ya existe (%s)", codigo, existente.Nombre)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return nil
}

// barcodeDuplicado covers the race the pre-check cannot: the unique index
// rejecting a concurrent insert.
func barcodeDuplicado(err error, codigo string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apierror.Conflict("el codigo de barras %s ya existe", codigo)
	}
	return err
}

func (s *productoService) despuesDeEscribir(ctx context.Context, actor Actor, accion string, id uuid.UUID, detalle map[string]any) {
	s.cache.Clear(cache.Stock)
	if s.auditoria != nil {
		s.auditoria.Registrar(ctx, Entrada{Accion: accion, Modulo: moduloStock, Actor: actor, Detalle: detalle})
	}
	notificar(ctx, s.eventos, cache.Stock, accion, id)
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:           p.ID.String(),
		CodigoBarras: p.CodigoBarras,
		Nombre:       p.Nombre,
		Categoria:    p.Categoria,
		Cantidad:     p.Cantidad,
		PrecioCosto:  p.PrecioCosto,
		PrecioVenta:  p.PrecioVenta,
		StockMinimo:  p.StockMinimo,
		BajoMinimo:   p.BajoMinimo(),
	}
}
