package service

import (
	"context"
	"fmt"
	"time"

	"almacenpos/internal/cache"
	"almacenpos/internal/dto"
	"almacenpos/internal/infra"
	"almacenpos/internal/model"
	"almacenpos/internal/repository"
)

type ReporteService interface {
	Generar(ctx context.Context, desde, hasta string) (*dto.ReporteResponse, error)
	// Exportar returns the xlsx workbook and a suggested file name.
	Exportar(ctx context.Context, desde, hasta string) ([]byte, string, error)
	Resumen(ctx context.Context) (*dto.ResumenResponse, error)
}

type reporteService struct {
	cajas        repository.CajaRepository
	reposiciones repository.ReposicionRepository
	productos    repository.ProductoRepository
	cache        *cache.Cache
	now          func() time.Time
}

func NewReporteService(
	cajas repository.CajaRepository,
	reposiciones repository.ReposicionRepository,
	productos repository.ProductoRepository,
	c *cache.Cache,
) ReporteService {
	return &reporteService{cajas: cajas, reposiciones: reposiciones, productos: productos, cache: c, now: time.Now}
}

func (s *reporteService) Generar(ctx context.Context, desde, hasta string) (*dto.ReporteResponse, error) {
	r, err := NuevoRango(desde, hasta)
	if err != nil {
		return nil, err
	}
	return s.generar(ctx, r)
}

func (s *reporteService) Exportar(ctx context.Context, desde, hasta string) ([]byte, string, error) {
	rep, err := s.Generar(ctx, desde, hasta)
	if err != nil {
		return nil, "", err
	}
	data, err := infra.GenerarReporteXLSX(*rep)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("reporte_%s_%s.xlsx", rep.Desde, rep.Hasta), nil
}

func (s *reporteService) Resumen(ctx context.Context) (*dto.ResumenResponse, error) {
	hoy, err := s.generar(ctx, RangoDelDia(s.now()))
	if err != nil {
		return nil, err
	}
	stock, err := s.stock(ctx)
	if err != nil {
		return nil, err
	}
	bajos := 0
	for _, p := range stock {
		if p.BajoMinimo() {
			bajos++
		}
	}
	abiertas, err := s.cajas.CountAbiertas(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ResumenResponse{Hoy: *hoy, ProductosBajos: bajos, CajasAbiertas: int(abiertas)}, nil
}

// generar reads the three collections through the cache and aggregates.
func (s *reporteService) generar(ctx context.Context, r Rango) (*dto.ReporteResponse, error) {
	cajas, err := cache.Lookup(s.cache, cache.Cajas, func() ([]model.Caja, error) {
		return s.cajas.ListConVentas(ctx)
	})
	if err != nil {
		return nil, err
	}
	reps, err := cache.Lookup(s.cache, cache.Reposiciones, func() ([]model.Reposicion, error) {
		return s.reposiciones.List(ctx, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	stock, err := s.stock(ctx)
	if err != nil {
		return nil, err
	}
	rep := Agregar(cajas, reps, stock, r)
	return &rep, nil
}

func (s *reporteService) stock(ctx context.Context) ([]model.Producto, error) {
	return cache.Lookup(s.cache, cache.Stock, func() ([]model.Producto, error) {
		return s.productos.List(ctx, dto.ProductoFilter{})
	})
}
