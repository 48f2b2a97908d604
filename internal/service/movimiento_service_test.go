package service

import (
	"context"
	"testing"
	"time"

	"almacenpos/internal/apierror"
	"almacenpos/internal/cache"
	"almacenpos/internal/dto"
	"almacenpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildReposicionSvc() (*reposicionService, *stubReposicionRepo, *stubProductoRepo, *cache.Cache) {
	reps := newStubReposicionRepo()
	productos := newStubProductoRepo()
	c := cache.New()
	svc := NewReposicionService(reps, productos, c, &stubAuditor{}, &stubPublicador{}).(*reposicionService)
	return svc, reps, productos, c
}

func buildSalidaSvc() (SalidaService, *stubSalidaRepo, *stubProductoRepo) {
	salidas := newStubSalidaRepo()
	productos := newStubProductoRepo()
	return NewSalidaService(salidas, productos, cache.New(), &stubAuditor{}, &stubPublicador{}), salidas, productos
}

// ── Reposiciones ──────────────────────────────────────────────────────────────

func TestReposicionCrear_SumaStockYActualizaCosto(t *testing.T) {
	svc, reps, productos, c := buildReposicionSvc()
	p := productos.seed("Yerba", "7790001", 4, 9000, 12500)
	q := productos.seed("Azucar", "7790002", 2, 5000, 7000)
	c.Set(cache.Stock, []model.Producto{*p, *q})

	resp, err := svc.Crear(context.Background(), admin, dto.CrearReposicionRequest{Items: []dto.ItemReposicionRequest{
		{ProductoID: p.ID.String(), Cantidad: 10, CostoUnitario: gs(9500)},
		{ProductoID: q.ID.String(), Cantidad: 5},
	}})
	require.NoError(t, err)

	assertGs(t, 95000, resp.Total, "total")
	assert.Equal(t, 14, productos.productos[p.ID].Cantidad)
	assertGs(t, 9500, productos.productos[p.ID].PrecioCosto, "costo actualizado")
	assert.Equal(t, 7, productos.productos[q.ID].Cantidad)
	assertGs(t, 5000, productos.productos[q.ID].PrecioCosto, "costo sin cambio")
	assert.Len(t, reps.reps, 1)

	_, ok := c.Get(cache.Stock)
	assert.False(t, ok)
}

func TestReposicionCrear_ProductoInexistente(t *testing.T) {
	svc, reps, _, _ := buildReposicionSvc()
	_, err := svc.Crear(context.Background(), admin, dto.CrearReposicionRequest{Items: []dto.ItemReposicionRequest{
		{ProductoID: uuid.NewString(), Cantidad: 1, CostoUnitario: gs(100)},
	}})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Empty(t, reps.reps)
}

func TestReposicionCrear_CostoConDecimalesRechazado(t *testing.T) {
	svc, reps, productos, _ := buildReposicionSvc()
	p := productos.seed("Yerba", "7790001", 4, 9000, 12500)

	_, err := svc.Crear(context.Background(), admin, dto.CrearReposicionRequest{Items: []dto.ItemReposicionRequest{
		{ProductoID: p.ID.String(), Cantidad: 2, CostoUnitario: decimal.RequireFromString("9500.25")},
	}})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.Empty(t, reps.reps)
	assert.Equal(t, 4, productos.productos[p.ID].Cantidad)
	assertGs(t, 9000, productos.productos[p.ID].PrecioCosto, "costo")
}

func TestReposicionEliminar_RevierteStock(t *testing.T) {
	svc, reps, productos, _ := buildReposicionSvc()
	p := productos.seed("Yerba", "7790001", 4, 9000, 12500)
	resp, err := svc.Crear(context.Background(), admin, dto.CrearReposicionRequest{Items: []dto.ItemReposicionRequest{
		{ProductoID: p.ID.String(), Cantidad: 6, CostoUnitario: gs(9800)},
	}})
	require.NoError(t, err)

	require.NoError(t, svc.Eliminar(context.Background(), admin, uuid.MustParse(resp.ID)))
	assert.Equal(t, 4, productos.productos[p.ID].Cantidad)
	assertGs(t, 9800, productos.productos[p.ID].PrecioCosto, "el costo no se revierte")
	assert.Empty(t, reps.reps)
}

func TestReposicionEliminar_StockYaVendido(t *testing.T) {
	svc, reps, productos, _ := buildReposicionSvc()
	p := productos.seed("Yerba", "7790001", 0, 9000, 12500)
	resp, err := svc.Crear(context.Background(), admin, dto.CrearReposicionRequest{Items: []dto.ItemReposicionRequest{
		{ProductoID: p.ID.String(), Cantidad: 6, CostoUnitario: gs(9000)},
	}})
	require.NoError(t, err)
	productos.productos[p.ID].Cantidad = 2

	err = svc.Eliminar(context.Background(), admin, uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, apierror.ErrConflict)
	assert.Len(t, reps.reps, 1)
}

func TestReposicionEliminar_BorradaPorOtraTransaccion(t *testing.T) {
	reps := newStubReposicionRepo()
	productos := newStubProductoRepo()
	aud := &stubAuditor{}
	svc := NewReposicionService(reps, productos, cache.New(), aud, &stubPublicador{})
	p := productos.seed("Yerba", "7790001", 4, 9000, 12500)
	resp, err := svc.Crear(context.Background(), admin, dto.CrearReposicionRequest{Items: []dto.ItemReposicionRequest{
		{ProductoID: p.ID.String(), Cantidad: 6, CostoUnitario: gs(9000)},
	}})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	reps.trasLeer = func() { delete(reps.reps, id) }

	err = svc.Eliminar(context.Background(), admin, id)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Equal(t, []string{"reposiciones:crear"}, aud.acciones())
}

func TestReposicionListar_RangoYCache(t *testing.T) {
	svc, reps, _, _ := buildReposicionSvc()
	reps.reps[uuid.New()] = &model.Reposicion{Fecha: time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local), Total: gs(1000)}
	reps.reps[uuid.New()] = &model.Reposicion{Fecha: time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local), Total: gs(2000)}

	todas, err := svc.Listar(context.Background(), dto.RangoFilter{})
	require.NoError(t, err)
	assert.Len(t, todas, 2)
	_, err = svc.Listar(context.Background(), dto.RangoFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, reps.listCalls)

	marzo10, err := svc.Listar(context.Background(), dto.RangoFilter{Desde: "2024-03-05", Hasta: "2024-03-10"})
	require.NoError(t, err)
	require.Len(t, marzo10, 1)
	assertGs(t, 2000, marzo10[0].Total, "total")

	_, err = svc.Listar(context.Background(), dto.RangoFilter{Desde: "05/03/2024"})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

// ── Salidas ───────────────────────────────────────────────────────────────────

func TestSalidaCrear_DescuentaStock(t *testing.T) {
	svc, salidas, productos := buildSalidaSvc()
	p := productos.seed("Leche", "7790003", 10, 5000, 7000)

	resp, err := svc.Crear(context.Background(), admin, dto.CrearSalidaRequest{
		Motivo: "vencido",
		Items:  []dto.ItemSalidaRequest{{ProductoID: p.ID.String(), Cantidad: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "vencido", resp.Motivo)
	assert.Equal(t, 7, productos.productos[p.ID].Cantidad)
	assert.Len(t, salidas.salidas, 1)
}

func TestSalidaCrear_StockInsuficiente(t *testing.T) {
	svc, salidas, productos := buildSalidaSvc()
	p := productos.seed("Leche", "7790003", 1, 5000, 7000)

	_, err := svc.Crear(context.Background(), admin, dto.CrearSalidaRequest{
		Motivo: "rotura",
		Items:  []dto.ItemSalidaRequest{{ProductoID: p.ID.String(), Cantidad: 3}},
	})
	assert.ErrorIs(t, err, apierror.ErrConflict)
	assert.Equal(t, 1, productos.productos[p.ID].Cantidad)
	assert.Empty(t, salidas.salidas)
}

func TestSalidaEliminar_DevuelveStock(t *testing.T) {
	svc, salidas, productos := buildSalidaSvc()
	p := productos.seed("Leche", "7790003", 10, 5000, 7000)
	resp, err := svc.Crear(context.Background(), admin, dto.CrearSalidaRequest{
		Motivo: "consumo propio",
		Items:  []dto.ItemSalidaRequest{{ProductoID: p.ID.String(), Cantidad: 4}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Eliminar(context.Background(), admin, uuid.MustParse(resp.ID)))
	assert.Equal(t, 10, productos.productos[p.ID].Cantidad)
	assert.Empty(t, salidas.salidas)
}

func TestSalidaEliminar_DobleEliminacionDevuelveStockUnaVez(t *testing.T) {
	salidas := newStubSalidaRepo()
	productos := newStubProductoRepo()
	aud := &stubAuditor{}
	svc := NewSalidaService(salidas, productos, cache.New(), aud, &stubPublicador{})
	p := productos.seed("Leche", "7790003", 10, 5000, 7000)
	resp, err := svc.Crear(context.Background(), admin, dto.CrearSalidaRequest{
		Motivo: "vencido",
		Items:  []dto.ItemSalidaRequest{{ProductoID: p.ID.String(), Cantidad: 4}},
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	var primero error
	salidas.trasLeer = func() { primero = svc.Eliminar(context.Background(), admin, id) }

	err = svc.Eliminar(context.Background(), admin, id)
	require.NoError(t, primero)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Equal(t, 10, productos.productos[p.ID].Cantidad)
	assert.Equal(t, []string{"salidas:crear", "salidas:eliminar"}, aud.acciones())
}
