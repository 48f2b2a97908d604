package service

import (
	"context"
	"testing"

	"almacenpos/internal/apierror"
	"almacenpos/internal/cache"
	"almacenpos/internal/dto"
	"almacenpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildProductoSvc() (ProductoService, *stubProductoRepo, *cache.Cache, *stubAuditor, *stubPublicador) {
	repo := newStubProductoRepo()
	c := cache.New()
	aud := &stubAuditor{}
	pub := &stubPublicador{}
	return NewProductoService(repo, c, aud, pub), repo, c, aud, pub
}

var admin = Actor{ID: uuid.New(), Nombre: "Pedro", Rol: model.RolAdministrador}

func TestProductoCrear_OK(t *testing.T) {
	svc, repo, _, aud, pub := buildProductoSvc()

	resp, err := svc.Crear(context.Background(), admin, dto.CrearProductoRequest{
		CodigoBarras: " 7790001 ",
		Nombre:       "Yerba Mate 500g",
		Categoria:    "Almacen",
		Cantidad:     12,
		PrecioCosto:  gs(9000),
		PrecioVenta:  gs(12500),
		StockMinimo:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, "7790001", resp.CodigoBarras)
	assert.False(t, resp.BajoMinimo)
	assert.Len(t, repo.productos, 1)
	assert.Equal(t, []string{"stock:crear"}, aud.acciones())
	assert.Equal(t, []string{cache.Stock}, pub.colecciones())
}

func TestProductoCrear_BarcodeDuplicado(t *testing.T) {
	svc, repo, _, _, _ := buildProductoSvc()
	repo.seed("Yerba", "7790001", 5, 9000, 12500)

	_, err := svc.Crear(context.Background(), admin, dto.CrearProductoRequest{
		CodigoBarras: "7790001", Nombre: "Otra", PrecioCosto: gs(1), PrecioVenta: gs(2),
	})
	assert.ErrorIs(t, err, apierror.ErrConflict)
	assert.Len(t, repo.productos, 1)
}

func TestProductoCrear_NegativosRechazados(t *testing.T) {
	svc, _, _, _, _ := buildProductoSvc()
	_, err := svc.Crear(context.Background(), admin, dto.CrearProductoRequest{
		CodigoBarras: "7790009", Nombre: "X", PrecioCosto: gs(-1), PrecioVenta: gs(10),
	})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestProductoCrear_MontosConDecimalesRechazados(t *testing.T) {
	svc, repo, _, aud, _ := buildProductoSvc()
	_, err := svc.Crear(context.Background(), admin, dto.CrearProductoRequest{
		CodigoBarras: "7790010",
		Nombre:       "Galletitas",
		PrecioCosto:  decimal.RequireFromString("0.4"),
		PrecioVenta:  decimal.RequireFromString("1000.5"),
	})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.Empty(t, repo.productos)
	assert.Empty(t, aud.acciones())
}

func TestProductoListar_UsaCache(t *testing.T) {
	svc, repo, _, _, _ := buildProductoSvc()
	repo.seed("Yerba", "7790001", 5, 9000, 12500)

	first, err := svc.Listar(context.Background(), dto.ProductoFilter{})
	require.NoError(t, err)
	second, err := svc.Listar(context.Background(), dto.ProductoFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, first.Total, second.Total)
}

func TestProductoListar_FiltroNoUsaCache(t *testing.T) {
	svc, repo, _, _, _ := buildProductoSvc()
	repo.seed("Yerba", "7790001", 5, 9000, 12500)
	repo.seed("Azucar", "7790002", 5, 5000, 7000)

	for i := 0; i < 2; i++ {
		resp, err := svc.Listar(context.Background(), dto.ProductoFilter{Nombre: "yer"})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Total)
	}
	assert.Equal(t, 2, repo.listCalls)
}

func TestProductoEscritura_InvalidaCache(t *testing.T) {
	svc, repo, c, _, _ := buildProductoSvc()
	p := repo.seed("Yerba", "7790001", 5, 9000, 12500)
	_, err := svc.Listar(context.Background(), dto.ProductoFilter{})
	require.NoError(t, err)

	nueva := 20
	_, err = svc.Actualizar(context.Background(), admin, p.ID, dto.ActualizarProductoRequest{Cantidad: &nueva})
	require.NoError(t, err)
	_, ok := c.Get(cache.Stock)
	assert.False(t, ok)

	resp, err := svc.Listar(context.Background(), dto.ProductoFilter{})
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Data[0].Cantidad)
	assert.Equal(t, 2, repo.listCalls)
}

func TestProductoActualizar_BarcodeDeOtroProducto(t *testing.T) {
	svc, repo, _, _, _ := buildProductoSvc()
	repo.seed("Yerba", "7790001", 5, 9000, 12500)
	b := repo.seed("Azucar", "7790002", 5, 5000, 7000)

	codigo := "7790001"
	_, err := svc.Actualizar(context.Background(), admin, b.ID, dto.ActualizarProductoRequest{CodigoBarras: &codigo})
	assert.ErrorIs(t, err, apierror.ErrConflict)
	assert.Equal(t, "7790002", repo.productos[b.ID].CodigoBarras)
}

func TestProductoActualizar_MismoBarcodeEsValido(t *testing.T) {
	svc, repo, _, _, _ := buildProductoSvc()
	p := repo.seed("Yerba", "7790001", 5, 9000, 12500)

	codigo := "7790001"
	precio := decimal.NewFromInt(13000)
	resp, err := svc.Actualizar(context.Background(), admin, p.ID, dto.ActualizarProductoRequest{CodigoBarras: &codigo, PrecioVenta: &precio})
	require.NoError(t, err)
	assertGs(t, 13000, resp.PrecioVenta, "precio venta")
}

func TestProductoEliminar_NoEncontrado(t *testing.T) {
	svc, _, _, aud, _ := buildProductoSvc()
	err := svc.Eliminar(context.Background(), admin, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Empty(t, aud.acciones())
}

func TestProductoAlertas(t *testing.T) {
	svc, repo, _, _, _ := buildProductoSvc()
	repo.seed("Yerba", "7790001", 1, 9000, 12500)
	repo.seed("Azucar", "7790002", 30, 5000, 7000)

	alertas, err := svc.Alertas(context.Background())
	require.NoError(t, err)
	require.Len(t, alertas, 1)
	assert.Equal(t, "Yerba", alertas[0].Nombre)
	assert.True(t, alertas[0].BajoMinimo)
}

func TestProductoObtenerPorBarcode(t *testing.T) {
	svc, repo, _, _, _ := buildProductoSvc()
	repo.seed("Yerba", "7790001", 1, 9000, 12500)

	p, err := svc.ObtenerPorBarcode(context.Background(), "7790001")
	require.NoError(t, err)
	assert.Equal(t, "Yerba", p.Nombre)

	_, err = svc.ObtenerPorBarcode(context.Background(), "0000")
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestProductoEventoFallidoNoFallaEscritura(t *testing.T) {
	repo := newStubProductoRepo()
	svc := NewProductoService(repo, cache.New(), nil, &stubPublicador{err: errRedisCaido})

	_, err := svc.Crear(context.Background(), admin, dto.CrearProductoRequest{
		CodigoBarras: "7790005", Nombre: "Fideos", PrecioCosto: gs(3000), PrecioVenta: gs(4500),
	})
	assert.NoError(t, err)
}

func TestProductoActualizar_PrecioConDecimalesRechazado(t *testing.T) {
	svc, repo, _, _, _ := buildProductoSvc()
	p := repo.seed("Yerba", "7790001", 5, 9000, 12500)

	precio := decimal.RequireFromString("12500.75")
	_, err := svc.Actualizar(context.Background(), admin, p.ID, dto.ActualizarProductoRequest{PrecioVenta: &precio})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assertGs(t, 12500, repo.productos[p.ID].PrecioVenta, "precio venta")
}
