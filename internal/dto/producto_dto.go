package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	CodigoBarras string          `json:"codigo_barras" validate:"required,min=3,max=32"`
	Nombre       string          `json:"nombre"        validate:"required,min=2,max=120"`
	Categoria    string          `json:"categoria"     validate:"max=60"`
	Cantidad     int             `json:"cantidad"      validate:"min=0"`
	PrecioCosto  decimal.Decimal `json:"precio_costo"  validate:"min=0"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"  validate:"min=0"`
	StockMinimo  int             `json:"stock_minimo"  validate:"min=0"`
}

type ActualizarProductoRequest struct {
	CodigoBarras *string          `json:"codigo_barras" validate:"omitempty,min=3,max=32"`
	Nombre       *string          `json:"nombre"        validate:"omitempty,min=2,max=120"`
	Categoria    *string          `json:"categoria"     validate:"omitempty,max=60"`
	Cantidad     *int             `json:"cantidad"      validate:"omitempty,min=0"`
	PrecioCosto  *decimal.Decimal `json:"precio_costo"`
	PrecioVenta  *decimal.Decimal `json:"precio_venta"`
	StockMinimo  *int             `json:"stock_minimo"  validate:"omitempty,min=0"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

// ProductoFilter is bound from the query string of GET /v1/stock. An empty
// filter is answered from the cache.
type ProductoFilter struct {
	Nombre    string `form:"nombre"`
	Categoria string `form:"categoria"`
}

func (f ProductoFilter) Vacio() bool { return f.Nombre == "" && f.Categoria == "" }

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID           string          `json:"id"`
	CodigoBarras string          `json:"codigo_barras"`
	Nombre       string          `json:"nombre"`
	Categoria    string          `json:"categoria"`
	Cantidad     int             `json:"cantidad"`
	PrecioCosto  decimal.Decimal `json:"precio_costo"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"`
	StockMinimo  int             `json:"stock_minimo"`
	BajoMinimo   bool            `json:"bajo_minimo"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int                `json:"total"`
}
