package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

// RegistrarVentaRequest carries the raw amounts handed over per method. The
// sum must cover the total; the excess is returned as vuelto.
type RegistrarVentaRequest struct {
	ClienteID     *string            `json:"cliente_id"    validate:"omitempty,uuid"`
	Items         []ItemVentaRequest `json:"items"         validate:"required,min=1,dive"`
	Efectivo      decimal.Decimal    `json:"efectivo"      validate:"min=0"`
	Tarjeta       decimal.Decimal    `json:"tarjeta"       validate:"min=0"`
	Transferencia decimal.Decimal    `json:"transferencia" validate:"min=0"`
}

type CajaFilter struct {
	Estado string `form:"estado"` // abierta | cerrada | empty = todas
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// MontosPorMetodo holds amounts after allocation against the sale total.
type MontosPorMetodo struct {
	Efectivo      decimal.Decimal `json:"efectivo"`
	Tarjeta       decimal.Decimal `json:"tarjeta"`
	Transferencia decimal.Decimal `json:"transferencia"`
	Total         decimal.Decimal `json:"total"`
}

type ItemVentaResponse struct {
	ProductoID     *string         `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID            string              `json:"id"`
	CajaID        string              `json:"caja_id"`
	Fecha         string              `json:"fecha"`
	ClienteID     *string             `json:"cliente_id"`
	ClienteNombre string              `json:"cliente_nombre"`
	Items         []ItemVentaResponse `json:"items"`
	Efectivo      decimal.Decimal     `json:"efectivo"`
	Tarjeta       decimal.Decimal     `json:"tarjeta"`
	Transferencia decimal.Decimal     `json:"transferencia"`
	Total         decimal.Decimal     `json:"total"`
	Aplicado      MontosPorMetodo     `json:"aplicado"`
	Vuelto        decimal.Decimal     `json:"vuelto"`
}

type CajaResponse struct {
	ID         string          `json:"id"`
	UsuarioID  string          `json:"usuario_id"`
	Operador   string          `json:"operador"`
	Estado     string          `json:"estado"`
	Total      decimal.Decimal `json:"total"`
	AperturaAt string          `json:"apertura_at"`
	CierreAt   *string         `json:"cierre_at"`
	Ventas     []VentaResponse `json:"ventas"`
}

type CajaListResponse struct {
	Data  []CajaResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// CierreCajaResponse is the closing summary returned by POST /v1/cajas/:id/cerrar.
type CierreCajaResponse struct {
	CajaID         string          `json:"caja_id"`
	Operador       string          `json:"operador"`
	AperturaAt     string          `json:"apertura_at"`
	CierreAt       string          `json:"cierre_at"`
	CantidadVentas int             `json:"cantidad_ventas"`
	Aplicado       MontosPorMetodo `json:"aplicado"`
	VueltoTotal    decimal.Decimal `json:"vuelto_total"`
	Total          decimal.Decimal `json:"total"`
	TotalFormato   string          `json:"total_formato"` // "Gs. 1.234.567"
	EmailEncolado  bool            `json:"email_encolado"`
}
