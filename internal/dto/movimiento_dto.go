package dto

import "github.com/shopspring/decimal"

// ─── Reposiciones ────────────────────────────────────────────────────────────

type ItemReposicionRequest struct {
	ProductoID    string          `json:"producto_id"    validate:"required,uuid"`
	Cantidad      int             `json:"cantidad"       validate:"required,min=1"`
	CostoUnitario decimal.Decimal `json:"costo_unitario" validate:"min=0"`
}

type CrearReposicionRequest struct {
	Items []ItemReposicionRequest `json:"items" validate:"required,min=1,dive"`
}

type ItemReposicionResponse struct {
	ProductoID    string          `json:"producto_id"`
	Nombre        string          `json:"nombre"`
	Cantidad      int             `json:"cantidad"`
	CostoUnitario decimal.Decimal `json:"costo_unitario"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type ReposicionResponse struct {
	ID       string                   `json:"id"`
	Fecha    string                   `json:"fecha"`
	Operador string                   `json:"operador"`
	Items    []ItemReposicionResponse `json:"items"`
	Total    decimal.Decimal          `json:"total"`
}

// ─── Salidas ─────────────────────────────────────────────────────────────────

type ItemSalidaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

type CrearSalidaRequest struct {
	Motivo string              `json:"motivo" validate:"required,min=3,max=200"`
	Items  []ItemSalidaRequest `json:"items"  validate:"required,min=1,dive"`
}

type ItemSalidaResponse struct {
	ProductoID string `json:"producto_id"`
	Nombre     string `json:"nombre"`
	Cantidad   int    `json:"cantidad"`
}

type SalidaResponse struct {
	ID       string               `json:"id"`
	Fecha    string               `json:"fecha"`
	Operador string               `json:"operador"`
	Motivo   string               `json:"motivo"`
	Items    []ItemSalidaResponse `json:"items"`
}

// RangoFilter is shared by listings that accept an optional YYYY-MM-DD range.
type RangoFilter struct {
	Desde string `form:"desde"`
	Hasta string `form:"hasta"`
}
