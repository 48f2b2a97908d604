package dto

import "github.com/shopspring/decimal"

// ReporteFilter is bound from GET /v1/reportes and /v1/reportes/exportar.
type ReporteFilter struct {
	Desde string `form:"desde" validate:"required,datetime=2006-01-02"`
	Hasta string `form:"hasta" validate:"required,datetime=2006-01-02"`
}

type ProductoReporte struct {
	Nombre   string          `json:"nombre"`
	Cantidad int             `json:"cantidad"`
	Ingresos decimal.Decimal `json:"ingresos"`
	Costo    decimal.Decimal `json:"costo"`
	Ganancia decimal.Decimal `json:"ganancia"`
}

type DiaReporte struct {
	Fecha        string          `json:"fecha"` // YYYY-MM-DD
	Ventas       decimal.Decimal `json:"ventas"`
	Cantidad     int             `json:"cantidad"`
	Reposiciones decimal.Decimal `json:"reposiciones"`
}

type ReporteResponse struct {
	Desde              string            `json:"desde"`
	Hasta              string            `json:"hasta"`
	TotalVentas        decimal.Decimal   `json:"total_ventas"`
	TotalReposiciones  decimal.Decimal   `json:"total_reposiciones"`
	GananciaTotal      decimal.Decimal   `json:"ganancia_total"`
	CantidadVentas     int               `json:"cantidad_ventas"`
	Pagos              MontosPorMetodo   `json:"pagos"`
	Productos          []ProductoReporte `json:"productos"`
	Dias               []DiaReporte      `json:"dias"`
	TotalVentasFormato string            `json:"total_ventas_formato"`
}

// ResumenResponse feeds the dashboard: today's figures plus stock alerts.
type ResumenResponse struct {
	Hoy            ReporteResponse `json:"hoy"`
	ProductosBajos int             `json:"productos_bajo_minimo"`
	CajasAbiertas  int             `json:"cajas_abiertas"`
}
