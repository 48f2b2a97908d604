package service

import (
	"sort"
	"time"

	"almacenpos/internal/apierror"
	"almacenpos/internal/dto"
	"almacenpos/internal/model"
	"almacenpos/internal/moneda"

	"github.com/shopspring/decimal"
)

const layoutFecha = "2006-01-02"

// Rango is a day-level date range in local time. Both ends are inclusive.
type Rango struct {
	Desde time.Time // local midnight
	Hasta time.Time // local midnight of the last included day
}

// NuevoRango parses two YYYY-MM-DD dates as local days.
func NuevoRango(desde, hasta string) (Rango, error) {
	d, err := time.ParseInLocation(layoutFecha, desde, time.Local)
	if err != nil {
		return Rango{}, apierror.Invalid("fecha desde invalida: %q", desde)
	}
	h, err := time.ParseInLocation(layoutFecha, hasta, time.Local)
	if err != nil {
		return Rango{}, apierror.Invalid("fecha hasta invalida: %q", hasta)
	}
	if h.Before(d) {
		return Rango{}, apierror.Invalid("la fecha hasta (%s) es anterior a desde (%s)", hasta, desde)
	}
	return Rango{Desde: d, Hasta: h}, nil
}

// RangoDelDia returns the range covering only t's local day.
func RangoDelDia(t time.Time) Rango {
	d := dia(t)
	return Rango{Desde: d, Hasta: d}
}

// Fin is the exclusive upper bound: midnight after Hasta.
func (r Rango) Fin() time.Time { return r.Hasta.AddDate(0, 0, 1) }

// Contiene compares local calendar days, ignoring the time of day.
func (r Rango) Contiene(t time.Time) bool {
	d := dia(t)
	return !d.Before(r.Desde) && !d.After(r.Hasta)
}

func dia(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Agregar scans every caja's sales and every reposición, keeps the ones inside
// r and accumulates the report.
//
// Product cost is the current precio de costo of the stock item with the same
// name; items no longer in stock count with cost 0. Historical cost at the
// time of sale is not tracked, so margins drift when costs change.
func Agregar(cajas []model.Caja, reposiciones []model.Reposicion, stock []model.Producto, r Rango) dto.ReporteResponse {
	costos := make(map[string]decimal.Decimal, len(stock))
	for _, p := range stock {
		if _, ok := costos[p.Nombre]; !ok {
			costos[p.Nombre] = p.PrecioCosto
		}
	}

	productos := map[string]*dto.ProductoReporte{}
	dias := map[string]*dto.DiaReporte{}
	diaDe := func(t time.Time) *dto.DiaReporte {
		k := dia(t).Format(layoutFecha)
		d, ok := dias[k]
		if !ok {
			d = &dto.DiaReporte{Fecha: k}
			dias[k] = d
		}
		return d
	}

	rep := dto.ReporteResponse{
		Desde: r.Desde.Format(layoutFecha),
		Hasta: r.Hasta.Format(layoutFecha),
	}
	var asignaciones []Asignacion

	for _, c := range cajas {
		for _, v := range c.Ventas {
			if !r.Contiene(v.Fecha) {
				continue
			}
			rep.TotalVentas = rep.TotalVentas.Add(v.Total)
			rep.CantidadVentas++
			asignaciones = append(asignaciones, AsignarPagos(v.Total, v.Efectivo, v.Tarjeta, v.Transferencia))

			d := diaDe(v.Fecha)
			d.Ventas = d.Ventas.Add(v.Total)
			d.Cantidad++

			for _, it := range v.Items {
				p, ok := productos[it.Nombre]
				if !ok {
					p = &dto.ProductoReporte{Nombre: it.Nombre}
					productos[it.Nombre] = p
				}
				p.Cantidad += it.Cantidad
				p.Ingresos = p.Ingresos.Add(it.Subtotal)
			}
		}
	}

	for _, rp := range reposiciones {
		if !r.Contiene(rp.Fecha) {
			continue
		}
		rep.TotalReposiciones = rep.TotalReposiciones.Add(rp.Total)
		d := diaDe(rp.Fecha)
		d.Reposiciones = d.Reposiciones.Add(rp.Total)
	}

	rep.Productos = make([]dto.ProductoReporte, 0, len(productos))
	for _, p := range productos {
		p.Costo = costos[p.Nombre].Mul(decimal.NewFromInt(int64(p.Cantidad)))
		p.Ganancia = p.Ingresos.Sub(p.Costo)
		rep.GananciaTotal = rep.GananciaTotal.Add(p.Ganancia)
		rep.Productos = append(rep.Productos, *p)
	}
	sort.Slice(rep.Productos, func(i, j int) bool {
		a, b := rep.Productos[i], rep.Productos[j]
		if !a.Ingresos.Equal(b.Ingresos) {
			return a.Ingresos.GreaterThan(b.Ingresos)
		}
		return a.Nombre < b.Nombre
	})

	rep.Dias = make([]dto.DiaReporte, 0, len(dias))
	for _, d := range dias {
		rep.Dias = append(rep.Dias, *d)
	}
	sort.Slice(rep.Dias, func(i, j int) bool { return rep.Dias[i].Fecha < rep.Dias[j].Fecha })

	rep.Pagos = montosPorMetodo(SumarAsignaciones(asignaciones))
	rep.TotalVentasFormato = moneda.Formatear(rep.TotalVentas)
	return rep
}

func montosPorMetodo(a Asignacion) dto.MontosPorMetodo {
	return dto.MontosPorMetodo{
		Efectivo:      a.Efectivo,
		Tarjeta:       a.Tarjeta,
		Transferencia: a.Transferencia,
		Total:         a.Aplicado(),
	}
}

// rangoOpcional parses an optional desde/hasta pair into [desde, fin) bounds.
// A missing side stays unbounded; both empty returns nil bounds.
func rangoOpcional(desde, hasta string) (*time.Time, *time.Time, error) {
	var d, f *time.Time
	if desde != "" {
		t, err := time.ParseInLocation(layoutFecha, desde, time.Local)
		if err != nil {
			return nil, nil, apierror.Invalid("fecha desde invalida: %q", desde)
		}
		d = &t
	}
	if hasta != "" {
		t, err := time.ParseInLocation(layoutFecha, hasta, time.Local)
		if err != nil {
			return nil, nil, apierror.Invalid("fecha hasta invalida: %q", hasta)
		}
		t = t.AddDate(0, 0, 1)
		f = &t
	}
	if d != nil && f != nil && !f.After(*d) {
		return nil, nil, apierror.Invalid("la fecha hasta (%s) es anterior a desde (%s)", hasta, desde)
	}
	return d, f, nil
}
