package service

import "github.com/shopspring/decimal"

// Asignacion is the result of allocating a sale's payments against its
// total. Efectivo, Tarjeta and Transferencia hold the applied amounts.
type Asignacion struct {
	Efectivo      decimal.Decimal
	Tarjeta       decimal.Decimal
	Transferencia decimal.Decimal
	Vuelto        decimal.Decimal
}

// Aplicado is the sum of the applied amounts; never more than the sale total.
func (a Asignacion) Aplicado() decimal.Decimal {
	return a.Efectivo.Add(a.Tarjeta).Add(a.Transferencia)
}

func noNegativo(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// AsignarPagos applies efectivo, then tarjeta, then transferencia, each capped
// at what is still unpaid. Vuelto is max(0, efectivo+tarjeta+transferencia-total).
// Negative inputs count as zero.
func AsignarPagos(total, efectivo, tarjeta, transferencia decimal.Decimal) Asignacion {
	total = noNegativo(total)
	montos := [3]decimal.Decimal{noNegativo(efectivo), noNegativo(tarjeta), noNegativo(transferencia)}

	var aplicado [3]decimal.Decimal
	restante := total
	for i, m := range montos {
		aplicado[i] = decimal.Min(m, restante)
		restante = restante.Sub(aplicado[i])
	}

	pagado := montos[0].Add(montos[1]).Add(montos[2])
	return Asignacion{
		Efectivo:      aplicado[0],
		Tarjeta:       aplicado[1],
		Transferencia: aplicado[2],
		Vuelto:        noNegativo(pagado.Sub(total)),
	}
}

// ResumenTicket produces the amounts printed on the closing ticket: the raw
// amounts minus the change, taken from transferencia first, then tarjeta,
// then efectivo.
func ResumenTicket(total, efectivo, tarjeta, transferencia decimal.Decimal) Asignacion {
	total = noNegativo(total)
	montos := [3]decimal.Decimal{noNegativo(efectivo), noNegativo(tarjeta), noNegativo(transferencia)}

	pagado := montos[0].Add(montos[1]).Add(montos[2])
	vuelto := noNegativo(pagado.Sub(total))
	exceso := vuelto
	for i := len(montos) - 1; i >= 0 && exceso.IsPositive(); i-- {
		quitar := decimal.Min(montos[i], exceso)
		montos[i] = montos[i].Sub(quitar)
		exceso = exceso.Sub(quitar)
	}

	return Asignacion{
		Efectivo:      montos[0],
		Tarjeta:       montos[1],
		Transferencia: montos[2],
		Vuelto:        vuelto,
	}
}

// SumarAsignaciones adds up applied amounts (not raw payments) per method.
func SumarAsignaciones(asignaciones []Asignacion) Asignacion {
	var s Asignacion
	for _, a := range asignaciones {
		s.Efectivo = s.Efectivo.Add(a.Efectivo)
		s.Tarjeta = s.Tarjeta.Add(a.Tarjeta)
		s.Transferencia = s.Transferencia.Add(a.Transferencia)
		s.Vuelto = s.Vuelto.Add(a.Vuelto)
	}
	return s
}
