package infra

import (
	"bytes"
	"fmt"

	"almacenpos/internal/dto"

	"github.com/xuri/excelize/v2"
)

// GenerarReporteXLSX builds the historical report workbook with three sheets:
// Resumen, Productos and Dias. Amounts are written as plain integers (Gs).
func GenerarReporteXLSX(r dto.ReporteResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Resumen"); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	gs, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return nil, err
	}

	// ── Resumen ──────────────────────────────────────────────────────────────
	resumen := [][]any{
		{"Desde", r.Desde},
		{"Hasta", r.Hasta},
		{"Cantidad de ventas", r.CantidadVentas},
		{"Total ventas", r.TotalVentas.IntPart()},
		{"Total reposiciones", r.TotalReposiciones.IntPart()},
		{"Ganancia", r.GananciaTotal.IntPart()},
		{"Efectivo", r.Pagos.Efectivo.IntPart()},
		{"Tarjeta", r.Pagos.Tarjeta.IntPart()},
		{"Transferencia", r.Pagos.Transferencia.IntPart()},
	}
	for i, row := range resumen {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Resumen", cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle("Resumen", "A1", fmt.Sprintf("A%d", len(resumen)), bold)
	_ = f.SetCellStyle("Resumen", "B4", fmt.Sprintf("B%d", len(resumen)), gs)
	_ = f.SetColWidth("Resumen", "A", "A", 22)
	_ = f.SetColWidth("Resumen", "B", "B", 16)

	// ── Productos ────────────────────────────────────────────────────────────
	if _, err := f.NewSheet("Productos"); err != nil {
		return nil, err
	}
	header := []any{"Producto", "Cantidad", "Ingresos", "Costo", "Ganancia"}
	if err := f.SetSheetRow("Productos", "A1", &header); err != nil {
		return nil, err
	}
	for i, p := range r.Productos {
		row := []any{p.Nombre, p.Cantidad, p.Ingresos.IntPart(), p.Costo.IntPart(), p.Ganancia.IntPart()}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("Productos", cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle("Productos", "A1", "E1", bold)
	if n := len(r.Productos); n > 0 {
		_ = f.SetCellStyle("Productos", "C2", fmt.Sprintf("E%d", n+1), gs)
	}
	_ = f.SetColWidth("Productos", "A", "A", 32)

	// ── Dias ─────────────────────────────────────────────────────────────────
	if _, err := f.NewSheet("Dias"); err != nil {
		return nil, err
	}
	header = []any{"Fecha", "Ventas", "Cantidad", "Reposiciones"}
	if err := f.SetSheetRow("Dias", "A1", &header); err != nil {
		return nil, err
	}
	for i, d := range r.Dias {
		row := []any{d.Fecha, d.Ventas.IntPart(), d.Cantidad, d.Reposiciones.IntPart()}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("Dias", cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle("Dias", "A1", "D1", bold)
	_ = f.SetColWidth("Dias", "A", "A", 12)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}
