package infra

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"almacenpos/internal/moneda"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// TicketVenta is one line of the closing ticket. Amounts are already
// summarised for printing.
type TicketVenta struct {
	Fecha         time.Time
	Cliente       string
	Efectivo      decimal.Decimal
	Tarjeta       decimal.Decimal
	Transferencia decimal.Decimal
	Total         decimal.Decimal
}

// TicketCierre is everything printed on a caja closing ticket.
type TicketCierre struct {
	Negocio       string
	CajaID        string
	Operador      string
	Apertura      time.Time
	Cierre        *time.Time
	Ventas        []TicketVenta
	Efectivo      decimal.Decimal
	Tarjeta       decimal.Decimal
	Transferencia decimal.Decimal
	Total         decimal.Decimal
}

// GenerarTicketCierrePDF renders an 80mm thermal-style ticket. Page height
// grows with the number of sales.
func GenerarTicketCierrePDF(t TicketCierre) ([]byte, error) {
	alto := 95.0 + 9.0*float64(len(t.Ventas))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: alto},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(t.Negocio), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Cierre de caja", "", 1, "C", false, 0, "")
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, tr("Operador: "+t.Operador), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Apertura: "+t.Apertura.Local().Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	if t.Cierre != nil {
		pdf.CellFormat(contentW, 4, tr("Cierre: "+t.Cierre.Local().Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Ventas ───────────────────────────────────────────────────────────────
	col1 := contentW * 0.22
	col2 := contentW * 0.43
	col3 := contentW * 0.35

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Hora", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cliente", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, v := range t.Ventas {
		cliente := v.Cliente
		if cliente == "" {
			cliente = "Consumidor final"
		}
		if len([]rune(cliente)) > 22 {
			cliente = string([]rune(cliente)[:21]) + "."
		}
		pdf.CellFormat(col1, 4, v.Fecha.Local().Format("15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 4, tr(cliente), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, moneda.Formatear(v.Total), "", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "I", 6)
		detalle := fmt.Sprintf("Ef %s  Tj %s  Tr %s",
			v.Efectivo.StringFixed(0), v.Tarjeta.StringFixed(0), v.Transferencia.StringFixed(0))
		pdf.CellFormat(contentW, 4, detalle, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totales ──────────────────────────────────────────────────────────────
	fila := func(label string, monto decimal.Decimal) {
		pdf.CellFormat(col1+col2, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, moneda.Formatear(monto), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 8)
	fila("Efectivo", t.Efectivo)
	fila("Tarjeta", t.Tarjeta)
	fila("Transferencia", t.Transferencia)
	pdf.SetFont("Helvetica", "B", 9)
	fila(fmt.Sprintf("TOTAL (%d ventas)", len(t.Ventas)), t.Total)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// GuardarTicketCierre writes the ticket under storagePath and returns the
// file path, used as the email attachment.
func GuardarTicketCierre(t TicketCierre, storagePath string) (string, error) {
	data, err := GenerarTicketCierrePDF(t)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	path := filepath.Join(storagePath, fmt.Sprintf("cierre_%s.pdf", t.CajaID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return path, nil
}
