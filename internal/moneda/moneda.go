// Package moneda formats Guaraní amounts for tickets, exports and API
// responses.
package moneda

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Spanish)

// Formatear renders an amount as "Gs. 1.234.567". Guaraníes have no minor
// unit, so the value is rounded to an integer first.
func Formatear(monto decimal.Decimal) string {
	return printer.Sprintf("Gs. %d", monto.Round(0).IntPart())
}
