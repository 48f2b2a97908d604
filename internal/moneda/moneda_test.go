package moneda

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatear(t *testing.T) {
	assert.Equal(t, "Gs. 1.234.567", Formatear(decimal.NewFromInt(1234567)))
	assert.Equal(t, "Gs. 0", Formatear(decimal.Zero))
	assert.Equal(t, "Gs. 1.234.568", Formatear(decimal.RequireFromString("1234567.6")))
}
