package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, Status(NotFound("producto %s no encontrado", "x")))
	assert.Equal(t, http.StatusConflict, Status(Conflict("duplicado")))
	assert.Equal(t, http.StatusBadRequest, Status(Invalid("cantidad invalida")))
	assert.Equal(t, http.StatusUnauthorized, Status(Unauthorized("credenciales invalidas")))
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("pq: connection refused")))
	assert.Equal(t, http.StatusConflict, Status(fmt.Errorf("venta: %w", Conflict("caja cerrada"))))
}

func TestFromErrorHidesInternals(t *testing.T) {
	assert.Equal(t, "Error interno del servidor", FromError(errors.New("pq: relation does not exist")).Detail)
	assert.Equal(t, "producto x no encontrado", FromError(NotFound("producto %s no encontrado", "x")).Detail)
}
