package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"almacenpos/internal/apierror"
	"almacenpos/internal/cache"
	"almacenpos/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Suscriptor is satisfied by *infra.EventBus.
type Suscriptor interface {
	Suscribir(ctx context.Context, coleccion string) (<-chan infra.Evento, error)
}

var coleccionesValidas = map[string]bool{
	cache.Stock:        true,
	cache.Clientes:     true,
	cache.Cajas:        true,
	cache.Reposiciones: true,
	cache.Salidas:      true,
	cache.Usuarios:     true,
}

type EventosHandler struct {
	bus       Suscriptor
	keepAlive time.Duration
}

func NewEventosHandler(bus Suscriptor) *EventosHandler {
	return &EventosHandler{bus: bus, keepAlive: 25 * time.Second}
}

// Stream godoc
// @Summary      Suscribirse a cambios de una coleccion
// @Description  Server-Sent Events. Cada evento indica coleccion, accion e id; el cliente vuelve a leer la coleccion.
// @Tags         eventos
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        coleccion path string true "stock | clientes | cajas | reposiciones | salidas | usuarios"
// @Router       /v1/eventos/{coleccion} [get]
func (h *EventosHandler) Stream(c *gin.Context) {
	col := c.Param("coleccion")
	if !coleccionesValidas[col] {
		c.JSON(http.StatusNotFound, apierror.New("coleccion desconocida: "+col))
		return
	}

	ctx := c.Request.Context()
	eventos, err := h.bus.Suscribir(ctx, col)
	if err != nil {
		log.Warn().Err(err).Str("coleccion", col).Msg("eventos: subscribe failed")
		c.JSON(http.StatusServiceUnavailable, apierror.New("Eventos no disponibles"))
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-eventos:
			if !ok {
				return false
			}
			c.SSEvent(ev.Accion, ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"t": time.Now().Unix()})
			return true
		}
	})
}
