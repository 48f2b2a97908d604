package handler

import (
	"fmt"
	"net/http"

	"almacenpos/internal/dto"
	"almacenpos/internal/service"

	"github.com/gin-gonic/gin"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// Generar godoc
// @Summary      Reporte historico por rango de fechas
// @Description  Ventas, reposiciones y ganancia por producto y por dia. Ambas fechas son inclusivas.
// @Tags         reportes
// @Produce      json
// @Security     BearerAuth
// @Param        desde query string true "YYYY-MM-DD"
// @Param        hasta query string true "YYYY-MM-DD"
// @Success      200  {object} dto.ReporteResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/reportes [get]
func (h *ReportesHandler) Generar(c *gin.Context) {
	var f dto.ReporteFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.Generar(c.Request.Context(), f.Desde, f.Hasta)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Exportar godoc
// @Summary      Exportar reporte a Excel
// @Tags         reportes
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        desde query string true "YYYY-MM-DD"
// @Param        hasta query string true "YYYY-MM-DD"
// @Success      200  {file} binary
// @Router       /v1/reportes/exportar [get]
func (h *ReportesHandler) Exportar(c *gin.Context) {
	var f dto.ReporteFilter
	if !bindQuery(c, &f) {
		return
	}
	data, nombre, err := h.svc.Exportar(c.Request.Context(), f.Desde, f.Hasta)
	if err != nil {
		responderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, nombre))
	c.Data(http.StatusOK, mimeXLSX, data)
}

func (h *ReportesHandler) Resumen(c *gin.Context) {
	resp, err := h.svc.Resumen(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
