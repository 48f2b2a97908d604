package handler

import (
	"fmt"
	"net/http"

	"almacenpos/internal/dto"
	"almacenpos/internal/service"

	"github.com/gin-gonic/gin"
)

type CajasHandler struct{ svc service.CajaService }

func NewCajasHandler(svc service.CajaService) *CajasHandler { return &CajasHandler{svc: svc} }

// Abrir godoc
// @Summary      Abrir caja
// @Description  Abre una caja para el operador autenticado. Solo puede haber una abierta por operador.
// @Tags         cajas
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object} dto.CajaResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cajas/abrir [post]
func (h *CajasHandler) Abrir(c *gin.Context) {
	resp, err := h.svc.Abrir(c.Request.Context(), actor(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajasHandler) Activa(c *gin.Context) {
	resp, err := h.svc.Activa(c.Request.Context(), actor(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasHandler) Listar(c *gin.Context) {
	var filter dto.CajaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarVenta godoc
// @Summary      Registrar una venta en la caja
// @Description  Descuenta stock, agrega la venta a la caja y suma su total en una sola transaccion. Los pagos deben cubrir el total; el excedente se devuelve como vuelto.
// @Tags         cajas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "UUID de la caja"
// @Param        body body dto.RegistrarVentaRequest true "Items y pagos"
// @Success      201  {object} dto.VentaResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cajas/{id}/ventas [post]
func (h *CajasHandler) RegistrarVenta(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarVenta(c.Request.Context(), actor(c), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajasHandler) EliminarVenta(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ventaID, ok := paramID(c, "venta_id")
	if !ok {
		return
	}
	if err := h.svc.EliminarVenta(c.Request.Context(), actor(c), id, ventaID); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Cerrar godoc
// @Summary      Cerrar caja
// @Description  Cierra la caja y devuelve el resumen por metodo de pago. Si hay destinatario configurado se encola el ticket por email.
// @Tags         cajas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la caja"
// @Success      200  {object} dto.CierreCajaResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cajas/{id}/cerrar [post]
func (h *CajasHandler) Cerrar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), actor(c), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ticket godoc
// @Summary      Ticket PDF de la caja
// @Tags         cajas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path string true "UUID de la caja"
// @Success      200  {file} binary
// @Failure      404  {object} apierror.APIError
// @Router       /v1/cajas/{id}/ticket [get]
func (h *CajasHandler) Ticket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pdf, err := h.svc.Ticket(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="caja_%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
