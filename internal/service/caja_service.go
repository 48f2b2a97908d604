package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"almacenpos/internal/apierror"
	"almacenpos/internal/cache"
	"almacenpos/internal/dto"
	"almacenpos/internal/infra"
	"almacenpos/internal/model"
	"almacenpos/internal/moneda"
	"almacenpos/internal/repository"
	"almacenpos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"gorm.io/gorm"
)

type CajaService interface {
	Abrir(ctx context.Context, actor Actor) (*dto.CajaResponse, error)
	Activa(ctx context.Context, actor Actor) (*dto.CajaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CajaResponse, error)
	Listar(ctx context.Context, filter dto.CajaFilter) (*dto.CajaListResponse, error)
	RegistrarVenta(ctx context.Context, actor Actor, cajaID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	EliminarVenta(ctx context.Context, actor Actor, cajaID, ventaID uuid.UUID) error
	Cerrar(ctx context.Context, actor Actor, cajaID uuid.UUID) (*dto.CierreCajaResponse, error)
	Ticket(ctx context.Context, cajaID uuid.UUID) ([]byte, error)
}

// EmailEncolador is satisfied by *worker.Dispatcher.
type EmailEncolador interface {
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
}

// CajaConfig carries the settings the closing ticket needs.
type CajaConfig struct {
	NegocioNombre  string
	CierreEmailTo  string // empty = closing tickets are not mailed
	PDFStoragePath string
}

type cajaMetricas struct {
	ventas  metric.Int64Counter
	cierres metric.Int64Counter
	montos  metric.Int64Histogram
}

// nuevasCajaMetricas never fails: an instrument that cannot be created is
// logged and replaced by a no-op.
func nuevasCajaMetricas(m metric.Meter) cajaMetricas {
	cm := cajaMetricas{ventas: noop.Int64Counter{}, cierres: noop.Int64Counter{}, montos: noop.Int64Histogram{}}

	if c, err := m.Int64Counter("ventas_registradas_total", metric.WithDescription("Ventas registradas")); err == nil {
		cm.ventas = c
	} else {
		avisarMetrica("ventas_registradas_total", err)
	}
	if c, err := m.Int64Counter("cajas_cerradas_total", metric.WithDescription("Cajas cerradas")); err == nil {
		cm.cierres = c
	} else {
		avisarMetrica("cajas_cerradas_total", err)
	}
	if h, err := m.Int64Histogram("venta_total_gs", metric.WithDescription("Total por venta en guaranies"), metric.WithUnit("{Gs}")); err == nil {
		cm.montos = h
	} else {
		avisarMetrica("venta_total_gs", err)
	}
	return cm
}

func avisarMetrica(nombre string, err error) {
	log.Warn().Err(err).Str("metrica", nombre).Msg("caja: metric instrument not created")
}

type cajaService struct {
	repo      repository.CajaRepository
	productos repository.ProductoRepository
	clientes  repository.ClienteRepository
	cache     *cache.Cache
	auditoria Auditor
	eventos   Publicador
	correo    EmailEncolador
	cfg       CajaConfig
	metricas  cajaMetricas
	now       func() time.Time
}

func NewCajaService(
	repo repository.CajaRepository,
	productos repository.ProductoRepository,
	clientes repository.ClienteRepository,
	c *cache.Cache,
	auditoria Auditor,
	eventos Publicador,
	correo EmailEncolador,
	cfg CajaConfig,
) CajaService {
	return &cajaService{
		repo:      repo,
		productos: productos,
		clientes:  clientes,
		cache:     c,
		auditoria: auditoria,
		eventos:   eventos,
		correo:    correo,
		cfg:       cfg,
		metricas:  nuevasCajaMetricas(otel.Meter("almacenpos/caja")),
		now:       time.Now,
	}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────
// One open caja per operator.

func (s *cajaService) Abrir(ctx context.Context, actor Actor) (*dto.CajaResponse, error) {
	existente, err := s.repo.FindAbiertaPorUsuario(ctx, actor.ID)
	switch {
	case err == nil:
		return nil, apierror.Conflict("ya tiene una caja abierta desde %s", existente.AperturaAt.Local().Format("02/01/2006 15:04"))
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	caja := &model.Caja{
		UsuarioID:  actor.ID,
		Operador:   actor.Nombre,
		Estado:     model.CajaAbierta,
		Total:      decimal.Zero,
		AperturaAt: s.now(),
	}
	if err := s.repo.Create(ctx, caja); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("ya tiene una caja abierta")
		}
		return nil, err
	}

	s.despuesDeEscribir(ctx, actor, "abrir", caja.ID, map[string]any{"caja_id": caja.ID.String()})
	return cajaToResponse(caja), nil
}

func (s *cajaService) Activa(ctx context.Context, actor Actor) (*dto.CajaResponse, error) {
	caja, err := s.repo.FindAbiertaPorUsuario(ctx, actor.ID)
	if err != nil {
		return nil, noEncontrado(err, "no hay caja abierta")
	}
	return cajaToResponse(caja), nil
}

func (s *cajaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CajaResponse, error) {
	caja, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "caja no encontrada")
	}
	return cajaToResponse(caja), nil
}

// Listar returns the caja history, newest first.
func (s *cajaService) Listar(ctx context.Context, filter dto.CajaFilter) (*dto.CajaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	cajas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.CajaListResponse{
		Data:  make([]dto.CajaResponse, len(cajas)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range cajas {
		resp.Data[i] = *cajaToResponse(&cajas[i])
	}
	return resp, nil
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Inside one transaction:
//   1. lock the caja row and check it is open
//   2. resolve every item at the current precio de venta and check stock
//   3. check the payments cover the total
//   4. decrement stock, insert the venta with its items, add to caja.total

type lineaVenta struct {
	producto *model.Producto
	cantidad int
	subtotal decimal.Decimal
}

func (s *cajaService) RegistrarVenta(ctx context.Context, actor Actor, cajaID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Invalid("la venta no tiene items")
	}
	if req.Efectivo.IsNegative() || req.Tarjeta.IsNegative() || req.Transferencia.IsNegative() {
		return nil, apierror.Invalid("los montos de pago no pueden ser negativos")
	}
	pagos := []struct {
		campo string
		monto decimal.Decimal
	}{{"efectivo", req.Efectivo}, {"tarjeta", req.Tarjeta}, {"transferencia", req.Transferencia}}
	for _, p := range pagos {
		if err := montoEntero(p.campo, p.monto); err != nil {
			return nil, err
		}
	}

	// Merge repeated products so the stock check sees the full quantity.
	orden := make([]uuid.UUID, 0, len(req.Items))
	cantidades := make(map[uuid.UUID]int, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, apierror.Invalid("producto_id invalido: %s", it.ProductoID)
		}
		if it.Cantidad <= 0 {
			return nil, apierror.Invalid("la cantidad debe ser mayor a cero")
		}
		if _, ok := cantidades[pid]; !ok {
			orden = append(orden, pid)
		}
		cantidades[pid] += it.Cantidad
	}

	var clienteID *uuid.UUID
	clienteNombre := ""
	if req.ClienteID != nil && *req.ClienteID != "" {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, apierror.Invalid("cliente_id invalido")
		}
		cliente, err := s.clientes.FindByID(ctx, cid)
		if err != nil {
			return nil, noEncontrado(err, "cliente no encontrado")
		}
		clienteID, clienteNombre = &cliente.ID, cliente.Nombre
	}

	var venta model.Venta
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		caja, err := s.repo.FindByIDTx(tx, cajaID)
		if err != nil {
			return noEncontrado(err, "caja no encontrada")
		}
		if !caja.Abierta() {
			return apierror.Conflict("la caja esta cerrada")
		}

		lineas := make([]lineaVenta, 0, len(orden))
		total := decimal.Zero
		for _, pid := range orden {
			p, err := s.productos.FindByIDTx(tx, pid)
			if err != nil {
				return noEncontrado(err, "producto %s no encontrado", pid)
			}
			cant := cantidades[pid]
			if p.Cantidad < cant {
				return apierror.Conflict("stock insuficiente para %s: disponible %d, solicitado %d", p.Nombre, p.Cantidad, cant)
			}
			sub := p.PrecioVenta.Mul(decimal.NewFromInt(int64(cant)))
			total = total.Add(sub)
			lineas = append(lineas, lineaVenta{producto: p, cantidad: cant, subtotal: sub})
		}

		pagado := req.Efectivo.Add(req.Tarjeta).Add(req.Transferencia)
		if pagado.LessThan(total) {
			return apierror.Invalid("pago insuficiente: total %s, recibido %s", moneda.Formatear(total), moneda.Formatear(pagado))
		}

		venta = model.Venta{
			CajaID:        cajaID,
			Fecha:         s.now(),
			ClienteID:     clienteID,
			ClienteNombre: clienteNombre,
			Efectivo:      req.Efectivo,
			Tarjeta:       req.Tarjeta,
			Transferencia: req.Transferencia,
			Total:         total,
		}
		for _, l := range lineas {
			if err := s.productos.DescontarStockTx(tx, l.producto.ID, l.cantidad); err != nil {
				if errors.Is(err, repository.ErrStockInsuficiente) {
					return apierror.Conflict("stock insuficiente para %s", l.producto.Nombre)
				}
				return fmt.Errorf("descontando stock de %s: %w", l.producto.Nombre, err)
			}
			pid := l.producto.ID
			venta.Items = append(venta.Items, model.VentaItem{
				ProductoID:     &pid,
				Nombre:         l.producto.Nombre,
				Cantidad:       l.cantidad,
				PrecioUnitario: l.producto.PrecioVenta,
				Subtotal:       l.subtotal,
			})
		}

		if err := s.repo.CreateVentaTx(tx, &venta); err != nil {
			return err
		}
		return s.repo.SumarTotalTx(tx, cajaID, total)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.cache.Clear(cache.Stock)
	s.despuesDeEscribir(ctx, actor, "venta", cajaID, map[string]any{
		"caja_id":  cajaID.String(),
		"venta_id": venta.ID.String(),
		"total":    venta.Total,
		"items":    len(venta.Items),
	})
	notificar(ctx, s.eventos, cache.Stock, "actualizar", uuid.Nil)

	s.metricas.ventas.Add(ctx, 1)
	s.metricas.montos.Record(ctx, venta.Total.IntPart())

	return ventaToResponse(&venta), nil
}

// ── EliminarVenta ─────────────────────────────────────────────────────────────
// Only while the caja is open. Restores stock and subtracts the total.

func (s *cajaService) EliminarVenta(ctx context.Context, actor Actor, cajaID, ventaID uuid.UUID) error {
	var venta *model.Venta
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		caja, err := s.repo.FindByIDTx(tx, cajaID)
		if err != nil {
			return noEncontrado(err, "caja no encontrada")
		}
		if !caja.Abierta() {
			return apierror.Conflict("no se pueden eliminar ventas de una caja cerrada")
		}
		venta, err = s.repo.FindVentaTx(tx, cajaID, ventaID)
		if err != nil {
			return noEncontrado(err, "venta no encontrada")
		}
		for _, it := range venta.Items {
			if it.ProductoID == nil {
				continue
			}
			if err := s.productos.AjustarStockTx(tx, *it.ProductoID, it.Cantidad); err != nil {
				return err
			}
		}
		if err := s.repo.DeleteVentaTx(tx, ventaID); err != nil {
			return err
		}
		return s.repo.SumarTotalTx(tx, cajaID, venta.Total.Neg())
	})
	if txErr != nil {
		return txErr
	}

	s.cache.Clear(cache.Stock)
	s.despuesDeEscribir(ctx, actor, "eliminar_venta", cajaID, map[string]any{
		"caja_id":  cajaID.String(),
		"venta_id": ventaID.String(),
		"total":    venta.Total,
	})
	notificar(ctx, s.eventos, cache.Stock, "actualizar", uuid.Nil)
	return nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────

// The caja row stays locked while its ventas are summed, so a sale cannot
// slip in between the sum and the state change.
func (s *cajaService) Cerrar(ctx context.Context, actor Actor, cajaID uuid.UUID) (*dto.CierreCajaResponse, error) {
	var (
		caja  *model.Caja
		total decimal.Decimal
		suma  Asignacion
	)
	cierre := s.now()
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		c, err := s.repo.FindByIDTx(tx, cajaID)
		if err != nil {
			return noEncontrado(err, "caja no encontrada")
		}
		if !c.Abierta() {
			return apierror.Conflict("la caja ya esta cerrada")
		}
		ventas, err := s.repo.FindVentasTx(tx, cajaID)
		if err != nil {
			return err
		}

		asignaciones := make([]Asignacion, len(ventas))
		total = decimal.Zero
		for i, v := range ventas {
			asignaciones[i] = AsignarPagos(v.Total, v.Efectivo, v.Tarjeta, v.Transferencia)
			total = total.Add(v.Total)
		}
		suma = SumarAsignaciones(asignaciones)

		if err := s.repo.CerrarTx(tx, cajaID, cierre, total); err != nil {
			if errors.Is(err, repository.ErrCajaNoAbierta) {
				return apierror.Conflict("la caja ya esta cerrada")
			}
			return err
		}
		c.Ventas = ventas
		c.Estado = model.CajaCerrada
		c.CierreAt = &cierre
		c.Total = total
		caja = c
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := &dto.CierreCajaResponse{
		CajaID:         caja.ID.String(),
		Operador:       caja.Operador,
		AperturaAt:     fechaISO(caja.AperturaAt),
		CierreAt:       fechaISO(cierre),
		CantidadVentas: len(caja.Ventas),
		Aplicado:       montosPorMetodo(suma),
		VueltoTotal:    suma.Vuelto,
		Total:          total,
		TotalFormato:   moneda.Formatear(total),
	}
	resp.EmailEncolado = s.enviarTicket(ctx, caja)

	s.despuesDeEscribir(ctx, actor, "cerrar", caja.ID, map[string]any{
		"caja_id":         caja.ID.String(),
		"total":           total,
		"cantidad_ventas": len(caja.Ventas),
	})
	s.metricas.cierres.Add(ctx, 1)
	return resp, nil
}

// enviarTicket queues the closing ticket email. Best effort: any failure is
// logged and reported as false.
func (s *cajaService) enviarTicket(ctx context.Context, caja *model.Caja) bool {
	if s.cfg.CierreEmailTo == "" || s.correo == nil {
		return false
	}
	path, err := infra.GuardarTicketCierre(s.ticketDe(caja), s.cfg.PDFStoragePath)
	if err != nil {
		log.Error().Err(err).Str("caja_id", caja.ID.String()).Msg("caja: ticket PDF failed")
		return false
	}
	payload := worker.EmailJobPayload{
		ToEmail: s.cfg.CierreEmailTo,
		Subject: fmt.Sprintf("Cierre de caja %s - %s", caja.Operador, caja.AperturaAt.Local().Format("02/01/2006")),
		Body:    fmt.Sprintf("Cierre de caja de %s. Total: %s.", caja.Operador, moneda.Formatear(caja.Total)),
		PDFPath: path,
	}
	if err := s.correo.EnqueueEmail(context.WithoutCancel(ctx), payload); err != nil {
		log.Error().Err(err).Str("caja_id", caja.ID.String()).Msg("caja: enqueue ticket email failed")
		return false
	}
	return true
}

// ── Ticket ────────────────────────────────────────────────────────────────────

func (s *cajaService) Ticket(ctx context.Context, cajaID uuid.UUID) ([]byte, error) {
	caja, err := s.repo.FindByID(ctx, cajaID)
	if err != nil {
		return nil, noEncontrado(err, "caja no encontrada")
	}
	return infra.GenerarTicketCierrePDF(s.ticketDe(caja))
}

// ticketDe summarises each sale with ResumenTicket: the change comes off
// transferencia first, then tarjeta, then efectivo.
func (s *cajaService) ticketDe(caja *model.Caja) infra.TicketCierre {
	t := infra.TicketCierre{
		Negocio:  s.cfg.NegocioNombre,
		CajaID:   caja.ID.String(),
		Operador: caja.Operador,
		Apertura: caja.AperturaAt,
		Cierre:   caja.CierreAt,
		Ventas:   make([]infra.TicketVenta, 0, len(caja.Ventas)),
	}
	resumenes := make([]Asignacion, 0, len(caja.Ventas))
	for _, v := range caja.Ventas {
		r := ResumenTicket(v.Total, v.Efectivo, v.Tarjeta, v.Transferencia)
		resumenes = append(resumenes, r)
		t.Ventas = append(t.Ventas, infra.TicketVenta{
			Fecha:         v.Fecha,
			Cliente:       v.ClienteNombre,
			Efectivo:      r.Efectivo,
			Tarjeta:       r.Tarjeta,
			Transferencia: r.Transferencia,
			Total:         v.Total,
		})
		t.Total = t.Total.Add(v.Total)
	}
	suma := SumarAsignaciones(resumenes)
	t.Efectivo, t.Tarjeta, t.Transferencia = suma.Efectivo, suma.Tarjeta, suma.Transferencia
	return t
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *cajaService) despuesDeEscribir(ctx context.Context, actor Actor, accion string, id uuid.UUID, detalle map[string]any) {
	s.cache.Clear(cache.Cajas)
	if s.auditoria != nil {
		s.auditoria.Registrar(ctx, Entrada{Accion: accion, Modulo: cache.Cajas, Actor: actor, Detalle: detalle})
	}
	notificar(ctx, s.eventos, cache.Cajas, accion, id)
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	a := AsignarPagos(v.Total, v.Efectivo, v.Tarjeta, v.Transferencia)
	resp := &dto.VentaResponse{
		ID:            v.ID.String(),
		CajaID:        v.CajaID.String(),
		Fecha:         fechaISO(v.Fecha),
		ClienteNombre: v.ClienteNombre,
		Items:         make([]dto.ItemVentaResponse, len(v.Items)),
		Efectivo:      v.Efectivo,
		Tarjeta:       v.Tarjeta,
		Transferencia: v.Transferencia,
		Total:         v.Total,
		Aplicado:      montosPorMetodo(a),
		Vuelto:        a.Vuelto,
	}
	if v.ClienteID != nil {
		id := v.ClienteID.String()
		resp.ClienteID = &id
	}
	for i, it := range v.Items {
		item := dto.ItemVentaResponse{
			Nombre:         it.Nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		}
		if it.ProductoID != nil {
			pid := it.ProductoID.String()
			item.ProductoID = &pid
		}
		resp.Items[i] = item
	}
	return resp
}

func cajaToResponse(c *model.Caja) *dto.CajaResponse {
	resp := &dto.CajaResponse{
		ID:         c.ID.String(),
		UsuarioID:  c.UsuarioID.String(),
		Operador:   c.Operador,
		Estado:     c.Estado,
		Total:      c.Total,
		AperturaAt: fechaISO(c.AperturaAt),
		CierreAt:   fechaISOPtr(c.CierreAt),
		Ventas:     make([]dto.VentaResponse, len(c.Ventas)),
	}
	for i := range c.Ventas {
		resp.Ventas[i] = *ventaToResponse(&c.Ventas[i])
	}
	return resp
}
