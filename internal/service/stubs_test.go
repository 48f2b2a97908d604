package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"almacenpos/internal/dto"
	"almacenpos/internal/infra"
	"almacenpos/internal/model"
	"almacenpos/internal/repository"
	"almacenpos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories. DB() returns nil so services run their transaction
// bodies directly with a nil *gorm.DB.

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
	listCalls int
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) seed(nombre, codigo string, cantidad int, costo, venta int64) *model.Producto {
	p := &model.Producto{
		ID:           uuid.New(),
		Nombre:       nombre,
		CodigoBarras: codigo,
		Cantidad:     cantidad,
		PrecioCosto:  decimal.NewFromInt(costo),
		PrecioVenta:  decimal.NewFromInt(venta),
		StockMinimo:  2,
	}
	r.productos[p.ID] = p
	return p
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	for _, e := range r.productos {
		if e.CodigoBarras == p.CodigoBarras {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) FindByBarcode(_ context.Context, codigo string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.CodigoBarras == codigo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) List(_ context.Context, f dto.ProductoFilter) ([]model.Producto, error) {
	r.listCalls++
	var out []model.Producto
	for _, p := range r.productos {
		if f.Nombre != "" && !strings.Contains(strings.ToLower(p.Nombre), strings.ToLower(f.Nombre)) {
			continue
		}
		if f.Categoria != "" && p.Categoria != f.Categoria {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubProductoRepo) ListBajoMinimo(_ context.Context) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if p.BajoMinimo() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	cp := *p
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.productos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductoRepo) AjustarStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	if p, ok := r.productos[id]; ok {
		p.Cantidad += delta
	}
	return nil
}

func (r *stubProductoRepo) DescontarStockTx(_ *gorm.DB, id uuid.UUID, cantidad int) error {
	p, ok := r.productos[id]
	if !ok || p.Cantidad < cantidad {
		return repository.ErrStockInsuficiente
	}
	p.Cantidad -= cantidad
	return nil
}

func (r *stubProductoRepo) UpdateCostoTx(_ *gorm.DB, id uuid.UUID, costo any) error {
	if p, ok := r.productos[id]; ok {
		p.PrecioCosto = costo.(decimal.Decimal)
	}
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClienteRepo) List(_ context.Context, f dto.ClienteFilter) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		if f.Nombre != "" && !strings.Contains(strings.ToLower(c.Nombre), strings.ToLower(f.Nombre)) {
			continue
		}
		if f.RUC != "" && !strings.HasPrefix(c.RUC, f.RUC) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.clientes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.clientes, id)
	return nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

type stubCajaRepo struct {
	cajas     map[uuid.UUID]*model.Caja
	listCalls int

	// one-shot hooks to interleave another operation inside a transaction
	trasBloquear  func()
	antesDeCerrar func()
}

func newStubCajaRepo() *stubCajaRepo {
	return &stubCajaRepo{cajas: make(map[uuid.UUID]*model.Caja)}
}

func copiaCaja(c *model.Caja) *model.Caja {
	cp := *c
	cp.Ventas = append([]model.Venta(nil), c.Ventas...)
	return &cp
}

func (r *stubCajaRepo) Create(_ context.Context, c *model.Caja) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.cajas[c.ID] = copiaCaja(c)
	return nil
}

func (r *stubCajaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Caja, error) {
	c, ok := r.cajas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copiaCaja(c), nil
}

func (r *stubCajaRepo) FindAbiertaPorUsuario(_ context.Context, usuarioID uuid.UUID) (*model.Caja, error) {
	for _, c := range r.cajas {
		if c.UsuarioID == usuarioID && c.Abierta() {
			return copiaCaja(c), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCajaRepo) List(_ context.Context, f dto.CajaFilter) ([]model.Caja, int64, error) {
	var out []model.Caja
	for _, c := range r.cajas {
		if f.Estado == "" || c.Estado == f.Estado {
			out = append(out, *copiaCaja(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AperturaAt.After(out[j].AperturaAt) })
	return out, int64(len(out)), nil
}

func (r *stubCajaRepo) ListConVentas(_ context.Context) ([]model.Caja, error) {
	r.listCalls++
	var out []model.Caja
	for _, c := range r.cajas {
		out = append(out, *copiaCaja(c))
	}
	return out, nil
}

func (r *stubCajaRepo) CountAbiertas(_ context.Context) (int64, error) {
	var n int64
	for _, c := range r.cajas {
		if c.Abierta() {
			n++
		}
	}
	return n, nil
}

func (r *stubCajaRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Caja, error) {
	c, err := r.FindByID(context.Background(), id)
	if hook := r.trasBloquear; hook != nil && err == nil {
		r.trasBloquear = nil
		hook()
	}
	return c, err
}

func (r *stubCajaRepo) FindVentasTx(_ *gorm.DB, cajaID uuid.UUID) ([]model.Venta, error) {
	c, ok := r.cajas[cajaID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return append([]model.Venta(nil), c.Ventas...), nil
}

func (r *stubCajaRepo) CerrarTx(_ *gorm.DB, cajaID uuid.UUID, cierre time.Time, total any) error {
	if hook := r.antesDeCerrar; hook != nil {
		r.antesDeCerrar = nil
		hook()
	}
	c, ok := r.cajas[cajaID]
	if !ok || !c.Abierta() {
		return repository.ErrCajaNoAbierta
	}
	c.Estado = model.CajaCerrada
	c.CierreAt = &cierre
	c.Total = total.(decimal.Decimal)
	return nil
}

func (r *stubCajaRepo) CreateVentaTx(_ *gorm.DB, v *model.Venta) error {
	c, ok := r.cajas[v.CajaID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	for i := range v.Items {
		v.Items[i].VentaID = v.ID
	}
	c.Ventas = append(c.Ventas, *v)
	return nil
}

func (r *stubCajaRepo) FindVentaTx(_ *gorm.DB, cajaID, ventaID uuid.UUID) (*model.Venta, error) {
	c, ok := r.cajas[cajaID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, v := range c.Ventas {
		if v.ID == ventaID {
			cp := v
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCajaRepo) DeleteVentaTx(_ *gorm.DB, ventaID uuid.UUID) error {
	for _, c := range r.cajas {
		for i, v := range c.Ventas {
			if v.ID == ventaID {
				c.Ventas = append(c.Ventas[:i], c.Ventas[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubCajaRepo) SumarTotalTx(_ *gorm.DB, cajaID uuid.UUID, delta any) error {
	c, ok := r.cajas[cajaID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Total = c.Total.Add(delta.(decimal.Decimal))
	return nil
}

func (r *stubCajaRepo) DB() *gorm.DB { return nil }

var _ repository.CajaRepository = (*stubCajaRepo)(nil)

type stubReposicionRepo struct {
	reps      map[uuid.UUID]*model.Reposicion
	listCalls int
	trasLeer  func()
}

func newStubReposicionRepo() *stubReposicionRepo {
	return &stubReposicionRepo{reps: make(map[uuid.UUID]*model.Reposicion)}
}

func (r *stubReposicionRepo) CreateTx(_ *gorm.DB, rep *model.Reposicion) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	cp := *rep
	r.reps[rep.ID] = &cp
	return nil
}

func (r *stubReposicionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reposicion, error) {
	rep, ok := r.reps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rep
	return &cp, nil
}

func (r *stubReposicionRepo) List(_ context.Context, desde, hasta *time.Time) ([]model.Reposicion, error) {
	r.listCalls++
	var out []model.Reposicion
	for _, rep := range r.reps {
		if desde != nil && rep.Fecha.Before(*desde) {
			continue
		}
		if hasta != nil && !rep.Fecha.Before(*hasta) {
			continue
		}
		out = append(out, *rep)
	}
	return out, nil
}

func (r *stubReposicionRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Reposicion, error) {
	rep, err := r.FindByID(context.Background(), id)
	if hook := r.trasLeer; hook != nil && err == nil {
		r.trasLeer = nil
		hook()
	}
	return rep, err
}

func (r *stubReposicionRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.reps[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.reps, id)
	return nil
}

func (r *stubReposicionRepo) DB() *gorm.DB { return nil }

var _ repository.ReposicionRepository = (*stubReposicionRepo)(nil)

type stubSalidaRepo struct {
	salidas  map[uuid.UUID]*model.Salida
	trasLeer func()
}

func newStubSalidaRepo() *stubSalidaRepo {
	return &stubSalidaRepo{salidas: make(map[uuid.UUID]*model.Salida)}
}

func (r *stubSalidaRepo) CreateTx(_ *gorm.DB, s *model.Salida) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.salidas[s.ID] = &cp
	return nil
}

func (r *stubSalidaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Salida, error) {
	s, ok := r.salidas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSalidaRepo) List(_ context.Context, _, _ *time.Time) ([]model.Salida, error) {
	var out []model.Salida
	for _, s := range r.salidas {
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSalidaRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Salida, error) {
	s, err := r.FindByID(context.Background(), id)
	if hook := r.trasLeer; hook != nil && err == nil {
		r.trasLeer = nil
		hook()
	}
	return s, err
}

func (r *stubSalidaRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.salidas[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.salidas, id)
	return nil
}

func (r *stubSalidaRepo) DB() *gorm.DB { return nil }

var _ repository.SalidaRepository = (*stubSalidaRepo)(nil)

type stubUsuarioRepo struct {
	users map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{users: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	for _, e := range r.users {
		if strings.EqualFold(e.Email, u.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) FindByEmail(_ context.Context, email string) (*model.Usuario, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) && u.Activo {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) Desactivar(_ context.Context, id uuid.UUID) error {
	if u, ok := r.users[id]; ok {
		u.Activo = false
	}
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

type stubAuditoriaRepo struct {
	entradas []model.Auditoria
	err      error
	lastQ    repository.AuditoriaQuery
}

func (r *stubAuditoriaRepo) Create(_ context.Context, a *model.Auditoria) error {
	if r.err != nil {
		return r.err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.entradas = append(r.entradas, *a)
	return nil
}

func (r *stubAuditoriaRepo) List(_ context.Context, q repository.AuditoriaQuery) ([]model.Auditoria, int64, error) {
	r.lastQ = q
	return r.entradas, int64(len(r.entradas)), nil
}

var _ repository.AuditoriaRepository = (*stubAuditoriaRepo)(nil)

// ── Collaborator stubs ───────────────────────────────────────────────────────

type stubAuditor struct {
	mu       sync.Mutex
	entradas []Entrada
}

func (a *stubAuditor) Registrar(_ context.Context, e Entrada) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entradas = append(a.entradas, e)
}

func (a *stubAuditor) acciones() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entradas))
	for i, e := range a.entradas {
		out[i] = e.Modulo + ":" + e.Accion
	}
	return out
}

type stubPublicador struct {
	eventos []infra.Evento
	err     error
}

func (p *stubPublicador) Publicar(_ context.Context, ev infra.Evento) error {
	p.eventos = append(p.eventos, ev)
	return p.err
}

func (p *stubPublicador) colecciones() []string {
	out := make([]string, len(p.eventos))
	for i, ev := range p.eventos {
		out[i] = ev.Coleccion
	}
	return out
}

type stubEncolador struct {
	auditoria []worker.AuditoriaJobPayload
	emails    []worker.EmailJobPayload
	err       error
}

func (e *stubEncolador) EnqueueAuditoria(_ context.Context, p worker.AuditoriaJobPayload) error {
	if e.err != nil {
		return e.err
	}
	e.auditoria = append(e.auditoria, p)
	return nil
}

func (e *stubEncolador) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	if e.err != nil {
		return e.err
	}
	e.emails = append(e.emails, p)
	return nil
}

var errRedisCaido = errors.New("redis: connection refused")
