package repository

import (
	"context"
	"errors"
	"time"

	"almacenpos/internal/dto"
	"almacenpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCajaNoAbierta is returned by CerrarTx when the caja was already closed
// by the time the conditional update ran.
var ErrCajaNoAbierta = errors.New("caja no abierta")

type CajaRepository interface {
	Create(ctx context.Context, c *model.Caja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	FindAbiertaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.Caja, error)
	List(ctx context.Context, filter dto.CajaFilter) ([]model.Caja, int64, error)
	// ListConVentas loads every caja with its sales; used by reports.
	ListConVentas(ctx context.Context) ([]model.Caja, error)
	CountAbiertas(ctx context.Context) (int64, error)

	// Used inside transactions: callers pass the tx instance
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Caja, error)
	FindVentasTx(tx *gorm.DB, cajaID uuid.UUID) ([]model.Venta, error)
	CerrarTx(tx *gorm.DB, cajaID uuid.UUID, cierre time.Time, total any) error
	CreateVentaTx(tx *gorm.DB, v *model.Venta) error
	FindVentaTx(tx *gorm.DB, cajaID, ventaID uuid.UUID) (*model.Venta, error)
	DeleteVentaTx(tx *gorm.DB, ventaID uuid.UUID) error
	SumarTotalTx(tx *gorm.DB, cajaID uuid.UUID, delta any) error

	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func preloadVentas(db *gorm.DB) *gorm.DB {
	return db.Preload("Ventas", func(q *gorm.DB) *gorm.DB {
		return q.Order("fecha ASC")
	}).Preload("Ventas.Items")
}

func (r *cajaRepo) Create(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (r *cajaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := preloadVentas(r.db.WithContext(ctx)).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaRepo) FindAbiertaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := preloadVentas(r.db.WithContext(ctx)).
		Where("usuario_id = ? AND estado = ?", usuarioID, model.CajaAbierta).
		First(&c).Error
	return &c, err
}

func (r *cajaRepo) List(ctx context.Context, filter dto.CajaFilter) ([]model.Caja, int64, error) {
	var cajas []model.Caja
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Caja{})
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := preloadVentas(q).Order("apertura_at DESC").Limit(filter.Limit).Offset(offset).Find(&cajas).Error
	return cajas, total, err
}

func (r *cajaRepo) ListConVentas(ctx context.Context) ([]model.Caja, error) {
	var cajas []model.Caja
	err := preloadVentas(r.db.WithContext(ctx)).Order("apertura_at DESC").Find(&cajas).Error
	return cajas, err
}

func (r *cajaRepo) CountAbiertas(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Caja{}).Where("estado = ?", model.CajaAbierta).Count(&n).Error
	return n, err
}

func (r *cajaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaRepo) FindVentasTx(tx *gorm.DB, cajaID uuid.UUID) ([]model.Venta, error) {
	var ventas []model.Venta
	err := tx.Preload("Items").Where("caja_id = ?", cajaID).Order("fecha ASC").Find(&ventas).Error
	return ventas, err
}

// CerrarTx only touches a caja that is still abierta.
func (r *cajaRepo) CerrarTx(tx *gorm.DB, cajaID uuid.UUID, cierre time.Time, total any) error {
	res := tx.Model(&model.Caja{}).
		Where("id = ? AND estado = ?", cajaID, model.CajaAbierta).
		Updates(map[string]any{"estado": model.CajaCerrada, "cierre_at": cierre, "total": total})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCajaNoAbierta
	}
	return nil
}

func (r *cajaRepo) CreateVentaTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Create(v).Error
}

func (r *cajaRepo) FindVentaTx(tx *gorm.DB, cajaID, ventaID uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := tx.Preload("Items").Where("id = ? AND caja_id = ?", ventaID, cajaID).First(&v).Error
	return &v, err
}

func (r *cajaRepo) DeleteVentaTx(tx *gorm.DB, ventaID uuid.UUID) error {
	if err := tx.Where("venta_id = ?", ventaID).Delete(&model.VentaItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Venta{}, "id = ?", ventaID).Error
}

func (r *cajaRepo) SumarTotalTx(tx *gorm.DB, cajaID uuid.UUID, delta any) error {
	return tx.Model(&model.Caja{}).Where("id = ?", cajaID).
		Update("total", gorm.Expr("total + ?", delta)).Error
}

func (r *cajaRepo) DB() *gorm.DB { return r.db }
