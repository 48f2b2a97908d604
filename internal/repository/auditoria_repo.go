package repository

import (
	"context"
	"time"

	"almacenpos/internal/model"

	"gorm.io/gorm"
)

// AuditoriaQuery is the parsed form of the listing filter.
type AuditoriaQuery struct {
	Modulo  string
	Usuario string
	Accion  string
	Desde   *time.Time
	Hasta   *time.Time // exclusive
	Page    int
	Limit   int
}

type AuditoriaRepository interface {
	Create(ctx context.Context, a *model.Auditoria) error
	List(ctx context.Context, q AuditoriaQuery) ([]model.Auditoria, int64, error)
}

type auditoriaRepo struct{ db *gorm.DB }

func NewAuditoriaRepository(db *gorm.DB) AuditoriaRepository { return &auditoriaRepo{db: db} }

func (r *auditoriaRepo) Create(ctx context.Context, a *model.Auditoria) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *auditoriaRepo) List(ctx context.Context, f AuditoriaQuery) ([]model.Auditoria, int64, error) {
	var entradas []model.Auditoria
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Auditoria{})
	if f.Modulo != "" {
		q = q.Where("modulo = ?", f.Modulo)
	}
	if f.Usuario != "" {
		q = q.Where("usuario ILIKE ?", "%"+f.Usuario+"%")
	}
	if f.Accion != "" {
		q = q.Where("accion = ?", f.Accion)
	}
	if f.Desde != nil {
		q = q.Where("created_at >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("created_at < ?", *f.Hasta)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (f.Page - 1) * f.Limit
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(offset).Find(&entradas).Error
	return entradas, total, err
}
