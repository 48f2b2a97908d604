package repository

import (
	"context"
	"time"

	"almacenpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReposicionRepository and SalidaRepository share the same shape: a header
// with line items, created and removed together with the stock adjustment.
type ReposicionRepository interface {
	CreateTx(tx *gorm.DB, r *model.Reposicion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reposicion, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Reposicion, error)
	List(ctx context.Context, desde, hasta *time.Time) ([]model.Reposicion, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	DB() *gorm.DB
}

type SalidaRepository interface {
	CreateTx(tx *gorm.DB, s *model.Salida) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Salida, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Salida, error)
	List(ctx context.Context, desde, hasta *time.Time) ([]model.Salida, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	DB() *gorm.DB
}

// borrarCabecera deletes the header row and reports gorm.ErrRecordNotFound
// when another transaction removed it first.
func borrarCabecera(tx *gorm.DB, dest any, id uuid.UUID) error {
	res := tx.Delete(dest, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func rangoFechas(q *gorm.DB, desde, hasta *time.Time) *gorm.DB {
	if desde != nil {
		q = q.Where("fecha >= ?", *desde)
	}
	if hasta != nil {
		q = q.Where("fecha < ?", *hasta)
	}
	return q
}

// ── Reposiciones ─────────────────────────────────────────────────────────────

type reposicionRepo struct{ db *gorm.DB }

func NewReposicionRepository(db *gorm.DB) ReposicionRepository { return &reposicionRepo{db: db} }

func (r *reposicionRepo) CreateTx(tx *gorm.DB, rep *model.Reposicion) error {
	return tx.Create(rep).Error
}

func (r *reposicionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reposicion, error) {
	var rep model.Reposicion
	err := r.db.WithContext(ctx).Preload("Items").First(&rep, "id = ?", id).Error
	return &rep, err
}

func (r *reposicionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Reposicion, error) {
	var rep model.Reposicion
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&rep, "id = ?", id).Error
	return &rep, err
}

func (r *reposicionRepo) List(ctx context.Context, desde, hasta *time.Time) ([]model.Reposicion, error) {
	var reps []model.Reposicion
	q := rangoFechas(r.db.WithContext(ctx).Model(&model.Reposicion{}), desde, hasta)
	err := q.Preload("Items").Order("fecha DESC").Find(&reps).Error
	return reps, err
}

func (r *reposicionRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("reposicion_id = ?", id).Delete(&model.ReposicionItem{}).Error; err != nil {
		return err
	}
	return borrarCabecera(tx, &model.Reposicion{}, id)
}

func (r *reposicionRepo) DB() *gorm.DB { return r.db }

// ── Salidas ──────────────────────────────────────────────────────────────────

type salidaRepo struct{ db *gorm.DB }

func NewSalidaRepository(db *gorm.DB) SalidaRepository { return &salidaRepo{db: db} }

func (r *salidaRepo) CreateTx(tx *gorm.DB, s *model.Salida) error {
	return tx.Create(s).Error
}

func (r *salidaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Salida, error) {
	var s model.Salida
	err := r.db.WithContext(ctx).Preload("Items").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *salidaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Salida, error) {
	var s model.Salida
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *salidaRepo) List(ctx context.Context, desde, hasta *time.Time) ([]model.Salida, error) {
	var salidas []model.Salida
	q := rangoFechas(r.db.WithContext(ctx).Model(&model.Salida{}), desde, hasta)
	err := q.Preload("Items").Order("fecha DESC").Find(&salidas).Error
	return salidas, err
}

func (r *salidaRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("salida_id = ?", id).Delete(&model.SalidaItem{}).Error; err != nil {
		return err
	}
	return borrarCabecera(tx, &model.Salida{}, id)
}

func (r *salidaRepo) DB() *gorm.DB { return r.db }
