package infra

import (
	"fmt"

	"almacenpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection (pgx underneath) and brings the schema
// up to date.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and then applies the patches
// AutoMigrate cannot express. Safe to call repeatedly.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Producto{},
		&model.Cliente{},
		&model.Usuario{},
		&model.Caja{},
		&model.Venta{},
		&model.VentaItem{},
		&model.Reposicion{},
		&model.ReposicionItem{},
		&model.Salida{},
		&model.SalidaItem{},
		&model.Auditoria{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL: check constraints and partial
// indexes that have no GORM tag equivalent.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"stock cantidad no negativa", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_stock_cantidad') THEN
    ALTER TABLE stock ADD CONSTRAINT chk_stock_cantidad CHECK (cantidad >= 0);
  END IF;
END $$`},
		{"stock precios no negativos", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_stock_precios') THEN
    ALTER TABLE stock ADD CONSTRAINT chk_stock_precios CHECK (precio_costo >= 0 AND precio_venta >= 0);
  END IF;
END $$`},
		{"una caja abierta por operador",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_cajas_abierta_usuario
			   ON cajas (usuario_id) WHERE estado = 'abierta'`},
		{"usuarios email case-insensitive",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_usuarios_email_lower ON usuarios (LOWER(email))`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
