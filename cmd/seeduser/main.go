// cmd/seeduser/main.go creates or resets the first administrador.
// Uso: SEED_EMAIL=... SEED_PASSWORD=... go run ./cmd/seeduser
package main

import (
	"context"
	"os"
	"strings"

	"almacenpos/internal/config"
	"almacenpos/internal/infra"
	"almacenpos/internal/logger"
	"almacenpos/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.Env, cfg.LogLevel)

	email := strings.ToLower(strings.TrimSpace(envOr("SEED_EMAIL", "admin@almacen.local")))
	password := envOr("SEED_PASSWORD", "almacen1234")
	nombre := envOr("SEED_NOMBRE", "Administrador")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	u := model.Usuario{
		Email:        email,
		Nombre:       nombre,
		PasswordHash: string(hash),
		Rol:          model.RolAdministrador,
		Activo:       true,
	}
	err = db.WithContext(context.Background()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "nombre", "rol", "activo", "updated_at"}),
	}).Create(&u).Error
	if err != nil {
		log.Fatal().Err(err).Msg("upsert usuario")
	}
	log.Info().Str("email", email).Msg("administrador creado/actualizado")
}
